package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectIndexDBUsesXDGCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/cache")
	got, err := DetectIndexDB("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cache", "clipper", "index.sqlite"), got)
}

func TestDetectIndexDBKeepsMemory(t *testing.T) {
	got, err := DetectIndexDB(":memory:")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", got)
}

func TestDetectCliphistDB(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/cache")
	got, err := DetectCliphistDB("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cache", "cliphist", "db"), got)

	got, err = DetectCliphistDB("/x/../y/db")
	require.NoError(t, err)
	assert.Equal(t, "/y/db", got)
}

func TestDetectStagingRoot(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	got, err := DetectStagingRoot("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/run/user/1000", "clipper"), got)

	t.Setenv("XDG_RUNTIME_DIR", "")
	got, err = DetectStagingRoot("")
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(got), "clipper-")
}

func TestDetectLogFileFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_STATE_HOME", "")
	got, err := DetectLogFile("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "state", "clipper", "clipper.log"), got)
}

func TestFromViperDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "run"))

	v := viper.New()
	SetDefaults(v)
	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "cliphist", cfg.Cliphist)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, 3*time.Second, cfg.ConfirmWindow)
	assert.Equal(t, "button", cfg.ConfirmStyle)
	assert.True(t, cfg.Watch)
	assert.Empty(t, cfg.CliphistDB)
	assert.Equal(t, filepath.Join(dir, "cache", "cliphist", "db"), cfg.WatchPath)
	assert.DirExists(t, filepath.Join(dir, "run", "clipper"))
	assert.DirExists(t, filepath.Join(dir, "cache", "clipper"))
}

func TestFromViperOverrides(t *testing.T) {
	dir := t.TempDir()
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyWorkers, 0)
	v.Set(KeyConfirmWindow, "5s")
	v.Set(KeyConfirmStyle, "prompt")
	v.Set(KeyStagingDir, filepath.Join(dir, "stage"))
	v.Set(KeyIndexDB, ":memory:")
	v.Set(KeyLogFile, filepath.Join(dir, "log"))
	v.Set(KeyCliphistDB, filepath.Join(dir, "db"))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.ConfirmWindow)
	assert.Equal(t, "prompt", cfg.ConfirmStyle)
	assert.Equal(t, ":memory:", cfg.IndexDB)
}

func TestFromViperRejectsUnknownStyle(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyConfirmStyle, "modal")
	_, err := FromViper(v)
	assert.ErrorContains(t, err, "modal")
}
