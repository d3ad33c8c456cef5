package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"clipper/internal/wipe"
)

const (
	DefaultWorkers      = 4
	DefaultConfirmStyle = "button"
	DefaultLogFormat    = "auto"
	DefaultLogLevel     = "info"
)

// Keys shared by flags, the config file and CLIPPER_* env vars.
const (
	KeyCliphist      = "cliphist"
	KeyCliphistDB    = "cliphist-db"
	KeySniffer       = "sniffer"
	KeyStagingDir    = "staging-dir"
	KeyIndexDB       = "index-db"
	KeyReindex       = "reindex"
	KeyExportDir     = "export-dir"
	KeyWorkers       = "workers"
	KeyConfirmStyle  = "confirm-style"
	KeyConfirmWindow = "confirm-window"
	KeyWatch         = "watch"
	KeyLogFile       = "log-file"
	KeyLogFormat     = "log-format"
	KeyLogLevel      = "log-level"
)

type AppConfig struct {
	Cliphist      string
	CliphistDB    string
	// WatchPath is CliphistDB, or cliphist's default location when unset.
	WatchPath     string
	Sniffer       string
	StagingDir    string
	IndexDB       string
	Reindex       bool
	ExportDir     string
	Workers       int
	ConfirmStyle  string
	ConfirmWindow time.Duration
	Watch         bool
	LogFile       string
	LogFormat     string
	LogLevel      string
}

// SetDefaults registers the values used when neither a flag, env var nor
// config file supplies a key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyCliphist, "cliphist")
	v.SetDefault(KeySniffer, "file")
	v.SetDefault(KeyWorkers, DefaultWorkers)
	v.SetDefault(KeyConfirmStyle, DefaultConfirmStyle)
	v.SetDefault(KeyConfirmWindow, wipe.DefaultWindow)
	v.SetDefault(KeyWatch, true)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
}

// FromViper resolves an AppConfig, filling unset paths with the Detect*
// defaults and creating the directories they live in.
func FromViper(v *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		Cliphist:      v.GetString(KeyCliphist),
		CliphistDB:    v.GetString(KeyCliphistDB),
		Sniffer:       v.GetString(KeySniffer),
		StagingDir:    v.GetString(KeyStagingDir),
		IndexDB:       v.GetString(KeyIndexDB),
		Reindex:       v.GetBool(KeyReindex),
		ExportDir:     v.GetString(KeyExportDir),
		Workers:       v.GetInt(KeyWorkers),
		ConfirmStyle:  v.GetString(KeyConfirmStyle),
		ConfirmWindow: v.GetDuration(KeyConfirmWindow),
		Watch:         v.GetBool(KeyWatch),
		LogFile:       v.GetString(KeyLogFile),
		LogFormat:     v.GetString(KeyLogFormat),
		LogLevel:      v.GetString(KeyLogLevel),
	}

	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.ConfirmWindow <= 0 {
		cfg.ConfirmWindow = wipe.DefaultWindow
	}
	if _, err := wipe.StyleByName(cfg.ConfirmStyle); err != nil {
		return cfg, err
	}

	var err error
	if cfg.WatchPath, err = DetectCliphistDB(cfg.CliphistDB); err != nil {
		return cfg, err
	}
	if cfg.StagingDir, err = DetectStagingRoot(cfg.StagingDir); err != nil {
		return cfg, err
	}
	if cfg.IndexDB, err = DetectIndexDB(cfg.IndexDB); err != nil {
		return cfg, err
	}
	if cfg.LogFile, err = DetectLogFile(cfg.LogFile); err != nil {
		return cfg, err
	}

	if err := os.MkdirAll(cfg.StagingDir, 0o700); err != nil {
		return cfg, fmt.Errorf("create staging dir: %w", err)
	}
	if cfg.IndexDB != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.IndexDB), 0o755); err != nil {
			return cfg, fmt.Errorf("create index dir: %w", err)
		}
	}

	return cfg, nil
}

// ConfigDir is where clipper.toml is searched for.
func ConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config", "clipper")
}

// DetectCliphistDB returns cliphist's own default database location. The
// path is only used for watching; cliphist is told about it only when set
// explicitly.
func DetectCliphistDB(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Clean(explicit), nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache", filepath.Join("cliphist", "db"))
}

func DetectStagingRoot(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Clean(explicit), nil
	}
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		return filepath.Join(runtime, "clipper"), nil
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("clipper-%d", os.Getuid())), nil
}

func DetectIndexDB(explicit string) (string, error) {
	if explicit != "" {
		if explicit == ":memory:" {
			return explicit, nil
		}
		return filepath.Clean(explicit), nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache", filepath.Join("clipper", "index.sqlite"))
}

func DetectLogFile(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Clean(explicit), nil
	}
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"), filepath.Join("clipper", "clipper.log"))
}

func xdgDir(env, fallback, rel string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(filepath.Clean(base), rel), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, fallback, rel), nil
}
