package index

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffIndexRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.sqlite")
	idx, err := New(path, false)
	require.NoError(t, err)

	_, ok := idx.Lookup("abc")
	assert.False(t, ok)

	require.NoError(t, idx.Store("abc", "image/png"))
	require.NoError(t, idx.Store("abc", "image/webp"))
	mime, ok := idx.Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, "image/webp", mime)
	require.NoError(t, idx.Close())

	reopened, err := New(path, false)
	require.NoError(t, err)
	defer reopened.Close()
	mime, ok = reopened.Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, "image/webp", mime)
}

func TestSniffIndexReindexClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := New(path, false)
	require.NoError(t, err)
	require.NoError(t, idx.Store("abc", "text/plain"))
	require.NoError(t, idx.Close())

	fresh, err := New(path, true)
	require.NoError(t, err)
	defer fresh.Close()
	n, err := fresh.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSniffIndexPrune(t *testing.T) {
	idx, err := New(":memory:", false)
	require.NoError(t, err)
	defer idx.Close()

	base := time.Unix(1_700_000_000, 0)
	idx.now = func() time.Time { return base }
	require.NoError(t, idx.Store("old", "text/plain"))
	idx.now = func() time.Time { return base.Add(48 * time.Hour) }
	require.NoError(t, idx.Store("new", "text/plain"))

	removed, err := idx.Prune(base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, ok := idx.Lookup("old")
	assert.False(t, ok)
	_, ok = idx.Lookup("new")
	assert.True(t, ok)
}
