package catalog

import (
	"context"
	"errors"
	"os"
	"testing"

	"clipper/internal/classify"
	"clipper/internal/history"
	"clipper/internal/staging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

type mimeSniffer struct{}

func (mimeSniffer) Sniff(_ context.Context, data []byte) (string, error) {
	if len(data) >= 4 && string(data[1:4]) == "PNG" {
		return "image/png", nil
	}
	return "text/plain", nil
}

type downStore struct{}

func (downStore) List(context.Context) ([]history.Entry, error) {
	return nil, history.ErrStoreUnavailable
}
func (downStore) Decode(context.Context, history.Entry) ([]byte, error) {
	return nil, history.ErrStoreUnavailable
}
func (downStore) Wipe(context.Context) error { return &history.WipeError{Err: history.ErrStoreUnavailable} }

func newCatalog(t *testing.T, store history.Store) (*Catalog, *staging.Cache) {
	t.Helper()
	cache, err := staging.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return New(store, classify.New(mimeSniffer{}, nil), cache, 2), cache
}

func entries(items []Item) []history.Entry {
	out := make([]history.Entry, 0, len(items))
	for _, it := range items {
		out = append(out, it.Entry)
	}
	return out
}

func TestLoadKeepsStoreOrderAndClassifies(t *testing.T) {
	store := history.NewMemory()
	text := store.Add([]byte("hello"))
	img := store.Add(pngBytes)
	newest := store.Add([]byte("world"))

	c, _ := newCatalog(t, store)
	listing, err := c.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []history.Entry{newest, img, text}, entries(listing.Items))
	assert.Equal(t, classify.Text, listing.Items[0].Category())
	assert.Equal(t, classify.Image, listing.Items[1].Category())
	assert.Equal(t, 3, listing.Listed)
	assert.Zero(t, listing.Skipped)
}

func TestLoadSkipsStaleEntries(t *testing.T) {
	store := history.NewMemory()
	keep := store.Add([]byte("keep"))
	stale := store.Add([]byte("stale"))
	store.MarkStale(stale)

	c, _ := newCatalog(t, store)
	listing, err := c.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []history.Entry{keep}, entries(listing.Items))
	assert.Equal(t, 1, listing.Skipped)
	for _, it := range listing.Items {
		assert.NotEmpty(t, it.Data)
	}
}

func TestLoadStagesImagesOnly(t *testing.T) {
	store := history.NewMemory()
	store.Add([]byte("just text"))
	store.Add(pngBytes)
	store.Add(append(append([]byte(nil), pngBytes...), 'x'))

	c, cache := newCatalog(t, store)
	listing, err := c.Load(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, it := range listing.Items {
		if it.Category() == classify.Image {
			require.NotEmpty(t, it.StagedPath)
			got, err := os.ReadFile(it.StagedPath)
			require.NoError(t, err)
			assert.Equal(t, it.Data, got)
			paths = append(paths, it.StagedPath)
		} else {
			assert.Empty(t, it.StagedPath)
		}
	}
	require.Len(t, paths, 2)
	assert.NotEqual(t, paths[0], paths[1])
	assert.Equal(t, 2, cache.Len())
}

func TestReloadEvictsPreviousStaging(t *testing.T) {
	store := history.NewMemory()
	store.Add(pngBytes)

	c, _ := newCatalog(t, store)
	first, err := c.Load(context.Background())
	require.NoError(t, err)
	oldPath := first.Items[0].StagedPath

	second, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, oldPath, second.Items[0].StagedPath)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, second.Items[0].StagedPath)
}

func TestLoadUnavailableStoreIsEmpty(t *testing.T) {
	c := New(downStore{}, classify.New(mimeSniffer{}, nil), nil, 0)
	listing, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, listing.Empty())
	assert.ErrorIs(t, listing.StoreErr, history.ErrStoreUnavailable)
}

func TestLoadAfterWipeIsEmpty(t *testing.T) {
	store := history.NewMemory()
	store.Add([]byte("a"))
	require.NoError(t, store.Wipe(context.Background()))

	c, _ := newCatalog(t, store)
	listing, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, listing.Empty())
	assert.NoError(t, listing.StoreErr)
}

func TestLoadCanceled(t *testing.T) {
	store := history.NewMemory()
	store.Add([]byte("a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(cancelAwareStore{store}, classify.New(mimeSniffer{}, nil), nil, 1)
	_, err := c.Load(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

type cancelAwareStore struct{ *history.Memory }

func (s cancelAwareStore) List(ctx context.Context) ([]history.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Memory.List(ctx)
}
