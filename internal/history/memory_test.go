package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryNewestFirst(t *testing.T) {
	m := NewMemory()
	older := m.Add([]byte("older"))
	newer := m.Add([]byte("newer"))

	entries, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Entry{newer, older}, entries)
	assert.Equal(t, "2", newer.ID())
	assert.Equal(t, "newer", newer.Preview())
}

func TestMemoryStaleDecode(t *testing.T) {
	m := NewMemory()
	e := m.Add([]byte("soon gone"))
	m.MarkStale(e)

	_, err := m.Decode(context.Background(), e)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, e, decodeErr.Entry)
}

func TestMemoryWipe(t *testing.T) {
	m := NewMemory()
	m.Add([]byte("a"))

	m.FailWipe(errors.New("locked"))
	err := m.Wipe(context.Background())
	var wipeErr *WipeError
	require.ErrorAs(t, err, &wipeErr)
	assert.Equal(t, 0, m.Wipes())

	m.FailWipe(nil)
	require.NoError(t, m.Wipe(context.Background()))
	entries, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 1, m.Wipes())
}

func TestMemoryBinaryPreview(t *testing.T) {
	m := NewMemory()
	e := m.Add([]byte{0x89, 'P', 'N', 'G', 0xff})
	assert.Equal(t, "[[ binary data 5 B ]]", e.Preview())
}
