package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

// Memory is an in-process Store. It keeps cliphist's line format so the
// rest of the pipeline cannot tell it apart from the real thing.
type Memory struct {
	mu      sync.Mutex
	nextID  int
	entries []memoryEntry
	stale   map[string]bool
	wipeErr error

	wipes   int
	decodes int
}

type memoryEntry struct {
	entry Entry
	data  []byte
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, stale: make(map[string]bool)}
}

// Add records data as the newest entry.
func (m *Memory) Add(data []byte) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	e := Entry{Line: fmt.Sprintf("%d\t%s", id, previewOf(data))}
	m.entries = append([]memoryEntry{{entry: e, data: append([]byte(nil), data...)}}, m.entries...)
	return e
}

// MarkStale makes Decode fail for e while it still appears in List, the way
// a concurrent store-side delete looks to a client.
func (m *Memory) MarkStale(e Entry) {
	m.mu.Lock()
	m.stale[e.Line] = true
	m.mu.Unlock()
}

// FailWipe makes the next Wipe calls fail with err. Pass nil to restore.
func (m *Memory) FailWipe(err error) {
	m.mu.Lock()
	m.wipeErr = err
	m.mu.Unlock()
}

func (m *Memory) Wipes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wipes
}

func (m *Memory) Decodes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decodes
}

func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, len(m.entries))
	for _, me := range m.entries {
		out = append(out, me.entry)
	}
	return out, nil
}

func (m *Memory) Decode(_ context.Context, e Entry) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decodes++
	if m.stale[e.Line] {
		return nil, &DecodeError{Entry: e, Err: errors.New("entry no longer exists")}
	}
	for _, me := range m.entries {
		if me.entry.Line == e.Line {
			return append([]byte(nil), me.data...), nil
		}
	}
	return nil, &DecodeError{Entry: e, Err: errors.New("unknown entry")}
}

func (m *Memory) Wipe(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wipeErr != nil {
		return &WipeError{Err: m.wipeErr}
	}
	m.wipes++
	m.entries = nil
	m.stale = make(map[string]bool)
	return nil
}

func previewOf(data []byte) string {
	if !utf8.Valid(data) {
		return fmt.Sprintf("[[ binary data %d B ]]", len(data))
	}
	r := []rune(strings.Join(strings.Fields(string(data)), " "))
	if len(r) > 100 {
		return string(r[:100]) + "…"
	}
	return string(r)
}
