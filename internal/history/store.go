package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrStoreUnavailable is wrapped by every error caused by the history store
// not being reachable at all (binary missing, database locked, ...).
var ErrStoreUnavailable = errors.New("history store unavailable")

// Store is the capability set the browser needs from a clipboard history.
type Store interface {
	// List returns entry identifiers newest first.
	List(ctx context.Context) ([]Entry, error)
	// Decode returns the raw payload for e. Failures are *DecodeError.
	Decode(ctx context.Context, e Entry) ([]byte, error)
	// Wipe irreversibly clears the history. Failures are *WipeError.
	Wipe(ctx context.Context) error
}

// Entry is one line of the store's listing. The line is opaque to clipper
// and is handed back to the store verbatim when decoding.
type Entry struct {
	Line string
}

// ID is the store-assigned key in front of the first tab.
func (e Entry) ID() string {
	id, _, _ := strings.Cut(e.Line, "\t")
	return id
}

// Preview is the store's own one-line summary of the payload.
func (e Entry) Preview() string {
	_, preview, ok := strings.Cut(e.Line, "\t")
	if !ok {
		return e.Line
	}
	return preview
}

func (e Entry) String() string { return e.ID() }

type DecodeError struct {
	Entry Entry
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode entry %s: %v", e.Entry.ID(), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type WipeError struct {
	Err error
}

func (e *WipeError) Error() string { return "wipe history: " + e.Err.Error() }

func (e *WipeError) Unwrap() error { return e.Err }

// ParseList splits newline-delimited listing output into entries, keeping
// store order and dropping blank lines.
func ParseList(out []byte) []Entry {
	lines := strings.Split(string(out), "\n")
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Entry{Line: line})
	}
	return entries
}
