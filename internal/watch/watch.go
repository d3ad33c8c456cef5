// Package watch reports changes to the history database so the browser can
// rebuild its listing while it is open.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 250 * time.Millisecond

type Watcher struct {
	fw       *fsnotify.Watcher
	target   string
	debounce time.Duration
	events   chan struct{}
	done     chan struct{}
}

// New watches the file at path. The parent directory is watched rather
// than the file so that replace-by-rename writes are still seen.
func New(path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	target := filepath.Clean(path)
	if err := fw.Add(filepath.Dir(target)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	w := &Watcher{
		fw:       fw,
		target:   target,
		debounce: debounce,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Events receives one value per burst of changes. It is never closed.
func (w *Watcher) Events() <-chan struct{} { return w.events }

func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) matches(name string) bool {
	name = filepath.Clean(name)
	// sqlite/bolt side files (db-wal, db.lock) count as changes too.
	return name == w.target || strings.HasPrefix(name, w.target+"-") || strings.HasPrefix(name, w.target+".")
}

func (w *Watcher) run() {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.matches(ev.Name) || ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("history watcher error", "err", err)
		case <-fire:
			fire = nil
			select {
			case w.events <- struct{}{}:
			default:
			}
		}
	}
}
