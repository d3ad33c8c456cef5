package staging

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipper/internal/classify"
	"clipper/internal/history"

	"github.com/google/uuid"
)

const sessionPrefix = "session-"

// Cache materializes decoded entries on disk for renderers that need a
// path. Every entry gets its own file inside the current session directory;
// Rebuild starts a new session and evicts the old one.
//
// A Cache has a single owner and is not safe for concurrent use.
type Cache struct {
	root    string
	session string
	staged  map[string]stagedFile
	newID   func() string
}

type stagedFile struct {
	path   string
	digest string
}

func New(root string) (*Cache, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("staging root is empty")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}
	c := &Cache{root: root, newID: uuid.NewString}
	if err := c.openSession(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) openSession() error {
	dir := filepath.Join(c.root, sessionPrefix+c.newID())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return fmt.Errorf("create staging session: %w", err)
	}
	c.session = dir
	c.staged = make(map[string]stagedFile)
	return nil
}

func (c *Cache) SessionDir() string { return c.session }

// Key is the per-entry file stem.
func Key(e history.Entry) string {
	sum := sha256.Sum256([]byte(e.Line))
	return hex.EncodeToString(sum[:])[:16]
}

// Stage writes data for e and returns its path. Staging the same entry
// with the same bytes again reuses the file untouched.
func (c *Cache) Stage(e history.Entry, data []byte, mimeType string) (string, error) {
	key := Key(e)
	digest := classify.Digest(data)
	if f, ok := c.staged[key]; ok && f.digest == digest {
		if _, err := os.Stat(f.path); err == nil {
			return f.path, nil
		}
	}

	path := filepath.Join(c.session, key+Extension(mimeType))
	tmp, err := os.CreateTemp(c.session, "."+key+"-*")
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", e.ID(), err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("stage %s: %w", e.ID(), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("stage %s: %w", e.ID(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("stage %s: %w", e.ID(), err)
	}

	c.staged[key] = stagedFile{path: path, digest: digest}
	return path, nil
}

// Path reports where e is staged in the current session, if anywhere.
func (c *Cache) Path(e history.Entry) (string, bool) {
	f, ok := c.staged[Key(e)]
	return f.path, ok
}

func (c *Cache) Len() int { return len(c.staged) }

// Rebuild evicts everything staged for the previous listing.
func (c *Cache) Rebuild() error {
	old := c.session
	if err := c.openSession(); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("evict staging session: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	c.staged = nil
	if err := os.RemoveAll(c.session); err != nil {
		return fmt.Errorf("remove staging session: %w", err)
	}
	return nil
}

// Sweep removes session directories left behind by processes that exited
// without closing, once they are older than maxAge.
func (c *Cache) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return 0, fmt.Errorf("read staging root: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, de := range entries {
		if !de.IsDir() || !strings.HasPrefix(de.Name(), sessionPrefix) {
			continue
		}
		dir := filepath.Join(c.root, de.Name())
		if dir == c.session {
			continue
		}
		info, err := de.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("sweep %s: %w", de.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Extension picks a file suffix renderers recognise for mimeType.
func Extension(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp", "image/x-ms-bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	case "image/svg+xml":
		return ".svg"
	case "text/plain":
		return ".txt"
	default:
		return ".bin"
	}
}
