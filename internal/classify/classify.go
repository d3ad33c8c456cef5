package classify

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

type Category int

const (
	Text Category = iota
	Image
	Other
)

func (c Category) String() string {
	switch c {
	case Image:
		return "image"
	case Text:
		return "text"
	default:
		return "other"
	}
}

type Result struct {
	Category Category
	MIME     string
}

// Sniffer reports a MIME type for a payload.
type Sniffer interface {
	Sniff(ctx context.Context, data []byte) (string, error)
}

// Cache persists sniff results across runs, keyed by payload digest.
type Cache interface {
	Lookup(digest string) (string, bool)
	Store(digest, mime string) error
}

const DefaultTimeout = 2 * time.Second

// Classifier sorts payloads into categories. Results are memoized by
// payload digest so identical bytes always get the first answer seen in
// this process, whatever the sniffer or cache say later.
type Classifier struct {
	sniffer Sniffer
	cache   Cache
	timeout time.Duration

	mu   sync.Mutex
	memo map[string]Result
}

// New returns a Classifier. cache may be nil.
func New(sniffer Sniffer, cache Cache) *Classifier {
	return &Classifier{
		sniffer: sniffer,
		cache:   cache,
		timeout: DefaultTimeout,
		memo:    make(map[string]Result),
	}
}

func (c *Classifier) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

func (c *Classifier) Classify(ctx context.Context, data []byte) Result {
	digest := Digest(data)

	c.mu.Lock()
	if r, ok := c.memo[digest]; ok {
		c.mu.Unlock()
		return r
	}
	c.mu.Unlock()

	mime, fromCache := "", false
	if c.cache != nil {
		mime, fromCache = c.cache.Lookup(digest)
	}
	if !fromCache {
		mime = c.sniff(ctx, data)
	}
	r := Result{Category: Categorize(mime, data), MIME: mime}

	c.mu.Lock()
	if prev, ok := c.memo[digest]; ok {
		c.mu.Unlock()
		return prev
	}
	c.memo[digest] = r
	c.mu.Unlock()

	if c.cache != nil && !fromCache && mime != "" {
		if err := c.cache.Store(digest, mime); err != nil {
			slog.Debug("sniff cache store failed", "digest", digest[:12], "err", err)
		}
	}
	return r
}

func (c *Classifier) sniff(ctx context.Context, data []byte) string {
	if c.sniffer == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	mime, err := c.sniffer.Sniff(ctx, data)
	if err != nil {
		slog.Debug("sniff indeterminate", "size", len(data), "err", err)
		return ""
	}
	return normalizeMIME(mime)
}

// Categorize maps a sniffed MIME type onto a category. An empty MIME means
// the sniff was indeterminate and the payload itself decides.
func Categorize(mime string, data []byte) Category {
	mime = normalizeMIME(mime)
	if strings.HasPrefix(mime, "image/") {
		return Image
	}
	if isTextMIME(mime) || looksLikeText(data) {
		return Text
	}
	return Other
}

func isTextMIME(mime string) bool {
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	switch mime {
	case "application/json", "application/xml", "application/javascript",
		"application/x-sh", "application/x-shellscript", "inode/x-empty":
		return true
	}
	return false
}

func looksLikeText(data []byte) bool {
	return utf8.Valid(data) && bytes.IndexByte(data, 0) < 0
}

func normalizeMIME(mime string) string {
	mime = strings.TrimSpace(strings.ToLower(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime
}

// Digest is the hex sha256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
