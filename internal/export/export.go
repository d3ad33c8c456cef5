package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipper/internal/catalog"
	"clipper/internal/classify"
	"clipper/internal/staging"
)

// Exporter saves entry payloads as ordinary files.
type Exporter struct {
	overrideDir string
	cwd         string
	now         func() time.Time
}

func New(overrideDir string) (*Exporter, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}
	return &Exporter{overrideDir: strings.TrimSpace(overrideDir), cwd: cwd, now: time.Now}, nil
}

// Export writes the exact bytes of it and returns the path written.
func (e *Exporter) Export(it catalog.Item) (string, error) {
	path := e.outputPath(it)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(path, it.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

func (e *Exporter) outputPath(it catalog.Item) string {
	dir := e.cwd
	if e.overrideDir != "" {
		dir = e.overrideDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(e.cwd, dir)
		}
	}
	name := fmt.Sprintf("clip-%s-%s%s",
		safeFileName(it.Entry.ID()),
		e.now().UTC().Format("20060102T150405"),
		extension(it),
	)
	return filepath.Join(dir, name)
}

func extension(it catalog.Item) string {
	ext := staging.Extension(it.Class.MIME)
	if ext == ".bin" && it.Category() == classify.Text {
		return ".txt"
	}
	return ext
}

func safeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "entry"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_", "\t", "_")
	return replacer.Replace(s)
}
