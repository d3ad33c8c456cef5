package classify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
)

const DefaultSniffer = "file"

// FileSniffer runs file(1) against a private temp copy of the payload.
// When the binary is missing it falls back to the stdlib content sniffer.
type FileSniffer struct {
	Path    string
	TempDir string

	lookPath func(string) (string, error)
}

func NewFileSniffer(path, tempDir string) *FileSniffer {
	if strings.TrimSpace(path) == "" {
		path = DefaultSniffer
	}
	return &FileSniffer{Path: path, TempDir: tempDir, lookPath: exec.LookPath}
}

func (s *FileSniffer) Sniff(ctx context.Context, data []byte) (string, error) {
	bin, err := s.lookPath(s.Path)
	if err != nil {
		return fallbackSniff(data), nil
	}

	f, err := os.CreateTemp(s.TempDir, "clipper-sniff-*")
	if err != nil {
		return "", fmt.Errorf("create sniff file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write sniff file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close sniff file: %w", err)
	}

	out, err := exec.CommandContext(ctx, bin, "--mime-type", "-b", f.Name()).Output()
	if err != nil {
		return "", fmt.Errorf("run %s: %w", s.Path, err)
	}
	mime := strings.TrimSpace(string(out))
	if mime == "" || !strings.Contains(mime, "/") {
		return "", errors.New("sniffer returned no mime type")
	}
	return mime, nil
}

func fallbackSniff(data []byte) string {
	return normalizeMIME(http.DetectContentType(data))
}
