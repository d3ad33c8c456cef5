package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"clipper/internal/history"
)

var (
	ErrToolNotFound    = errors.New("clipboard tool not found")
	ErrSinkUnavailable = errors.New("clipboard sink unavailable")
)

// Sink accepts raw bytes and makes them the active clipboard content.
type Sink interface {
	Name() string
	Write(ctx context.Context, r io.Reader) error
}

type Command struct {
	Path string
	Args []string
}

func SelectCommand(goos string, lookPath func(string) (string, error)) (Command, error) {
	switch goos {
	case "darwin":
		path, err := lookPath("pbcopy")
		if err != nil {
			return Command{}, ErrToolNotFound
		}
		return Command{Path: path}, nil
	case "linux", "freebsd", "openbsd":
		if path, err := lookPath("wl-copy"); err == nil {
			return Command{Path: path}, nil
		}
		if path, err := lookPath("xclip"); err == nil {
			return Command{Path: path, Args: []string{"-selection", "clipboard"}}, nil
		}
		return Command{}, ErrToolNotFound
	default:
		return Command{}, ErrToolNotFound
	}
}

// CommandSink pipes bytes into a clipboard helper such as wl-copy.
type CommandSink struct {
	cmd Command
}

func NewCommandSink(cmd Command) *CommandSink {
	return &CommandSink{cmd: cmd}
}

func (s *CommandSink) Name() string { return s.cmd.Path }

func (s *CommandSink) Write(ctx context.Context, r io.Reader) error {
	cmd := exec.CommandContext(ctx, s.cmd.Path, s.cmd.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: clipboard stdin: %v", ErrSinkUnavailable, err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("%w: start clipboard command: %v", ErrSinkUnavailable, err)
	}

	if _, err := io.Copy(stdin, r); err != nil {
		_ = stdin.Close()
		_ = cmd.Wait()
		return fmt.Errorf("%w: write clipboard data: %v", ErrSinkUnavailable, err)
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: clipboard command failed: %v", ErrSinkUnavailable, err)
	}
	return nil
}

// Detect returns a command sink for the running platform, falling back to
// the native clipboard when no helper binary is installed.
func Detect() (Sink, error) {
	cmd, err := SelectCommand(runtime.GOOS, exec.LookPath)
	if err == nil {
		return NewCommandSink(cmd), nil
	}
	native, nerr := NewNativeSink()
	if nerr != nil {
		return nil, fmt.Errorf("%w (native: %v)", err, nerr)
	}
	return native, nil
}

// Decoder is the part of a history store the writer needs.
type Decoder interface {
	Decode(ctx context.Context, e history.Entry) ([]byte, error)
}

// Writer restores history entries to the clipboard.
type Writer struct {
	store Decoder
	sink  Sink
}

func NewWriter(store Decoder, sink Sink) *Writer {
	return &Writer{store: store, sink: sink}
}

func (w *Writer) Sink() Sink { return w.sink }

// CopyToClipboard decodes e afresh and streams it to the sink. It holds no
// state between calls, so repeating it yields the same clipboard bytes.
func (w *Writer) CopyToClipboard(ctx context.Context, e history.Entry) error {
	if w.sink == nil {
		return fmt.Errorf("copy entry %s: %w", e.ID(), ErrToolNotFound)
	}
	data, err := w.store.Decode(ctx, e)
	if err != nil {
		return err
	}
	if err := w.sink.Write(ctx, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("copy entry %s: %w", e.ID(), err)
	}
	return nil
}
