package history

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const DefaultCliphist = "cliphist"

// Cliphist talks to the cliphist binary over its list/decode/wipe
// subcommands.
type Cliphist struct {
	Path   string
	DBPath string
}

func NewCliphist(path, dbPath string) *Cliphist {
	if strings.TrimSpace(path) == "" {
		path = DefaultCliphist
	}
	return &Cliphist{Path: path, DBPath: strings.TrimSpace(dbPath)}
}

func (c *Cliphist) command(ctx context.Context, sub string) *exec.Cmd {
	args := make([]string, 0, 3)
	if c.DBPath != "" {
		args = append(args, "-db-path", c.DBPath)
	}
	args = append(args, sub)
	return exec.CommandContext(ctx, c.Path, args...)
}

func (c *Cliphist) List(ctx context.Context) ([]Entry, error) {
	out, err := c.command(ctx, "list").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: cliphist list: %s", ErrStoreUnavailable, describeExit(err))
	}
	return ParseList(out), nil
}

func (c *Cliphist) Decode(ctx context.Context, e Entry) ([]byte, error) {
	cmd := c.command(ctx, "decode")
	cmd.Stdin = strings.NewReader(e.Line)
	out, err := cmd.Output()
	if err != nil {
		if isNotRunnable(err) {
			err = fmt.Errorf("%w: %s", ErrStoreUnavailable, describeExit(err))
		} else {
			err = errors.New(describeExit(err))
		}
		return nil, &DecodeError{Entry: e, Err: err}
	}
	if len(out) == 0 {
		return nil, &DecodeError{Entry: e, Err: errors.New("empty payload")}
	}
	return out, nil
}

func (c *Cliphist) Wipe(ctx context.Context) error {
	if _, err := c.command(ctx, "wipe").Output(); err != nil {
		if isNotRunnable(err) {
			return &WipeError{Err: fmt.Errorf("%w: %s", ErrStoreUnavailable, describeExit(err))}
		}
		return &WipeError{Err: errors.New(describeExit(err))}
	}
	return nil
}

func isNotRunnable(err error) bool {
	var exitErr *exec.ExitError
	return !errors.As(err, &exitErr)
}

// describeExit folds the captured stderr of a failed subprocess into the
// error text.
func describeExit(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
			return fmt.Sprintf("%v: %s", err, msg)
		}
	}
	return err.Error()
}
