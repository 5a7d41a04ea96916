// SPDX-License-Identifier: EPL-2.0

package ffpipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

// stderr kept for error messages
const maxStderr = 4096

// Pipe runs ffmpeg with stdin and stdout attached to memory.
type Pipe struct {
	Binary string
	Logger *slog.Logger
}

func (p Pipe) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Run starts ffmpeg with args, streams stdin into it and collects stdout.
// The process is killed when ctx is cancelled.
func (p Pipe) Run(ctx context.Context, args []string, stdin io.Reader) ([]byte, error) {
	if p.Binary == "" {
		return nil, ErrNotFound
	}

	cmd := exec.CommandContext(ctx, p.Binary, args...)

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &tailBuffer{max: maxStderr}
	cmd.Stderr = stderr

	p.logger().Debug("starting ffmpeg", "binary", p.Binary, "args", strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		return nil, &ExitError{Err: err}
	}

	var stdout bytes.Buffer
	g := errgroup.Group{}

	g.Go(func() error {
		defer in.Close()
		if stdin == nil {
			return nil
		}
		// ffmpeg may stop reading early once it has what it needs.
		if _, err := io.Copy(in, stdin); err != nil && !isClosedPipe(err) {
			return fmt.Errorf("writing ffmpeg stdin: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if _, err := io.Copy(&stdout, out); err != nil {
			return fmt.Errorf("reading ffmpeg stdout: %w", err)
		}
		return nil
	})

	pumpErr := g.Wait()
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if waitErr != nil {
		exitErr := &ExitError{Stderr: strings.TrimSpace(stderr.String()), Err: waitErr}
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			exitErr.ExitCode = ee.ExitCode()
		}
		p.logger().Warn("ffmpeg failed", "exit_code", exitErr.ExitCode, "stderr", exitErr.Stderr)
		return nil, exitErr
	}
	if pumpErr != nil {
		return nil, pumpErr
	}

	return stdout.Bytes(), nil
}

func isClosedPipe(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) || strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "file already closed")
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
