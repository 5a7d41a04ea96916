// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// log lines kept for RunError.Output
const keepLines = 20

// Runner starts ffmpeg. stdout and stderr receive the output line by line
// and may be nil.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, stdout, stderr func(line string)) error
}

// ExecRunner runs the binary as a child process, killed when ctx ends.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, binary string, args []string, stdout, stderr func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...)

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return &RunError{ExitCode: -1, Err: err}
	}

	tail := &lineTail{max: keepLines}

	var g errgroup.Group
	g.Go(func() error { return scanLines(outPipe, stdout) })
	g.Go(func() error {
		return scanLines(errPipe, func(line string) {
			tail.add(line)
			if stderr != nil {
				stderr(line)
			}
		})
	})
	scanErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &RunError{ExitCode: code, Output: tail.String(), Err: err}
	}

	return scanErr
}

func scanLines(r io.Reader, fn func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if fn != nil {
			fn(sc.Text())
		}
	}
	return sc.Err()
}

type lineTail struct {
	mu    sync.Mutex
	max   int
	lines []string
}

func (t *lineTail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return strings.Join(t.lines, "\n")
}
