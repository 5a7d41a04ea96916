// SPDX-License-Identifier: EPL-2.0

package ffpipe

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("ffmpeg not found")

	// ErrNoOutput is returned when ffmpeg exits cleanly without writing audio.
	ErrNoOutput = errors.New("ffmpeg produced no output")
)

// ExitError carries the exit status and the tail of stderr of a failed run.
type ExitError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg: %v", e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
