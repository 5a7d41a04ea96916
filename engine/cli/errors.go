// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBinary is returned by Load when neither a download URL nor a local
	// ffmpeg is available.
	ErrNoBinary = errors.New("no ffmpeg binary available")

	ErrDownload = errors.New("downloading ffmpeg failed")

	// ErrVerify is returned when the resolved binary does not answer -version.
	ErrVerify = errors.New("ffmpeg binary failed verification")

	ErrNoInput = errors.New("input is empty")
)

// RunError describes a failed ffmpeg run. Output holds the end of its log.
type RunError struct {
	ExitCode int
	Output   string
	Err      error
}

func (e *RunError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("ffmpeg exited with code %d: %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %v: %s", e.ExitCode, e.Err, e.Output)
}

func (e *RunError) Unwrap() error { return e.Err }
