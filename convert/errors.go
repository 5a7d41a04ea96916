// SPDX-License-Identifier: EPL-2.0

package convert

import "errors"

var (
	// ErrValidation marks requests rejected before any engine work.
	ErrValidation = errors.New("invalid conversion request")

	ErrEmptyInput      = errors.New("input file is empty")
	ErrInputTooLarge   = errors.New("input file is too large")
	ErrUnsupportedType = errors.New("input is not an audio file")
	ErrQuality         = errors.New("quality setting out of range")

	// ErrNoEngine is returned when no engine is wired for the selected backend.
	ErrNoEngine = errors.New("no engine for backend")

	// ErrMissingOutput means an engine finished without leaving output.
	ErrMissingOutput = errors.New("conversion produced no output buffer")
)

const (
	conversionFailedPrefix = "Audio conversion failed: "
	unknownReason          = "Unknown error"
)

// ConversionError is the single error shape of a failed conversion. Its
// message carries the reason of the underlying failure.
type ConversionError struct {
	Stage  State
	Reason string
	Err    error
}

func newConversionError(stage State, err error) *ConversionError {
	reason := unknownReason
	if err != nil && err.Error() != "" {
		reason = err.Error()
	}

	return &ConversionError{Stage: stage, Reason: reason, Err: err}
}

func (e *ConversionError) Error() string {
	return conversionFailedPrefix + e.Reason
}

func (e *ConversionError) Unwrap() error { return e.Err }
