// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrInvalidSampleRate is returned for a buffer or target with a non-positive rate.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")

	// ErrNoChannels is returned for a buffer without channels.
	ErrNoChannels = errors.New("audio buffer has no channels")

	// ErrChannelLengthMismatch is returned when planar channels differ in length.
	ErrChannelLengthMismatch = errors.New("audio buffer channels differ in length")

	// ErrEmptyBuffer is returned for a buffer with zero frames.
	ErrEmptyBuffer = errors.New("audio buffer has no frames")

	// ErrInvalidChannelCount is returned when a mixer target is not positive.
	ErrInvalidChannelCount = errors.New("channel count must be positive")
)
