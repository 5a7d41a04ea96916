// SPDX-License-Identifier: EPL-2.0

package flac

import "errors"

var (
	ErrNotFlacFile = errors.New("not a FLAC stream")

	// ErrTooManyChannels is returned for layouts FLAC cannot describe.
	ErrTooManyChannels = errors.New("FLAC supports at most eight channels")

	// ErrCompressionLevel is returned for levels outside 0..12.
	ErrCompressionLevel = errors.New("FLAC compression level must be within 0..12")
)
