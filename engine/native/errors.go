// SPDX-License-Identifier: EPL-2.0

package native

import "errors"

var (
	ErrNoInput = errors.New("input is empty")

	// ErrUnsupportedCodec is returned by Init for codecs without a registered encoder.
	ErrUnsupportedCodec = errors.New("no encoder for codec")

	// ErrUndecodable is returned when no decoder accepts the input.
	ErrUndecodable = errors.New("input could not be decoded")

	// ErrFFmpegUnavailable is returned when a step needs ffmpeg and none was configured.
	ErrFFmpegUnavailable = errors.New("ffmpeg is required but not available")

	ErrAlreadyExecuted = errors.New("conversion already executed")
)
