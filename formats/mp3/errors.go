// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

var (
	ErrNotMP3File = errors.New("not an MP3 stream")

	// ErrTooManyChannels is returned by the encoder for more than two channels.
	ErrTooManyChannels = errors.New("MP3 supports at most two channels")

	// ErrUnsupportedBitrate is returned for rates outside the MPEG-1 Layer III table.
	ErrUnsupportedBitrate = errors.New("unsupported MP3 bitrate")
)
