// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 with github.com/hajimehoshi/go-mp3 and encodes it
// with github.com/braheezy/shine-mp3.
//
// The decoder always produces interleaved stereo; mono files come back as
// dual-mono. The encoder accepts one or two channels at 32, 44.1 or 48 kHz,
// so callers conform the audio first:
//
//	src, _ = audio.Conform(src, mp3.TargetRate(src.SampleRate()), mp3.TargetChannels(src.Channels()))
//	buf, _ := audio.ReadAll(ctx, src)
//	err := mp3.Encode(w, buf, 192)
//
// Output is constant bitrate at one of the MPEG-1 Layer III rates listed by
// Bitrates, 320 kbps unless asked otherwise.
package mp3
