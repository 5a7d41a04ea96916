// SPDX-License-Identifier: EPL-2.0

// Package wav encodes decoded audio to 16-bit PCM WAV and decodes integer
// PCM WAV files.
//
// # Encoding
//
// Encode turns a planar audio.Buffer into a complete file:
//
//	data, err := wav.Encode(buf)
//
// The output always carries the canonical 44-byte header (RIFF, a 16-byte
// fmt chunk, then data) followed by interleaved little-endian samples.
// Samples are clamped to [-1, 1]; negative values scale by 32768 and
// non-negative values by 32767, truncated toward zero. The buffer is
// validated before anything is written, so malformed input fails with one of
// the audio validation errors instead of producing a corrupt file. Encoding
// is deterministic.
//
// WriteBuffer streams the same bytes to an io.Writer and WritePCM16 writes
// samples that are already quantized.
//
// # Decoding
//
// Decoder reads 8, 16, 24 and 32-bit integer PCM through
// github.com/go-audio/wav, including files with extra chunks:
//
//	src, err := wav.Decoder{}.Decode(file)
//
// ParseHeader only understands the canonical layout and is meant for
// checking files produced by Encode.
package wav
