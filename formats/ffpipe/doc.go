// SPDX-License-Identifier: EPL-2.0

// Package ffpipe runs ffmpeg as a filter: input on stdin, output on stdout,
// nothing on disk.
//
// Decoder covers containers without a pure Go decoder (WMA, APE, WavPack and
// the rest of the normalization list) and Encoder produces AAC in ADTS or
// fragmented MP4. Both need an ffmpeg binary, found with Locate.
package ffpipe
