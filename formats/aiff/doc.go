// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes uncompressed AIFF files through
// github.com/go-audio/aiff.
//
// Samples of 8, 16, 24 and 32 bits are normalized to float32 in [-1, 1].
// AIFF-C compressed variants are rejected; route them through the ffpipe
// decoder instead.
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    ...
//	}
package aiff
