// SPDX-License-Identifier: EPL-2.0

// Package flac decodes and encodes FLAC with github.com/mewkiz/flac.
//
// The encoder writes 16-bit samples without prediction. Output is larger
// than what libFLAC produces but bit-exact and readable by any decoder. The
// CLI engine remains the default route for FLAC; this encoder serves the
// native engine when the routing table sends FLAC there.
package flac
