// SPDX-License-Identifier: EPL-2.0

// Package cli is the ffmpeg command line engine. It handles the formats whose
// encoders are not available in process, Ogg Vorbis and FLAC at the higher
// compression levels, by writing the input into a scratch session, running
// ffmpeg on it and reading the output back.
//
// The binary is resolved on first use by a Loader, either from a download URL
// or from the local installation, and checked with "ffmpeg -version".
package cli
