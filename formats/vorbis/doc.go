// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis through github.com/jfreymuth/oggvorbis.
//
// There is no Vorbis encoder in pure Go; Ogg output is produced by the CLI
// engine.
package vorbis
