// SPDX-License-Identifier: EPL-2.0

package formats

import (
	"fmt"
	"strings"
)

// Format identifies a conversion target.
type Format string

const (
	MP3  Format = "mp3"
	WAV  Format = "wav"
	OGG  Format = "ogg"
	FLAC Format = "flac"
	AAC  Format = "aac"
	M4A  Format = "m4a"
)

// DefaultMIMEType is reported for formats outside the table.
const DefaultMIMEType = "application/octet-stream"

var mimeTypes = map[Format]string{
	MP3:  "audio/mpeg",
	WAV:  "audio/wav",
	OGG:  "audio/ogg",
	FLAC: "audio/flac",
	AAC:  "audio/aac",
	M4A:  "audio/mp4",
}

// All returns the supported formats in display order.
func All() []Format {
	return []Format{MP3, WAV, OGG, FLAC, AAC, M4A}
}

// ParseFormat accepts an identifier such as "MP3" or ".flac".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}

	return f, nil
}

func (f Format) Valid() bool {
	_, ok := mimeTypes[f]
	return ok
}

func (f Format) String() string { return string(f) }

// MIMEType of the container produced for f.
func (f Format) MIMEType() string {
	if m, ok := mimeTypes[f]; ok {
		return m
	}
	return DefaultMIMEType
}

// Extension is the file extension without the dot.
func (f Format) Extension() string { return string(f) }

// Lossy reports whether a bitrate applies to f.
func (f Format) Lossy() bool {
	switch f {
	case MP3, OGG, AAC, M4A:
		return true
	}
	return false
}

// Lossless reports whether a compression level applies to f.
func (f Format) Lossless() bool { return f == FLAC }
