// SPDX-License-Identifier: EPL-2.0

package formats

import (
	"regexp"
	"strings"
)

var (
	lastExtension = regexp.MustCompile(`\.[^/.]+$`)
	unsafeChars   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
)

const maxFilenameLength = 255

// BaseName strips the last extension: "audio.file.wav" → "audio.file".
func BaseName(name string) string {
	return lastExtension.ReplaceAllString(name, "")
}

// OutputFilename names the converted file, e.g. "song.mp3" → "song_converted.wav".
func OutputFilename(name string, f Format) string {
	return BaseName(name) + "_converted." + f.Extension()
}

// IntermediateFilename names the WAV produced by the normalization pass.
func IntermediateFilename(name string) string {
	return BaseName(name) + "." + WAV.Extension()
}

// SanitizeFilename removes traversal sequences and characters that are unsafe
// in a path or a Content-Disposition header, and caps the length at 255 bytes
// while keeping the extension.
func SanitizeFilename(name string) string {
	safe := strings.ReplaceAll(name, "..", "")
	safe = unsafeChars.ReplaceAllString(safe, "_")

	if len(safe) > maxFilenameLength {
		ext := ""
		if i := strings.LastIndexByte(safe, '.'); i >= 0 {
			ext = safe[i+1:]
		}
		if keep := maxFilenameLength - 5 - len(ext); keep > 0 {
			safe = safe[:keep] + "." + ext
		} else {
			safe = safe[:maxFilenameLength]
		}
		safe = strings.ToValidUTF8(safe, "")
	}

	return safe
}
