// SPDX-License-Identifier: EPL-2.0

package formats

import "strings"

// MIME types that browsers and the in-process decoders cannot read.
var normalizeMIMETypes = map[string]struct{}{
	"audio/x-ms-wma":         {},
	"audio/wma":              {},
	"audio/x-wma":            {},
	"audio/x-realaudio":      {},
	"audio/x-pn-realaudio":   {},
	"audio/vnd.rn-realaudio": {},
	"audio/x-ape":            {},
	"audio/ape":              {},
	"audio/x-wavpack":        {},
	"audio/wavpack":          {},
	"audio/x-musepack":       {},
	"audio/musepack":         {},
	"audio/ac3":              {},
	"audio/x-ac3":            {},
	"audio/x-dts":            {},
	"audio/dts":              {},
	"audio/x-alac":           {},
	"audio/alac":             {},
	"audio/amr":              {},
	"audio/amr-wb":           {},
	"audio/x-tta":            {},
	"audio/x-shorten":        {},
}

var normalizeExtensions = []string{
	".wma", ".wmv", ".asf",
	".ra", ".rm", ".ram",
	".ape", ".wv", ".tta", ".shn",
	".ac3", ".dts",
	".mpc", ".mpp", ".mp+",
	".alac",
}

// NeedsPreNormalization reports whether the input must be transcoded to WAV
// before the selected backend sees it. Only the declared MIME type and the
// filename suffix are consulted, both case-insensitively. Anything not on the
// deny lists, including unknown types, passes through.
func NeedsPreNormalization(mimeType, filename string) bool {
	if _, ok := normalizeMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))]; ok {
		return true
	}

	name := strings.ToLower(filename)
	for _, ext := range normalizeExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}

	return false
}

// IsAudioMIME accepts audio/* plus the generic types browsers send when
// they cannot tell.
func IsAudioMIME(mimeType string) bool {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}

	switch {
	case m == "", m == DefaultMIMEType:
		return true
	case strings.HasPrefix(m, "audio/"):
		return true
	}

	return false
}
