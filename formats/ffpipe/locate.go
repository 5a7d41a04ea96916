// SPDX-License-Identifier: EPL-2.0

package ffpipe

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// EnvBinary overrides the ffmpeg lookup.
const EnvBinary = "AUDCONV_FFMPEG"

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

func commonPaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		return []string{
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/opt/local/bin/ffmpeg",
		}
	default:
		return []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/ffmpeg/bin/ffmpeg",
		}
	}
}

// Locate resolves the ffmpeg binary. An explicit path wins, then
// $AUDCONV_FFMPEG, then PATH, then the usual install locations.
func Locate(explicit string) (string, error) {
	for _, p := range []string{explicit, os.Getenv(EnvBinary)} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return p, nil
	}

	if p, err := exec.LookPath(binaryName()); err == nil {
		return p, nil
	}

	for _, p := range commonPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrNotFound
}
