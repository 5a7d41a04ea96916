// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/formats/wav"
)

// WAV encodes a generated signal as a 16-bit WAV file.
func WAV(sampleRate, channels, frames int, waveform Waveform) []byte {
	data, err := wav.Encode(&audio.Buffer{
		SampleRate: sampleRate,
		Channels:   Planar(channels, frames, waveform),
	})
	if err != nil {
		panic(err)
	}
	return data
}

// FakeBinary writes an executable shell script and returns its path. Tests
// that need it are skipped on Windows.
func FakeBinary(t testing.TB, name, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}
