// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ik5/audconv/formats/ffpipe"
)

// Loader resolves the ffmpeg binary for the engine.
type Loader struct {
	// Binary is an explicit path. It wins over everything else.
	Binary string
	// URL, when set, is fetched into CacheDir once and reused afterwards.
	URL      string
	CacheDir string
	Client   *http.Client
	Runner   Runner
}

// Load returns the path of a verified binary and its version line.
func (l Loader) Load(ctx context.Context) (string, string, error) {
	bin, err := l.resolve(ctx)
	if err != nil {
		return "", "", err
	}

	version, err := l.verify(ctx, bin)
	if err != nil {
		return "", "", err
	}

	return bin, version, nil
}

func (l Loader) resolve(ctx context.Context) (string, error) {
	if l.Binary == "" && l.URL != "" {
		return l.download(ctx)
	}

	bin, err := ffpipe.Locate(l.Binary)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoBinary, err)
	}
	return bin, nil
}

func (l Loader) download(ctx context.Context) (string, error) {
	dir := l.CacheDir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "audconv")
	}

	name := "ffmpeg"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	dst := filepath.Join(dir, name)

	if fi, err := os.Stat(dst); err == nil && fi.Size() > 0 {
		return dst, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}

	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned status %d", ErrDownload, l.URL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, name+".*.part")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}

	return dst, nil
}

func (l Loader) verify(ctx context.Context, bin string) (string, error) {
	runner := l.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	var first string
	err := runner.Run(ctx, bin, []string{"-hide_banner", "-version"}, func(line string) {
		if first == "" {
			first = strings.TrimSpace(line)
		}
	}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrVerify, err)
	}
	if !strings.HasPrefix(first, "ffmpeg version") {
		return "", fmt.Errorf("%w: unexpected version output %q", ErrVerify, first)
	}

	return first, nil
}
