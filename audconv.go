// SPDX-License-Identifier: EPL-2.0

package audconv

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/convert"
	"github.com/ik5/audconv/engine"
	"github.com/ik5/audconv/engine/cli"
	"github.com/ik5/audconv/engine/native"
	"github.com/ik5/audconv/formats"
	"github.com/ik5/audconv/formats/ffpipe"
	"github.com/ik5/audconv/formats/wav"
)

// Options wires the default engines. The zero value works when ffmpeg is
// installed; without it MP3, WAV and the decoders built into the native
// engine still work.
type Options struct {
	Logger *slog.Logger

	// FFmpeg is an explicit binary path. Empty means lookup on first use.
	FFmpeg string
	// NativeFFmpeg overrides FFmpeg for the native engine's AAC encoder and
	// fallback decoder.
	NativeFFmpeg string
	// FFmpegURL lets the CLI engine download the binary into CacheDir.
	FFmpegURL string
	CacheDir  string
	// ScratchDir holds the CLI engine's per-conversion directories.
	ScratchDir string

	// Converter defaults to convert.DefaultConfig.
	Converter *convert.Config
}

// Backends holds the default engines.
type Backends struct {
	Native *native.Engine
	CLI    *cli.Engine
}

// NewBackends builds the native and CLI engines. Neither touches ffmpeg
// until a conversion needs it, unless the caller preloads the CLI engine.
func NewBackends(opts Options) *Backends {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	bin := opts.NativeFFmpeg
	if bin == "" {
		bin = opts.FFmpeg
	}
	if bin == "" {
		if p, err := ffpipe.Locate(""); err == nil {
			bin = p
		} else {
			logger.Debug("ffmpeg not found, native engine runs without it", "error", err)
		}
	}

	return &Backends{
		Native: native.New(native.Config{Logger: logger, FFmpeg: bin}),
		CLI: cli.New(cli.Config{
			Logger: logger,
			Loader: cli.Loader{Binary: opts.FFmpeg, URL: opts.FFmpegURL, CacheDir: opts.CacheDir},
			VFS:    cli.DirFS{Root: opts.ScratchDir},
		}),
	}
}

// Transcoders keys the engines by the backend they serve.
func (b *Backends) Transcoders() map[formats.Backend]engine.Transcoder {
	return map[formats.Backend]engine.Transcoder{
		formats.EngineA: b.Native.Transcoder(),
		formats.EngineB: b.CLI.Transcoder(),
	}
}

// Engines builds the native and CLI engines keyed by backend.
func Engines(opts Options) map[formats.Backend]engine.Transcoder {
	return NewBackends(opts).Transcoders()
}

// New returns a Converter with the default engines.
func New(opts Options) (*convert.Converter, error) {
	return NewWith(opts, NewBackends(opts))
}

// NewWith returns a Converter over already built engines.
func NewWith(opts Options, b *Backends) (*convert.Converter, error) {
	cfg := convert.DefaultConfig()
	if opts.Converter != nil {
		cfg = *opts.Converter
	}
	if cfg.Logger == nil {
		cfg.Logger = opts.Logger
	}

	return convert.New(cfg, b.Transcoders())
}

// ConvertFile reads path and converts it to format. The MIME type is guessed
// from the extension.
func ConvertFile(ctx context.Context, c *convert.Converter, path string, format formats.Format, sink convert.ProgressSink) (*convert.Result, error) {
	return ConvertFileWith(ctx, c, path, format, convert.Quality{}, sink)
}

// ConvertFileWith is ConvertFile with per-request quality overrides.
func ConvertFileWith(ctx context.Context, c *convert.Converter, path string, format formats.Format, q convert.Quality, sink convert.ProgressSink) (*convert.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	name := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if !formats.IsAudioMIME(mimeType) {
		mimeType = ""
	}

	return c.Convert(ctx, convert.Request{
		File:    engine.File{Name: name, MIMEType: mimeType, Data: data},
		Format:  format,
		Quality: q,
	}, sink)
}

// ToWAV renders src as a 16-bit PCM WAV file at the given rate and channel
// count. Zero keeps the source's value.
func ToWAV(ctx context.Context, src audio.Source, sampleRate, channels int) ([]byte, error) {
	conformed, err := audio.Conform(src, sampleRate, channels)
	if err != nil {
		return nil, err
	}

	buf, err := audio.ReadAll(ctx, conformed)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	return wav.Encode(buf)
}
