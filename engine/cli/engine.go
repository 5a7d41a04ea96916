// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ik5/audconv/engine"
	"github.com/ik5/audconv/formats"
)

const (
	DefaultCompressionLevel = 5
	DefaultQuality          = 4.0
)

// Config for the CLI engine. Zero values pick the ExecRunner, a DirFS in the
// system temp dir and a discard logger.
type Config struct {
	Logger *slog.Logger
	Loader Loader
	VFS    VFS
	Runner Runner
}

// ConvertOptions tune a single Convert call.
type ConvertOptions struct {
	// OnProgress receives whole percentages.
	OnProgress func(percent int)
	// OnLog receives every line ffmpeg logs.
	OnLog func(line string)
	// CompressionLevel defaults to 5 for flac.
	CompressionLevel *int
	// Quality is the Vorbis VBR quality, 4 by default.
	Quality *float64
}

// Engine transcodes through the ffmpeg command line. The binary is
// resolved lazily on the first conversion; every conversion then runs in its
// own scratch session.
type Engine struct {
	logger *slog.Logger
	loader Loader
	vfs    VFS
	runner Runner

	mu      sync.Mutex
	loaded  bool
	binary  string
	version string
}

func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	runner := cfg.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	loader := cfg.Loader
	if loader.Runner == nil {
		loader.Runner = runner
	}

	vfs := cfg.VFS
	if vfs == nil {
		vfs = DirFS{}
	}

	return &Engine{
		logger: logger.With("engine", "cli"),
		loader: loader,
		vfs:    vfs,
		runner: runner,
	}
}

// Load resolves and verifies the binary. It does the work once; later calls
// return immediately. A failed load is retried by the next call.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return nil
	}

	e.logger.Info("loading ffmpeg")

	bin, version, err := e.loader.Load(ctx)
	if err != nil {
		e.logger.Error("failed to load ffmpeg", "error", err)
		return err
	}

	e.binary = bin
	e.version = version
	e.loaded = true

	e.logger.Info("ffmpeg loaded", "binary", bin, "version", version)

	return nil
}

func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.loaded
}

// Version is the first line of "ffmpeg -version", empty before Load.
func (e *Engine) Version() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.version
}

// Convert writes file into a scratch session, runs ffmpeg on it and returns
// the output bytes with their MIME type. The session entries are removed
// whatever the outcome.
func (e *Engine) Convert(ctx context.Context, file engine.File, format formats.Format, opts ConvertOptions) ([]byte, string, error) {
	var report func(float64)
	if opts.OnProgress != nil {
		report = func(ratio float64) { opts.OnProgress(int(math.Round(ratio * 100))) }
	}
	return e.convert(ctx, file, format, opts, report)
}

func (e *Engine) convert(ctx context.Context, file engine.File, format formats.Format, opts ConvertOptions, report func(float64)) ([]byte, string, error) {
	if !format.Valid() {
		return nil, "", engine.ErrUnsupportedFormat
	}
	if len(file.Data) == 0 {
		return nil, "", ErrNoInput
	}

	if err := e.Load(ctx); err != nil {
		return nil, "", err
	}

	e.mu.Lock()
	bin := e.binary
	e.mu.Unlock()

	session, err := e.vfs.NewSession()
	if err != nil {
		e.logger.Error("conversion failed", "error", err)
		return nil, "", err
	}

	inputName := "input" + InputExtension(file.Name)
	outputName := "output." + format.Extension()

	defer func() {
		for _, name := range []string{inputName, outputName} {
			if err := session.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
				e.logger.Warn("failed to remove scratch file", "name", name, "error", err)
			}
		}
		if err := session.Close(); err != nil {
			e.logger.Warn("failed to close scratch session", "error", err)
		}
	}()

	if err := session.WriteFile(inputName, file.Data); err != nil {
		e.logger.Error("conversion failed", "error", err)
		return nil, "", err
	}

	args := append([]string{"-hide_banner", "-nostdin", "-y", "-progress", "pipe:1", "-nostats"},
		Args(session.Path(inputName), session.Path(outputName), format, opts)...)

	e.logger.Debug("starting ffmpeg conversion", "args", args)

	tracker := &progressTracker{report: report}
	err = e.runner.Run(ctx, bin, args, tracker.progressLine, func(line string) {
		tracker.logLine(line)
		if opts.OnLog != nil {
			opts.OnLog(line)
		}
	})
	if err != nil {
		e.logger.Error("conversion failed", "error", err)
		return nil, "", err
	}

	data, err := session.ReadFile(outputName)
	if err != nil {
		e.logger.Error("conversion failed", "error", err)
		return nil, "", err
	}

	return data, MIMEType(format), nil
}

// Args builds the ffmpeg arguments between the global flags and the end of
// the command line.
func Args(input, output string, format formats.Format, opts ConvertOptions) []string {
	args := []string{"-i", input}

	switch format {
	case formats.FLAC:
		level := DefaultCompressionLevel
		if opts.CompressionLevel != nil {
			level = *opts.CompressionLevel
		}
		args = append(args, "-c:a", "flac", "-compression_level", strconv.Itoa(level))
	case formats.OGG:
		q := DefaultQuality
		if opts.Quality != nil {
			q = *opts.Quality
		}
		args = append(args, "-c:a", "libvorbis", "-q:a", strconv.FormatFloat(q, 'g', -1, 64))
	}

	return append(args, output)
}

// InputExtension is the last dot-separated part of name with its dot, or
// "" when the name has none.
func InputExtension(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Ext(filepath.Base(name))
}

// MIMEType is audio/flac for FLAC and audio/ogg for everything else.
func MIMEType(format formats.Format) string {
	if format == formats.FLAC {
		return "audio/flac"
	}
	return "audio/ogg"
}
