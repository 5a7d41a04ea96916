// SPDX-License-Identifier: EPL-2.0

package native

import (
	"context"
	"log/slog"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/engine"
	"github.com/ik5/audconv/formats/ffpipe"
	"github.com/ik5/audconv/formats/flac"
)

// Config for the native engine.
type Config struct {
	Logger *slog.Logger
	// FFmpeg is the binary used for AAC output and for containers without a
	// pure Go decoder. Empty disables both.
	FFmpeg string
}

// Engine is the in-process container transcoding engine. It holds no
// per-conversion state and is safe for concurrent use.
type Engine struct {
	decoders *audio.Registry
	ffmpeg   ffpipe.Pipe
	logger   *slog.Logger
}

func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("engine", "native")

	return &Engine{
		decoders: NewDecoderRegistry(),
		ffmpeg:   ffpipe.Pipe{Binary: cfg.FFmpeg, Logger: logger},
		logger:   logger,
	}
}

// Decoders exposes the registry so callers can add containers.
func (e *Engine) Decoders() *audio.Registry { return e.decoders }

// HasFFmpeg reports whether AAC output and the ffmpeg decoder are usable.
func (e *Engine) HasFFmpeg() bool { return e.ffmpeg.Binary != "" }

// Transcoder adapts the engine to engine.Transcoder.
func (e *Engine) Transcoder() engine.Transcoder {
	return transcoder{e: e}
}

type transcoder struct {
	e *Engine
}

func (t transcoder) Init(ctx context.Context, job engine.Job) (engine.Conversion, error) {
	in, err := NewInput(job.Input)
	if err != nil {
		return nil, err
	}

	level := flac.DefaultCompressionLevel
	if job.Options.CompressionLevel != nil {
		level = *job.Options.CompressionLevel
	}

	conv, err := t.e.Init(ctx, in, NewBufferTarget(), AudioOptions{
		Format:           job.Format,
		ForceTranscode:   job.Options.ForceTranscode,
		Codec:            job.Options.Codec,
		SampleRate:       job.Options.SampleRate,
		Channels:         job.Options.Channels,
		Bitrate:          job.Options.Bitrate,
		CompressionLevel: level,
	})
	if err != nil {
		return nil, err
	}

	return &jobConversion{conv: conv}, nil
}

type jobConversion struct {
	conv *Conversion
}

func (j *jobConversion) Execute(ctx context.Context, fn engine.ProgressFunc) error {
	return j.conv.Execute(ctx, fn)
}

func (j *jobConversion) Output() ([]byte, string, error) {
	data := j.conv.Target().Buffer()
	if len(data) == 0 {
		return nil, "", engine.ErrNoOutput
	}
	return data, j.conv.Target().MIMEType(), nil
}

func (j *jobConversion) Tags() engine.Tags {
	return j.conv.Input().Tags()
}

func (j *jobConversion) Close() error { return nil }
