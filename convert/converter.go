// SPDX-License-Identifier: EPL-2.0

package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/audconv/engine"
	"github.com/ik5/audconv/formats"
	"github.com/ik5/audconv/formats/mp3"
	"github.com/ik5/audconv/formats/wav"
)

// Converter runs conversions through the engine selected for each target
// format. It keeps no per-conversion state, so Convert may be called
// concurrently.
type Converter struct {
	cfg     Config
	logger  *slog.Logger
	engines map[formats.Backend]engine.Transcoder
}

// New wires the engines. The normalization pass always runs on
// formats.EngineA.
func New(cfg Config, engines map[formats.Backend]engine.Transcoder) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	return &Converter{
		cfg:     cfg,
		logger:  cfg.Logger,
		engines: engines,
	}, nil
}

// Backend reports the backend a format is routed to.
func (c *Converter) Backend(f formats.Format) formats.Backend {
	return c.cfg.Routing.Select(f)
}

// run carries the state of one Convert call.
type run struct {
	id      string
	req     Request
	state   State
	backend formats.Backend
	sink    *guardedSink
	log     *slog.Logger
}

func (r *run) enter(s State) {
	r.log.Debug("conversion state", "from", r.state, "to", s)
	r.state = s
}

// Convert validates req, normalizes the input when its container needs it,
// then encodes it into req.Format. sink may be nil.
//
// Validation failures match ErrValidation. Engine B failures are returned as
// they are; every other failure is a *ConversionError.
func (c *Converter) Convert(ctx context.Context, req Request, sink ProgressSink) (res *Result, err error) {
	r := &run{
		id:      uuid.NewString(),
		req:     req,
		backend: c.cfg.Routing.Select(req.Format),
		sink:    &guardedSink{fn: sink},
	}
	r.log = c.logger.With("id", r.id, "file", req.File.Name, "format", req.Format, "backend", r.backend)
	defer r.sink.close()

	start := time.Now()
	c.cfg.Metrics.Started(req.Format, r.backend)

	outcome := Outcome{Format: req.Format, Backend: r.backend, InputBytes: len(req.File.Data)}
	defer func() {
		outcome.Elapsed = time.Since(start)
		if err != nil {
			outcome.FailedIn = r.state
			r.enter(Failed)
			r.log.Error("conversion failed", "error", err, "elapsed", outcome.Elapsed)
		} else {
			outcome.OutputBytes = len(res.Data)
			outcome.Normalized = res.Normalized
			r.enter(Succeeded)
			r.log.Info("conversion succeeded", "bytes", len(res.Data), "elapsed", outcome.Elapsed)
		}
		outcome.State = r.state
		c.cfg.Metrics.Finished(outcome)
	}()

	r.enter(Preparing)
	if err := c.validate(req); err != nil {
		return nil, err
	}
	r.sink.emit(Preparing, 0, MessagePreparing)

	input := req.File
	var tags engine.Tags
	normalized := false

	if formats.NeedsPreNormalization(input.MIMEType, input.Name) {
		r.enter(Normalizing)
		r.sink.emit(Normalizing, 10, MessageLoading)

		input, tags, err = c.normalize(ctx, r)
		if err != nil {
			return nil, newConversionError(Normalizing, err)
		}
		normalized = true
	}

	r.enter(Configuring)
	r.sink.emit(Configuring, 20, MessageInitializing)

	eng, ok := c.engines[r.backend]
	if !ok || eng == nil {
		return nil, newConversionError(Configuring, fmt.Errorf("%w %s", ErrNoEngine, r.backend))
	}

	conv, err := eng.Init(ctx, engine.Job{Input: input, Format: req.Format, Options: c.options(req)})
	if err != nil {
		return nil, c.engineError(r, err)
	}
	defer conv.Close()

	r.enter(Executing)
	r.sink.emit(Executing, 30, MessageConverting)

	err = conv.Execute(ctx, func(ratio float64) {
		r.sink.emit(Executing, Percent(ratio), MessageEngine)
	})
	if err != nil {
		return nil, c.engineError(r, err)
	}

	r.enter(Finalizing)

	data, _, err := conv.Output()
	if err != nil || len(data) == 0 {
		cause := ErrMissingOutput
		if err != nil && !errors.Is(err, engine.ErrNoOutput) {
			cause = fmt.Errorf("%w: %w", ErrMissingOutput, err)
		}
		return nil, newConversionError(Finalizing, cause)
	}

	if t, ok := conv.(engine.Tagged); ok && !normalized {
		tags = t.Tags()
	}

	r.sink.emit(Finalizing, 100, MessageComplete)

	return &Result{
		ID:         r.id,
		Data:       data,
		MIMEType:   req.Format.MIMEType(),
		Filename:   formats.OutputFilename(req.File.Name, req.Format),
		Backend:    r.backend,
		Normalized: normalized,
		Tags:       tags,
	}, nil
}

// engineError shapes a failure of the selected engine.
func (c *Converter) engineError(r *run, err error) error {
	if r.backend == formats.EngineB {
		return err
	}
	return newConversionError(r.state, err)
}

func (c *Converter) validate(req Request) error {
	if !req.Format.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, formats.ErrUnknownFormat, req.Format)
	}
	if len(req.File.Data) == 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyInput)
	}
	if int64(len(req.File.Data)) > c.cfg.MaxInputSize {
		return fmt.Errorf("%w: %w: %d bytes, limit %d", ErrValidation, ErrInputTooLarge, len(req.File.Data), c.cfg.MaxInputSize)
	}
	if !formats.IsAudioMIME(req.File.MIMEType) {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrUnsupportedType, req.File.MIMEType)
	}

	q := req.Quality
	if q.Bitrate < 0 || q.Bitrate > maxBitrate {
		return fmt.Errorf("%w: %w: bitrate %d", ErrValidation, ErrQuality, q.Bitrate)
	}
	if req.Format == formats.MP3 && q.Bitrate != 0 && mp3.BitrateIndex(q.Bitrate) < 0 {
		return fmt.Errorf("%w: %w: mp3 bitrate %d kbps, want one of %v", ErrValidation, ErrQuality, q.Bitrate, mp3.Bitrates())
	}
	if q.CompressionLevel != nil && (*q.CompressionLevel < 0 || *q.CompressionLevel > maxCompressionLevel) {
		return fmt.Errorf("%w: %w: compression level %d", ErrValidation, ErrQuality, *q.CompressionLevel)
	}

	return nil
}

// options maps the request quality onto engine options. Bitrate applies to
// lossy formats, compression to FLAC and the Vorbis quality to Ogg.
func (c *Converter) options(req Request) engine.Options {
	var opts engine.Options

	switch req.Format {
	case formats.MP3:
		opts.Bitrate = kbps(req.Quality.Bitrate, c.cfg.MP3Bitrate)
	case formats.AAC, formats.M4A:
		opts.Bitrate = kbps(req.Quality.Bitrate, c.cfg.AACBitrate)
	case formats.FLAC:
		level := c.cfg.CompressionLevel
		if req.Quality.CompressionLevel != nil {
			level = *req.Quality.CompressionLevel
		}
		opts.CompressionLevel = &level
	case formats.OGG:
		q := c.cfg.OggQuality
		opts.Quality = &q
	}

	return opts
}

func kbps(requested, fallback int) int {
	if requested > 0 {
		return requested * 1000
	}
	return fallback * 1000
}

// normalize re-encodes the input as 16-bit 44.1 kHz stereo WAV on engine A.
// Its progress is mapped into the 10..20 band.
func (c *Converter) normalize(ctx context.Context, r *run) (engine.File, engine.Tags, error) {
	eng, ok := c.engines[formats.EngineA]
	if !ok || eng == nil {
		return engine.File{}, engine.Tags{}, fmt.Errorf("%w %s", ErrNoEngine, formats.EngineA)
	}

	r.log.Info("normalizing input before conversion", "mime", r.req.File.MIMEType)

	conv, err := eng.Init(ctx, engine.Job{
		Input:  r.req.File,
		Format: formats.WAV,
		Options: engine.Options{
			ForceTranscode: true,
			Codec:          normalizeCodec,
			SampleRate:     normalizeSampleRate,
			Channels:       normalizeChannels,
		},
	})
	if err != nil {
		return engine.File{}, engine.Tags{}, err
	}
	defer conv.Close()

	err = conv.Execute(ctx, func(ratio float64) {
		r.sink.emit(Normalizing, 10+Percent(ratio)/10, MessageLoading)
	})
	if err != nil {
		return engine.File{}, engine.Tags{}, err
	}

	data, _, err := conv.Output()
	if err != nil || len(data) == 0 {
		return engine.File{}, engine.Tags{}, ErrMissingOutput
	}

	var tags engine.Tags
	if t, ok := conv.(engine.Tagged); ok {
		tags = t.Tags()
	}

	return engine.File{
		Name:     formats.IntermediateFilename(r.req.File.Name),
		MIMEType: wav.MIMEType,
		Data:     data,
	}, tags, nil
}
