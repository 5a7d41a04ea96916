// SPDX-License-Identifier: EPL-2.0

package native

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/engine"
	"github.com/ik5/audconv/formats/ffpipe"
)

// share of the progress range spent decoding; encoding takes the rest
const decodeShare = 0.9

// Conversion is an initialized job: input, target and options bound
// together. Execute may run once.
type Conversion struct {
	in       *Input
	target   *BufferTarget
	opts     AudioOptions
	encoder  Encoder
	decoders *audio.Registry
	ffmpeg   ffpipe.Pipe
	logger   *slog.Logger

	mu       sync.Mutex
	executed bool
}

// Init validates the options and binds the job. Nothing is decoded yet.
func (e *Engine) Init(ctx context.Context, in *Input, target *BufferTarget, opts AudioOptions) (*Conversion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, ErrNoInput
	}
	if target == nil {
		target = NewBufferTarget()
	}

	codec := opts.codec()
	enc, ok := lookupEncoder(codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q for %s", ErrUnsupportedCodec, codec, opts.Format)
	}

	return &Conversion{
		in:       in,
		target:   target,
		opts:     opts,
		encoder:  enc,
		decoders: e.decoders,
		ffmpeg:   e.ffmpeg,
		logger:   e.logger,
	}, nil
}

func (c *Conversion) Target() *BufferTarget { return c.target }
func (c *Conversion) Input() *Input         { return c.in }

// Execute decodes, conforms and encodes into the target. fn receives the
// share of input consumed while decoding, scaled to [0, 0.9], then 1.
func (c *Conversion) Execute(ctx context.Context, fn engine.ProgressFunc) error {
	c.mu.Lock()
	if c.executed {
		c.mu.Unlock()
		return ErrAlreadyExecuted
	}
	c.executed = true
	c.mu.Unlock()

	if fn == nil {
		fn = func(float64) {}
	}

	log := c.logger.With("container", c.in.Container(), "format", c.opts.Format, "codec", c.opts.codec())

	if c.opts.passthrough(c.in) {
		log.Debug("input already in target format, copying")
		fn(1)
		c.target.set(bytes.Clone(c.in.file.Data), c.opts.Format.MIMEType())
		return nil
	}

	fn(0)

	src, r, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	rate, channels := src.SampleRate(), src.Channels()
	if c.opts.SampleRate > 0 {
		rate = c.opts.SampleRate
	}
	if c.opts.Channels > 0 {
		channels = c.opts.Channels
	}
	rate, channels = c.encoder.Layout(rate, channels)

	conformed, err := audio.Conform(src, rate, channels)
	if err != nil {
		return fmt.Errorf("conforming audio: %w", err)
	}

	size := float64(c.in.Size())
	tracked := &progressSource{Source: conformed, report: func() {
		fn(decodeShare * (size - float64(r.Len())) / size)
	}}

	buf, err := audio.ReadAll(ctx, tracked)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", c.in.Container(), err)
	}
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("decoded audio: %w", err)
	}
	fn(decodeShare)

	log.Debug("decoded", "sample_rate", buf.SampleRate, "channels", buf.NumChannels(), "frames", buf.Frames())

	var out bytes.Buffer
	err = c.encoder.Encode(ctx, &out, buf, EncodeOptions{
		Format:           c.opts.Format,
		Bitrate:          c.opts.Bitrate,
		CompressionLevel: c.opts.CompressionLevel,
		FFmpeg:           c.ffmpeg,
	})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", c.opts.codec(), err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.target.set(out.Bytes(), c.opts.Format.MIMEType())
	fn(1)

	return nil
}

// open picks a decoder for the input. When the registered decoder rejects
// the stream, or there is none, ffmpeg gets a try if it is available.
func (c *Conversion) open(ctx context.Context) (audio.Source, *bytes.Reader, error) {
	var firstErr error

	if dec, ok := c.decoders.Get(c.in.Container()); ok {
		r := c.in.reader()
		src, err := decode(ctx, dec, r)
		if err == nil {
			return src, r, nil
		}
		firstErr = err
		c.logger.Debug("decoder rejected input", "container", c.in.Container(), "error", err)
	}

	if c.ffmpeg.Binary == "" {
		if firstErr != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrUndecodable, firstErr)
		}
		return nil, nil, fmt.Errorf("%w: unknown container and %w", ErrUndecodable, ErrFFmpegUnavailable)
	}

	r := c.in.reader()
	src, err := decode(ctx, ffpipe.Decoder{Pipe: c.ffmpeg}, r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUndecodable, errors.Join(firstErr, err))
	}

	return src, r, nil
}

func decode(ctx context.Context, dec audio.Decoder, r io.Reader) (audio.Source, error) {
	if cd, ok := dec.(contextDecoder); ok {
		return cd.DecodeContext(ctx, r)
	}
	return dec.Decode(r)
}

// progressSource reports after every read.
type progressSource struct {
	audio.Source
	report func()
}

func (p *progressSource) ReadSamples(dst []float32) (int, error) {
	n, err := p.Source.ReadSamples(dst)
	p.report()
	return n, err
}
