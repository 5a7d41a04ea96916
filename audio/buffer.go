// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Buffer is fully decoded planar audio: one slice of normalized samples per
// channel, all of equal length.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	b := &Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for c := range b.Channels {
		b.Channels[c] = make([]float32, frames)
	}

	return b
}

func (b *Buffer) NumChannels() int { return len(b.Channels) }

// Frames is the per-channel sample count.
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Validate checks the buffer invariants.
func (b *Buffer) Validate() error {
	if b == nil || len(b.Channels) == 0 {
		return ErrNoChannels
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, b.SampleRate)
	}

	frames := len(b.Channels[0])
	for c, ch := range b.Channels[1:] {
		if len(ch) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, channel 0 has %d",
				ErrChannelLengthMismatch, c+1, len(ch), frames)
		}
	}

	if frames == 0 {
		return ErrEmptyBuffer
	}

	return nil
}

// Interleave returns the samples in frame-major order: frame f, channel c
// lands at f*channels+c.
func (b *Buffer) Interleave() []float32 {
	channels := len(b.Channels)
	frames := b.Frames()
	out := make([]float32, frames*channels)

	for c, ch := range b.Channels {
		for f := 0; f < frames; f++ {
			out[f*channels+c] = ch[f]
		}
	}

	return out
}

// Source streams the buffer as an interleaved Source.
func (b *Buffer) Source() Source {
	return &bufferSource{buf: b}
}

type bufferSource struct {
	buf   *Buffer
	frame int
}

func (s *bufferSource) SampleRate() int { return s.buf.SampleRate }
func (s *bufferSource) Channels() int   { return len(s.buf.Channels) }
func (s *bufferSource) BufSize() int    { return 4096 }
func (s *bufferSource) Close() error    { return nil }

func (s *bufferSource) ReadSamples(dst []float32) (int, error) {
	channels := len(s.buf.Channels)
	if channels == 0 {
		return 0, io.EOF
	}
	if len(dst)%channels != 0 {
		return 0, ErrInvalidDstSize
	}

	total := s.buf.Frames()
	if s.frame >= total {
		return 0, io.EOF
	}

	frames := min(len(dst)/channels, total-s.frame)
	for f := range frames {
		for c, ch := range s.buf.Channels {
			dst[f*channels+c] = ch[s.frame+f]
		}
	}
	s.frame += frames

	if s.frame >= total {
		return frames * channels, io.EOF
	}

	return frames * channels, nil
}

const maxEmptyReads = 100

// ReadAll drains src into a planar Buffer. The context is checked between
// reads so a long decode can be abandoned.
func ReadAll(ctx context.Context, src Source) (*Buffer, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrNoChannels
	}

	size := src.BufSize()
	if size < channels {
		size = 4096
	}
	size -= size % channels
	chunk := make([]float32, size)

	out := &Buffer{
		SampleRate: src.SampleRate(),
		Channels:   make([][]float32, channels),
	}

	empty := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := src.ReadSamples(chunk)
		if n == 0 && err == nil {
			empty++
			if empty > maxEmptyReads {
				return nil, io.ErrNoProgress
			}
			continue
		}
		empty = 0

		frames := n / channels
		for f := range frames {
			for c := range channels {
				out.Channels[c] = append(out.Channels[c], chunk[f*channels+c])
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}
	}

	// Some decoders only learn the rate after the first frame.
	if out.SampleRate <= 0 {
		out.SampleRate = src.SampleRate()
	}

	return out, nil
}
