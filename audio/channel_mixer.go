// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMixer remaps an interleaved source to a fixed channel count.
//
// Downmixing to mono averages every input channel. Downmixing to N>1 folds
// input channel c into output channel c%N and averages each fold. Upmixing
// repeats input channels cyclically, so mono becomes dual-mono.
type ChannelMixer struct {
	src      Source
	channels int
	tmp      []float32
}

func NewChannelMixer(src Source, channels int) *ChannelMixer {
	return &ChannelMixer{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 8192),
	}
}

// NewMonoMixer is a ChannelMixer that averages all channels into one.
func NewMonoMixer(src Source) *ChannelMixer {
	return NewChannelMixer(src, 1)
}

func (m *ChannelMixer) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMixer) Channels() int   { return m.channels }
func (m *ChannelMixer) BufSize() int    { return m.src.BufSize() }

func (m *ChannelMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (m *ChannelMixer) ReadSamples(dst []float32) (int, error) {
	if m.channels <= 0 {
		return 0, ErrInvalidChannelCount
	}
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	in := m.src.Channels()
	if in == m.channels {
		return m.src.ReadSamples(dst)
	}

	frames := len(dst) / m.channels
	needed := frames * in
	if cap(m.tmp) < needed {
		m.tmp = make([]float32, needed)
	}
	m.tmp = m.tmp[:needed]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	got := n / in

	switch {
	case m.channels == 1:
		inv := 1 / float32(in)
		for f := range got {
			var sum float32
			for c := range in {
				sum += m.tmp[f*in+c]
			}
			dst[f] = sum * inv
		}
	case in < m.channels:
		for f := range got {
			for c := range m.channels {
				dst[f*m.channels+c] = m.tmp[f*in+c%in]
			}
		}
	default:
		for f := range got {
			frame := dst[f*m.channels : (f+1)*m.channels]
			for c := range frame {
				var sum float32
				var count int
				for src := c; src < in; src += m.channels {
					sum += m.tmp[f*in+src]
					count++
				}
				frame[c] = sum / float32(count)
			}
		}
	}

	return got * m.channels, err
}
