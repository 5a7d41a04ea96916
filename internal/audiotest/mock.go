// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds generators and fakes shared by the package tests.
package audiotest

import (
	"io"
	"math"
)

// Waveform returns the value of one sample for a frame and channel.
type Waveform func(frame int, channel int) float32

func Silence(int, int) float32 { return 0 }

func Constant(v float32) Waveform {
	return func(int, int) float32 { return v }
}

func Sine(sampleRate int, frequency float64) Waveform {
	return func(frame int, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	}
}

// Ramp produces frame-dependent values distinct per channel, useful to
// verify interleaving.
func Ramp(frame int, channel int) float32 {
	return float32((frame%100)-50)/100 + float32(channel)/1000
}

// MockSource generates interleaved audio on demand.
// It implements the audio.Source interface (without importing it to avoid cycles).
type MockSource struct {
	sampleRate  int
	channels    int
	totalFrames int
	generated   int
	waveform    Waveform

	// MaxFrames caps frames returned per read, zero means unlimited.
	MaxFrames int
	// Err, when set, is returned once FailAfter frames were produced.
	Err       error
	FailAfter int
	Closed    bool
}

func NewMockSource(sampleRate, channels, totalFrames int, waveform Waveform) *MockSource {
	return &MockSource{
		sampleRate:  sampleRate,
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

func NewSilentSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, Silence)
}

func NewSineSource(sampleRate, channels, totalFrames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, Sine(sampleRate, frequency))
}

func NewConstantSource(sampleRate, channels, totalFrames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, Constant(value))
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.Closed = true
	return nil
}

// Reset rewinds the generator.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.Err != nil && m.generated >= m.FailAfter {
		return 0, m.Err
	}
	if m.generated >= m.totalFrames {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.totalFrames-m.generated)
	if m.MaxFrames > 0 {
		frames = min(frames, m.MaxFrames)
	}
	if m.Err != nil {
		frames = min(frames, m.FailAfter-m.generated)
	}

	for f := range frames {
		for c := range m.channels {
			dst[f*m.channels+c] = m.waveform(m.generated+f, c)
		}
	}
	m.generated += frames

	if m.generated >= m.totalFrames {
		return frames * m.channels, io.EOF
	}

	return frames * m.channels, nil
}

// Planar builds per-channel sample slices from a waveform.
func Planar(channels, frames int, waveform Waveform) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
		for f := range out[c] {
			out[c][f] = waveform(f, c)
		}
	}

	return out
}
