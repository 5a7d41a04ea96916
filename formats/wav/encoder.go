// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/utils"
)

// MIMEType is reported for every WAV produced by this package.
const MIMEType = "audio/wav"

// frames quantized per Write call
const chunkFrames = 8192

// Encode serializes buf as a 16-bit PCM WAV file. The buffer is validated
// first so malformed input never produces a partial file.
func Encode(buf *audio.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out := bytes.NewBuffer(make([]byte, 0, HeaderSize+buf.Frames()*buf.NumChannels()*2))
	if err := writeBuffer(out, buf); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// WriteBuffer streams the WAV encoding of buf to w.
func WriteBuffer(w io.Writer, buf *audio.Buffer) error {
	if err := buf.Validate(); err != nil {
		return err
	}

	return writeBuffer(w, buf)
}

func writeBuffer(w io.Writer, buf *audio.Buffer) error {
	channels := buf.NumChannels()
	frames := buf.Frames()

	if _, err := w.Write(NewHeader(buf.SampleRate, channels, frames).Bytes()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	// Planar input is interleaved chunk by chunk: frame f, channel c goes to
	// sample f*channels+c.
	chunk := make([]byte, min(frames, chunkFrames)*channels*2)
	for start := 0; start < frames; start += chunkFrames {
		end := min(start+chunkFrames, frames)
		b := chunk[:(end-start)*channels*2]

		for f := start; f < end; f++ {
			base := (f - start) * channels * 2
			for c, ch := range buf.Channels {
				binary.LittleEndian.PutUint16(b[base+c*2:], uint16(utils.Float32ToInt16(ch[f])))
			}
		}

		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("writing samples: %w", err)
		}
	}

	return nil
}

// WritePCM16 writes already quantized interleaved samples.
func WritePCM16(w io.Writer, sampleRate, channels int, samples []int16) error {
	if channels <= 0 {
		return audio.ErrNoChannels
	}
	if sampleRate <= 0 {
		return audio.ErrInvalidSampleRate
	}
	if len(samples)%channels != 0 {
		return audio.ErrInvalidDstSize
	}

	if _, err := w.Write(NewHeader(sampleRate, channels, len(samples)/channels).Bytes()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	buf := make([]byte, min(len(samples), chunkFrames)*2)
	for i := 0; i < len(samples); i += chunkFrames {
		end := min(i+chunkFrames, len(samples))
		b := buf[:(end-i)*2]
		for j, s := range samples[i:end] {
			binary.LittleEndian.PutUint16(b[j*2:], uint16(s))
		}

		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("writing samples: %w", err)
		}
	}

	return nil
}
