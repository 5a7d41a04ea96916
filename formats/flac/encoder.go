// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"fmt"
	"io"

	mflac "github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/utils"
)

// MIMEType of the encoded stream.
const MIMEType = "audio/flac"

// DefaultCompressionLevel matches the reference encoder's default.
const DefaultCompressionLevel = 5

const (
	maxChannels   = 8
	bitsPerSample = 16
)

// BlockSize is the number of frames per FLAC frame for a compression level.
// Low levels use the CD-friendly 1152, the rest the reference 4096.
func BlockSize(level int) int {
	if level <= 2 {
		return 1152
	}
	return 4096
}

// Encode writes buf as a 16-bit FLAC stream. Level 0 stores subframes
// verbatim, or as constants when a block is silent. Any higher level lets the
// encoder pick the smallest of constant, fixed-order prediction and verbatim
// per subframe, and sets the block size.
func Encode(w io.Writer, buf *audio.Buffer, level int) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	if level < 0 || level > 12 {
		return fmt.Errorf("%w: %d", ErrCompressionLevel, level)
	}

	channels := buf.NumChannels()
	if channels > maxChannels {
		return fmt.Errorf("%w: got %d", ErrTooManyChannels, channels)
	}

	frames := buf.Frames()
	block := BlockSize(level)

	info := &meta.StreamInfo{
		BlockSizeMin:  uint16(block),
		BlockSizeMax:  uint16(block),
		SampleRate:    uint32(buf.SampleRate),
		NChannels:     uint8(channels),
		BitsPerSample: bitsPerSample,
		NSamples:      uint64(frames),
	}

	enc, err := mflac.NewEncoder(w, info)
	if err != nil {
		return fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(level > 0)

	samples := make([][]int32, channels)
	for c := range samples {
		samples[c] = make([]int32, block)
	}

	for num, start := 0, 0; start < frames; num, start = num+1, start+block {
		n := min(block, frames-start)

		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        uint32(buf.SampleRate),
				Channels:          frame.Channels(channels - 1),
				BitsPerSample:     bitsPerSample,
				Num:               uint64(num),
			},
			Subframes: make([]*frame.Subframe, channels),
		}

		for c, ch := range buf.Channels {
			s := samples[c][:n]
			constant := true
			for i, v := range ch[start : start+n] {
				s[i] = int32(utils.Float32ToInt16(v))
				if s[i] != s[0] {
					constant = false
				}
			}

			pred := frame.PredVerbatim
			if constant {
				pred = frame.PredConstant
			}
			f.Subframes[c] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: pred},
				Samples:   s,
				NSamples:  n,
			}
		}

		if err := enc.WriteFrame(f); err != nil {
			return fmt.Errorf("writing flac frame %d: %w", num, err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing flac encoder: %w", err)
	}

	return nil
}
