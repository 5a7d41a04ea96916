// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"
	"slices"

	shine "github.com/braheezy/shine-mp3/pkg/mp3"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/utils"
)

// MIMEType of the encoded stream.
const MIMEType = "audio/mpeg"

// MPEG-1 Layer III sample rates; anything else is resampled first.
var supportedRates = []int{32000, 44100, 48000}

// DefaultBitrate in kbps, used when Encode is given zero.
const DefaultBitrate = 320

// MPEG-1 Layer III bitrates in kbps, by frame header index. Index 0 is the
// free format, which the encoder does not produce.
var bitrateIndex = []int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}

// Bitrates returns the bitrates Encode accepts, in kbps.
func Bitrates() []int {
	return slices.Clone(bitrateIndex[1:])
}

// BitrateIndex returns the frame header index of kbps, or -1.
func BitrateIndex(kbps int) int {
	if kbps <= 0 {
		return -1
	}
	return slices.Index(bitrateIndex, kbps)
}

// TargetRate returns the rate the encoder will run at for a source rate.
func TargetRate(rate int) int {
	if slices.Contains(supportedRates, rate) {
		return rate
	}
	if rate > 44100 {
		return 48000
	}
	return 44100
}

// TargetChannels caps the layout at stereo.
func TargetChannels(channels int) int {
	return min(max(channels, 1), 2)
}

// Encode writes buf as a constant bitrate MP3 stream using the shine
// fixed-point encoder. kbps must be one of Bitrates; zero selects
// DefaultBitrate. buf must already be at a supported rate with one or two
// channels; see TargetRate and TargetChannels.
func Encode(w io.Writer, buf *audio.Buffer, kbps int) error {
	if kbps == 0 {
		kbps = DefaultBitrate
	}
	index := BitrateIndex(kbps)
	if index < 0 {
		return fmt.Errorf("%w: %d kbps", ErrUnsupportedBitrate, kbps)
	}

	if err := buf.Validate(); err != nil {
		return err
	}
	if buf.NumChannels() > 2 {
		return fmt.Errorf("%w: got %d", ErrTooManyChannels, buf.NumChannels())
	}
	if TargetRate(buf.SampleRate) != buf.SampleRate {
		return fmt.Errorf("%w: %d Hz", audio.ErrInvalidSampleRate, buf.SampleRate)
	}

	interleaved := buf.Interleave()
	pcm := make([]int16, len(interleaved))
	for i, v := range interleaved {
		pcm[i] = utils.Float32ToInt16(v)
	}

	enc := shine.NewEncoder(buf.SampleRate, buf.NumChannels())
	setBitrate(enc, kbps, index)
	if err := enc.Write(w, pcm); err != nil {
		return fmt.Errorf("encoding mp3: %w", err)
	}

	return nil
}

// setBitrate replaces the encoder's built-in 128 kbps, deriving the frame
// slot counts the same way shine.NewEncoder does.
func setBitrate(enc *shine.Encoder, kbps, index int) {
	m := &enc.Mpeg
	m.Bitrate = int64(kbps)
	m.BitrateIndex = int64(index)

	samples := float64(m.GranulesPerFrame) * shine.GRANULE_SIZE
	slots := samples / float64(enc.Wave.SampleRate) * (float64(kbps) * 1000 / float64(m.BitsPerSlot))

	m.WholeSlotsPerFrame = int64(slots)
	m.FracSlotsPerFrame = slots - float64(m.WholeSlotsPerFrame)
	m.Slot_lag = -m.FracSlotsPerFrame
	if m.FracSlotsPerFrame == 0 {
		m.Padding = 0
	}
}
