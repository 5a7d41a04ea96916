// SPDX-License-Identifier: EPL-2.0

package ffpipe

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/utils"
)

// Decoder turns any container ffmpeg understands into 16-bit PCM at a fixed
// rate and layout. It backs inputs the pure Go decoders cannot read.
type Decoder struct {
	Pipe       Pipe
	SampleRate int
	Channels   int
}

// DecodeArgs reads from stdin and writes raw s16le to stdout.
func DecodeArgs(sampleRate, channels int) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"pipe:1",
	}
}

func (d Decoder) Decode(r io.Reader) (audio.Source, error) {
	return d.DecodeContext(context.Background(), r)
}

func (d Decoder) DecodeContext(ctx context.Context, r io.Reader) (audio.Source, error) {
	rate, channels := d.SampleRate, d.Channels
	if rate <= 0 {
		rate = 44100
	}
	if channels <= 0 {
		channels = 2
	}

	out, err := d.Pipe.Run(ctx, DecodeArgs(rate, channels), r)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	frames := len(out) / (2 * channels)
	if frames == 0 {
		return nil, ErrNoOutput
	}

	buf := audio.NewBuffer(rate, channels, frames)
	for f := range frames {
		for c := range channels {
			i := (f*channels + c) * 2
			buf.Channels[c][f] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(out[i:])))
		}
	}

	return buf.Source(), nil
}
