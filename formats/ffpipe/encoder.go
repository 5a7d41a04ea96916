// SPDX-License-Identifier: EPL-2.0

package ffpipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/formats/wav"
)

// Container selects the muxer for AAC output.
type Container string

const (
	// ADTS is a raw AAC elementary stream (.aac).
	ADTS Container = "adts"
	// MP4 is a fragmented MPEG-4 file (.m4a) that can be written to a pipe.
	MP4 Container = "mp4"
)

// Encoder produces AAC through ffmpeg's native encoder.
type Encoder struct {
	Pipe      Pipe
	Container Container
}

// EncodeArgs reads WAV from stdin and writes AAC in the given container.
func EncodeArgs(c Container, bitrate int) []string {
	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "wav", "-i", "pipe:0",
		"-c:a", "aac",
	}
	if bitrate > 0 {
		args = append(args, "-b:a", strconv.Itoa(bitrate))
	}

	switch c {
	case MP4:
		// A pipe cannot be seeked back to write the moov atom.
		args = append(args, "-movflags", "frag_keyframe+empty_moov", "-f", "mp4")
	default:
		args = append(args, "-f", "adts")
	}

	return append(args, "pipe:1")
}

// Encode feeds buf to ffmpeg as WAV and writes the AAC stream to w.
// bitrate is in bits per second; zero keeps ffmpeg's default.
func (e Encoder) Encode(ctx context.Context, w io.Writer, buf *audio.Buffer, bitrate int) error {
	in, err := wav.Encode(buf)
	if err != nil {
		return err
	}

	out, err := e.Pipe.Run(ctx, EncodeArgs(e.Container, bitrate), bytes.NewReader(in))
	if err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}
	if len(out) == 0 {
		return ErrNoOutput
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}
