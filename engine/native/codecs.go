// SPDX-License-Identifier: EPL-2.0

package native

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/formats"
	"github.com/ik5/audconv/formats/aiff"
	"github.com/ik5/audconv/formats/ffpipe"
	"github.com/ik5/audconv/formats/flac"
	"github.com/ik5/audconv/formats/mp3"
	"github.com/ik5/audconv/formats/vorbis"
	"github.com/ik5/audconv/formats/wav"
)

// Codec identifiers understood by AudioOptions.Codec.
const (
	CodecPCM16  = "pcm-s16"
	CodecMP3    = "mp3"
	CodecFLAC   = "flac"
	CodecAAC    = "aac"
	CodecVorbis = "vorbis"
)

// EncodeOptions is what an Encoder needs beyond the audio itself.
type EncodeOptions struct {
	Format           formats.Format
	Bitrate          int
	CompressionLevel int
	FFmpeg           ffpipe.Pipe
}

// Encoder writes a decoded buffer in one codec.
type Encoder interface {
	// Layout maps a source rate and channel count to what the encoder accepts.
	Layout(rate, channels int) (int, int)
	Encode(ctx context.Context, w io.Writer, buf *audio.Buffer, opts EncodeOptions) error
}

var (
	encoders     map[string]Encoder
	encodersOnce sync.Once
)

// registerEncoders fills the encoder table on first use.
func registerEncoders() {
	encodersOnce.Do(func() {
		encoders = map[string]Encoder{
			CodecPCM16: pcmEncoder{},
			CodecMP3:   mp3Encoder{},
			CodecFLAC:  flacEncoder{},
			CodecAAC:   aacEncoder{},
		}
	})
}

func lookupEncoder(codec string) (Encoder, bool) {
	registerEncoders()
	enc, ok := encoders[codec]
	return enc, ok
}

// Codecs lists the codecs with a registered encoder.
func Codecs() []string {
	registerEncoders()
	return slices.Sorted(maps.Keys(encoders))
}

// DefaultCodec is the codec used for a format when none is requested.
func DefaultCodec(f formats.Format) string {
	switch f {
	case formats.WAV:
		return CodecPCM16
	case formats.MP3:
		return CodecMP3
	case formats.FLAC:
		return CodecFLAC
	case formats.AAC, formats.M4A:
		return CodecAAC
	case formats.OGG:
		return CodecVorbis
	}
	return ""
}

type pcmEncoder struct{}

func (pcmEncoder) Layout(rate, channels int) (int, int) { return rate, channels }

func (pcmEncoder) Encode(_ context.Context, w io.Writer, buf *audio.Buffer, _ EncodeOptions) error {
	return wav.WriteBuffer(w, buf)
}

type mp3Encoder struct{}

func (mp3Encoder) Layout(rate, channels int) (int, int) {
	return mp3.TargetRate(rate), mp3.TargetChannels(channels)
}

func (mp3Encoder) Encode(_ context.Context, w io.Writer, buf *audio.Buffer, opts EncodeOptions) error {
	return mp3.Encode(w, buf, opts.Bitrate/1000)
}

type flacEncoder struct{}

func (flacEncoder) Layout(rate, channels int) (int, int) { return rate, min(channels, 8) }

func (flacEncoder) Encode(_ context.Context, w io.Writer, buf *audio.Buffer, opts EncodeOptions) error {
	return flac.Encode(w, buf, opts.CompressionLevel)
}

type aacEncoder struct{}

func (aacEncoder) Layout(rate, channels int) (int, int) { return rate, min(channels, 8) }

func (aacEncoder) Encode(ctx context.Context, w io.Writer, buf *audio.Buffer, opts EncodeOptions) error {
	if opts.FFmpeg.Binary == "" {
		return fmt.Errorf("%w: aac encoder", ErrFFmpegUnavailable)
	}

	container := ffpipe.ADTS
	if opts.Format == formats.M4A {
		container = ffpipe.MP4
	}

	return ffpipe.Encoder{Pipe: opts.FFmpeg, Container: container}.Encode(ctx, w, buf, opts.Bitrate)
}

// contextDecoder is implemented by decoders that run external work.
type contextDecoder interface {
	DecodeContext(ctx context.Context, r io.Reader) (audio.Source, error)
}

// NewDecoderRegistry returns the pure Go decoders keyed by container.
func NewDecoderRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(ContainerWAV, wav.Decoder{})
	r.Register(ContainerAIFF, aiff.Decoder{})
	r.Register(ContainerFLAC, flac.Decoder{})
	r.Register(ContainerOgg, vorbis.Decoder{})
	r.Register(ContainerMP3, mp3.Decoder{})

	return r
}
