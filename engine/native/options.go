// SPDX-License-Identifier: EPL-2.0

package native

import (
	"github.com/ik5/audconv/formats"
	"github.com/ik5/audconv/formats/wav"
)

// AudioOptions configures the encode step.
type AudioOptions struct {
	Format formats.Format
	// ForceTranscode decodes and re-encodes even when the input container
	// already matches Format.
	ForceTranscode bool
	// Codec defaults to DefaultCodec(Format).
	Codec string
	// SampleRate and Channels of zero keep the source layout.
	SampleRate int
	Channels   int
	// Bitrate in bits per second, lossy codecs only.
	Bitrate int
	// CompressionLevel applies to FLAC only.
	CompressionLevel int
}

func (o AudioOptions) codec() string {
	if o.Codec != "" {
		return o.Codec
	}
	return DefaultCodec(o.Format)
}

// passthrough reports whether in can be copied to the target untouched.
func (o AudioOptions) passthrough(in *Input) bool {
	if o.ForceTranscode || o.SampleRate != 0 || o.Channels != 0 {
		return false
	}

	switch o.Format {
	case formats.WAV:
		if in.Container() != ContainerWAV || o.codec() != CodecPCM16 {
			return false
		}
		h, err := wav.ParseHeader(in.file.Data)
		return err == nil && h.AudioFormat == 1 && h.BitsPerSample == 16
	case formats.MP3:
		return in.Container() == ContainerMP3
	case formats.FLAC:
		return in.Container() == ContainerFLAC
	case formats.AAC:
		return in.Container() == ContainerADTS
	}
	return false
}
