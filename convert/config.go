// SPDX-License-Identifier: EPL-2.0

package convert

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ik5/audconv/formats"
	"github.com/ik5/audconv/formats/mp3"
)

const (
	DefaultMaxInputSize     = 500 << 20
	DefaultMP3Bitrate       = 320
	DefaultAACBitrate       = 192
	DefaultCompressionLevel = 5
	DefaultOggQuality       = 4.0

	maxCompressionLevel = 12
	maxBitrate          = 512
)

// Normalization pass target: 16-bit PCM WAV, 44.1 kHz stereo.
const (
	normalizeCodec      = "pcm-s16"
	normalizeSampleRate = 44100
	normalizeChannels   = 2
)

// Recorder receives one call per conversion start and end.
type Recorder interface {
	Started(format formats.Format, backend formats.Backend)
	Finished(o Outcome)
}

// Outcome summarizes a finished conversion for metrics.
type Outcome struct {
	Format      formats.Format
	Backend     formats.Backend
	State       State
	FailedIn    State
	Normalized  bool
	Elapsed     time.Duration
	InputBytes  int
	OutputBytes int
}

type nopRecorder struct{}

func (nopRecorder) Started(formats.Format, formats.Backend) {}
func (nopRecorder) Finished(Outcome)                        {}

type Config struct {
	Logger  *slog.Logger
	Metrics Recorder
	Routing *formats.Routing

	// MaxInputSize in bytes, zero means DefaultMaxInputSize.
	MaxInputSize int64

	// Encoder defaults, bitrates in kbps. Zero bitrates and quality take the
	// package defaults; CompressionLevel is used as is since 0 is a valid
	// level, so start from DefaultConfig.
	MP3Bitrate       int
	AACBitrate       int
	CompressionLevel int
	OggQuality       float64
}

func DefaultConfig() Config {
	return Config{
		MaxInputSize:     DefaultMaxInputSize,
		MP3Bitrate:       DefaultMP3Bitrate,
		AACBitrate:       DefaultAACBitrate,
		CompressionLevel: DefaultCompressionLevel,
		OggQuality:       DefaultOggQuality,
	}
}

// Validate checks the encoder defaults. Zero values are filled in by New.
func (c Config) Validate() error {
	if c.MaxInputSize < 0 {
		return fmt.Errorf("max input size must not be negative: %d", c.MaxInputSize)
	}
	if c.MP3Bitrate < 0 || (c.MP3Bitrate != 0 && mp3.BitrateIndex(c.MP3Bitrate) < 0) {
		return fmt.Errorf("%w: mp3 bitrate %d", ErrQuality, c.MP3Bitrate)
	}
	if c.AACBitrate < 0 || c.AACBitrate > maxBitrate {
		return fmt.Errorf("%w: aac bitrate %d", ErrQuality, c.AACBitrate)
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > maxCompressionLevel {
		return fmt.Errorf("%w: compression level %d", ErrQuality, c.CompressionLevel)
	}
	if c.OggQuality < -1 || c.OggQuality > 10 {
		return fmt.Errorf("%w: ogg quality %v", ErrQuality, c.OggQuality)
	}
	return nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Metrics == nil {
		c.Metrics = nopRecorder{}
	}
	if c.Routing == nil {
		c.Routing = formats.DefaultRouting()
	}
	if c.MaxInputSize == 0 {
		c.MaxInputSize = d.MaxInputSize
	}
	if c.MP3Bitrate == 0 {
		c.MP3Bitrate = d.MP3Bitrate
	}
	if c.AACBitrate == 0 {
		c.AACBitrate = d.AACBitrate
	}
	if c.OggQuality == 0 {
		c.OggQuality = d.OggQuality
	}

	return c
}
