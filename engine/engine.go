// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"

	"github.com/ik5/audconv/formats"
)

// File is an input borrowed for one conversion. Data must not be modified
// while a conversion holds it.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Options are the encoder parameters of a Job. Zero values leave the choice
// to the engine.
type Options struct {
	// ForceTranscode decodes and re-encodes even when the input already
	// matches the target.
	ForceTranscode bool
	// Codec overrides the codec implied by the format, e.g. "pcm-s16".
	Codec      string
	SampleRate int
	Channels   int
	// Bitrate in bits per second, lossy formats only.
	Bitrate int
	// CompressionLevel applies to FLAC only.
	CompressionLevel *int
	// Quality is the Vorbis VBR quality.
	Quality *float64
}

// Job is one encode request handed to a Transcoder.
type Job struct {
	Input   File
	Format  formats.Format
	Options Options
}

// ProgressFunc receives the fraction of work done, in [0, 1]. Engines may call
// it from any goroutine but never concurrently, and stop once Execute returns.
type ProgressFunc func(ratio float64)

// Tags is the metadata read from the input, when the container carries any.
type Tags struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Format string `json:"format,omitempty"`
}

// Transcoder is a conversion backend. Each Init returns an independent
// Conversion so concurrent jobs never share state.
type Transcoder interface {
	Init(ctx context.Context, job Job) (Conversion, error)
}

// Conversion is one initialized job.
type Conversion interface {
	// Execute runs the job to completion, reporting progress to fn when it
	// is not nil.
	Execute(ctx context.Context, fn ProgressFunc) error
	// Output returns the encoded bytes and their MIME type. It fails with
	// ErrNoOutput when Execute did not leave any.
	Output() ([]byte, string, error)
	// Close releases the job's resources. It is safe to call more than once.
	Close() error
}

// Tagged is implemented by conversions that read metadata from the input.
type Tagged interface {
	Tags() Tags
}
