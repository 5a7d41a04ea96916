// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM primitives shared by the decoders, the
// encoders and the native conversion engine.
//
// # Source
//
// Every decoder yields a Source: a pull-based stream of interleaved float32
// samples normalized to [-1, 1].
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// ReadSamples returns the number of float32 values written, not frames, and
// io.EOF once the stream is finished. The final read may carry both data and
// io.EOF.
//
// # Buffer
//
// Buffer is the fully decoded planar form used by the WAV encoder. ReadAll
// drains a Source into a Buffer and Buffer.Source streams it back:
//
//	buf, err := audio.ReadAll(ctx, src)
//	if err != nil {
//	    return err
//	}
//	if err := buf.Validate(); err != nil {
//	    return err
//	}
//
// # Conforming
//
// Resampler changes the sample rate with cubic interpolation and ChannelMixer
// remaps the channel layout. Conform chains both and skips stages that would
// not change anything:
//
//	out, err := audio.Conform(src, 44100, 2)
//
// # Registry
//
// Registry maps format keys to Decoders so callers can look a decoder up by
// file extension or detected container:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	dec, ok := registry.Get("WAV")
package audio
