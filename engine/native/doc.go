// SPDX-License-Identifier: EPL-2.0

// Package native is the in-process container transcoding engine.
//
// A conversion is set up in two phases. Init binds an Input (raw bytes, with
// the container sniffed from magic bytes, extension or MIME type), a
// BufferTarget and AudioOptions; Execute then decodes, conforms the stream
// with audio.Conform and encodes into the target:
//
//	in, _ := native.NewInput(file)
//	target := native.NewBufferTarget()
//	conv, err := eng.Init(ctx, in, target, native.AudioOptions{
//	    Format:         formats.WAV,
//	    ForceTranscode: true,
//	    Codec:          native.CodecPCM16,
//	    SampleRate:     44100,
//	    Channels:       2,
//	})
//	err = conv.Execute(ctx, func(r float64) { ... })
//	data := target.Buffer()
//
// Decoding uses the pure Go decoders registered in NewDecoderRegistry and
// falls back to ffmpeg through ffpipe. Encoders are registered once per
// process: pcm-s16 (WAV), mp3 (shine), flac (mewkiz) and aac (ffmpeg, ADTS or
// fragmented MP4 for m4a). Ogg output has no encoder here.
package native
