// SPDX-License-Identifier: EPL-2.0

// Package audconv converts audio files between MP3, WAV, Ogg Vorbis, FLAC,
// AAC and M4A.
//
// A conversion takes the file bytes with their MIME type and name, routes them
// to one of two engines depending on the target format and returns the
// converted bytes:
//
//   - the native engine (engine/native) decodes and encodes in process, with
//     ffmpeg as a fallback decoder and as the AAC encoder
//   - the CLI engine (engine/cli) runs the ffmpeg binary on a scratch copy of
//     the input and handles FLAC and Ogg Vorbis
//
// Inputs in containers that most decoders cannot read, such as WMA or APE,
// are first normalized to 16-bit 44.1 kHz stereo WAV on the native engine.
//
// # Quick Start
//
//	conv, err := audconv.New(audconv.Options{})
//	if err != nil {
//		return err
//	}
//
//	res, err := audconv.ConvertFile(ctx, conv, "song.mp3", formats.WAV, nil)
//	if err != nil {
//		return err
//	}
//	os.WriteFile(res.Filename, res.Data, 0o644)
//
// # Progress
//
// Convert reports progress as whole percentages with a status message:
//
//	conv.Convert(ctx, req, func(p convert.Progress) {
//		fmt.Printf("%3d%% %s\n", p.Progress, p.Message)
//	})
//
// # Writing WAV Files
//
// Any audio.Source can be rendered as a WAV file directly:
//
//	src, _ := mp3.Decoder{}.Decode(file)
//	data, _ := audconv.ToWAV(ctx, src, 44100, 2)
//
// See the individual subpackages for more detailed documentation.
package audconv
