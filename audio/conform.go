// SPDX-License-Identifier: EPL-2.0

package audio

// Conform builds the pipeline that brings src to the requested rate and
// channel count. A zero rate or channel count keeps the source value, and
// stages that would be no-ops are skipped.
func Conform(src Source, sampleRate, channels int) (Source, error) {
	if sampleRate < 0 {
		return nil, ErrInvalidSampleRate
	}
	if channels < 0 {
		return nil, ErrInvalidChannelCount
	}

	out := src
	if sampleRate > 0 && sampleRate != src.SampleRate() {
		out = NewResampler(out, sampleRate)
	}
	if channels > 0 && channels != out.Channels() {
		out = NewChannelMixer(out, channels)
	}

	return out, nil
}
