// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/formats/wav"
	"github.com/ik5/audconv/internal/audiotest"
)

// rawWAV builds a PCM file with an arbitrary bit depth and format tag.
func rawWAV(format, channels, sampleRate, bits int, data []byte) []byte {
	buf := new(bytes.Buffer)
	blockAlign := channels * bits / 8

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(format))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bits))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

func TestDecoder_RoundTrip(t *testing.T) {
	t.Parallel()

	in := &audio.Buffer{
		SampleRate: 22050,
		Channels:   audiotest.Planar(2, 5000, audiotest.Sine(22050, 300)),
	}
	data, err := wav.Encode(in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	src, err := wav.Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 22050 || src.Channels() != 2 {
		t.Fatalf("Decode() = %d Hz, %d ch", src.SampleRate(), src.Channels())
	}

	out, err := audio.ReadAll(context.Background(), src)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if out.Frames() != 5000 {
		t.Fatalf("Frames() = %d, want 5000", out.Frames())
	}

	for c := range 2 {
		for f := range 5000 {
			if diff := math.Abs(float64(out.Channels[c][f] - in.Channels[c][f])); diff > 1.0/16000 {
				t.Fatalf("channel %d frame %d: got %v, want %v", c, f, out.Channels[c][f], in.Channels[c][f])
			}
		}
	}
}

func TestDecoder_NonSeekableReader(t *testing.T) {
	t.Parallel()

	var file bytes.Buffer
	if err := wav.WritePCM16(&file, 8000, 1, []int16{100, -100, 200}); err != nil {
		t.Fatal(err)
	}

	src, err := wav.Decoder{}.Decode(io.MultiReader(&file))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	buf := make([]float32, 16)
	n, err := src.ReadSamples(buf)
	if n != 3 {
		t.Fatalf("ReadSamples() n = %d, want 3", n)
	}
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if buf[1] != -100.0/32768 {
		t.Errorf("sample 1 = %v, want %v", buf[1], -100.0/32768)
	}
}

func TestDecoder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "not a wav", data: []byte("NOT A WAV FILE DATA AT ALL, JUST TEXT PADDING"), want: wav.ErrNotWavFile},
		{name: "float format", data: rawWAV(3, 1, 8000, 32, make([]byte, 8))},
		{name: "12-bit", data: rawWAV(1, 1, 8000, 12, make([]byte, 6))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := wav.Decoder{}.Decode(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("Decode() error = nil")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecoder_InvalidDstSize(t *testing.T) {
	t.Parallel()

	var file bytes.Buffer
	if err := wav.WritePCM16(&file, 8000, 2, []int16{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	src, err := wav.Decoder{}.Decode(bytes.NewReader(file.Bytes()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, err := src.ReadSamples(make([]float32, 3)); !errors.Is(err, audio.ErrInvalidDstSize) {
		t.Errorf("ReadSamples() error = %v, want ErrInvalidDstSize", err)
	}
}
