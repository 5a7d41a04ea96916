// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the length of the canonical RIFF/WAVE header.
	HeaderSize = 44

	formatPCM     = 1
	bitsPerSample = 16
	fmtChunkSize  = 16
)

// Header is the canonical 44-byte PCM header. All fields are little-endian
// on the wire.
type Header struct {
	ChunkSize     uint32 // 36 + DataSize
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// NewHeader derives the 16-bit PCM header for frames frames of audio.
func NewHeader(sampleRate, channels, frames int) Header {
	blockAlign := uint16(channels * bitsPerSample / 8)
	dataSize := uint32(frames) * uint32(blockAlign)

	return Header{
		ChunkSize:     36 + dataSize,
		AudioFormat:   formatPCM,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: bitsPerSample,
		DataSize:      dataSize,
	}
}

// Bytes lays the header out at its fixed offsets.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)

	copy(b[0:4], "RIFF")
	binary.LittleEndian.PutUint32(b[4:8], h.ChunkSize)
	copy(b[8:12], "WAVE")

	copy(b[12:16], "fmt ")
	binary.LittleEndian.PutUint32(b[16:20], fmtChunkSize)
	binary.LittleEndian.PutUint16(b[20:22], h.AudioFormat)
	binary.LittleEndian.PutUint16(b[22:24], h.NumChannels)
	binary.LittleEndian.PutUint32(b[24:28], h.SampleRate)
	binary.LittleEndian.PutUint32(b[28:32], h.ByteRate)
	binary.LittleEndian.PutUint16(b[32:34], h.BlockAlign)
	binary.LittleEndian.PutUint16(b[34:36], h.BitsPerSample)

	copy(b[36:40], "data")
	binary.LittleEndian.PutUint32(b[40:44], h.DataSize)

	return b
}

// ParseHeader reads a canonical header back. Files with extra chunks between
// fmt and data are rejected with ErrUnsupportedWavLayout; use the Decoder for
// those.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes", ErrShortHeader, len(b))
	}
	if !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return Header{}, ErrNotWavFile
	}
	if !bytes.Equal(b[12:16], []byte("fmt ")) ||
		binary.LittleEndian.Uint32(b[16:20]) != fmtChunkSize ||
		!bytes.Equal(b[36:40], []byte("data")) {
		return Header{}, ErrUnsupportedWavLayout
	}

	return Header{
		ChunkSize:     binary.LittleEndian.Uint32(b[4:8]),
		AudioFormat:   binary.LittleEndian.Uint16(b[20:22]),
		NumChannels:   binary.LittleEndian.Uint16(b[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(b[24:28]),
		ByteRate:      binary.LittleEndian.Uint32(b[28:32]),
		BlockAlign:    binary.LittleEndian.Uint16(b[32:34]),
		BitsPerSample: binary.LittleEndian.Uint16(b[34:36]),
		DataSize:      binary.LittleEndian.Uint32(b[40:44]),
	}, nil
}
