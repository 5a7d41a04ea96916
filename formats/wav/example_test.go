// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"fmt"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/formats/wav"
)

func ExampleEncode() {
	buf := audio.NewBuffer(44100, 1, 44100)

	data, err := wav.Encode(buf)
	if err != nil {
		fmt.Println(err)
		return
	}

	h, _ := wav.ParseHeader(data)
	fmt.Printf("%s %d bytes, %d Hz, %d ch, %d bits\n", data[0:4], len(data), h.SampleRate, h.NumChannels, h.BitsPerSample)
	// Output: RIFF 88244 bytes, 44100 Hz, 1 ch, 16 bits
}

func ExampleNewHeader() {
	h := wav.NewHeader(48000, 2, 480)
	fmt.Println(h.ChunkSize, h.ByteRate, h.BlockAlign, h.DataSize)
	// Output: 1956 192000 4 1920
}
