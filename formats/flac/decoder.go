// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"

	mflac "github.com/mewkiz/flac"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/utils"
)

type source struct {
	stream     *mflac.Stream
	sampleRate int
	channels   int
	bitDepth   int

	// interleaved samples of the current frame not yet handed out
	pending []float32
	done    bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return 4096 - 4096%s.channels }

func (s *source) Close() error {
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	written := 0
	for written < len(dst) {
		if len(s.pending) == 0 {
			if s.done {
				break
			}
			if err := s.next(); err != nil {
				return written, err
			}
			continue
		}

		n := copy(dst[written:], s.pending)
		s.pending = s.pending[n:]
		written += n
	}

	if written == 0 && s.done {
		return 0, io.EOF
	}

	return written, nil
}

// next decodes one frame into pending.
func (s *source) next() error {
	f, err := s.stream.ParseNext()
	if errors.Is(err, io.EOF) {
		s.done = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("decoding flac frame: %w", err)
	}

	block := int(f.BlockSize)
	if cap(s.pending) < block*s.channels {
		s.pending = make([]float32, block*s.channels)
	}
	s.pending = s.pending[:block*s.channels]

	for c, sub := range f.Subframes[:s.channels] {
		for i, v := range sub.Samples[:block] {
			s.pending[i*s.channels+c] = utils.IntToFloat32(int(v), s.bitDepth)
		}
	}

	return nil
}

// Decoder reads FLAC streams through github.com/mewkiz/flac.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	stream, err := mflac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFlacFile, err)
	}

	info := stream.Info
	if info.NChannels == 0 || info.SampleRate == 0 {
		_ = stream.Close()
		return nil, ErrNotFlacFile
	}

	return &source{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
	}, nil
}
