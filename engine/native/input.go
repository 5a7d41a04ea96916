// SPDX-License-Identifier: EPL-2.0

package native

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/ik5/audconv/engine"
)

// Container keys shared by the sniffer and the decoder registry.
const (
	ContainerWAV  = "wav"
	ContainerAIFF = "aiff"
	ContainerFLAC = "flac"
	ContainerOgg  = "ogg"
	ContainerMP3  = "mp3"
	ContainerADTS = "aac"
)

var extensionContainers = map[string]string{
	".wav":  ContainerWAV,
	".wave": ContainerWAV,
	".aif":  ContainerAIFF,
	".aiff": ContainerAIFF,
	".flac": ContainerFLAC,
	".ogg":  ContainerOgg,
	".oga":  ContainerOgg,
	".mp3":  ContainerMP3,
	".aac":  ContainerADTS,
}

var mimeContainers = map[string]string{
	"audio/wav":    ContainerWAV,
	"audio/wave":   ContainerWAV,
	"audio/x-wav":  ContainerWAV,
	"audio/aiff":   ContainerAIFF,
	"audio/x-aiff": ContainerAIFF,
	"audio/flac":   ContainerFLAC,
	"audio/x-flac": ContainerFLAC,
	"audio/ogg":    ContainerOgg,
	"audio/vorbis": ContainerOgg,
	"audio/mpeg":   ContainerMP3,
	"audio/mp3":    ContainerMP3,
	"audio/aac":    ContainerADTS,
}

// Input binds a file's bytes to the engine.
type Input struct {
	file      engine.File
	container string
	tags      engine.Tags
}

// NewInput inspects the file. Tag reading is best effort.
func NewInput(file engine.File) (*Input, error) {
	if len(file.Data) == 0 {
		return nil, ErrNoInput
	}

	in := &Input{
		file:      file,
		container: DetectContainer(file.Data, file.Name, file.MIMEType),
	}

	if m, err := tag.ReadFrom(bytes.NewReader(file.Data)); err == nil {
		in.tags = engine.Tags{
			Title:  m.Title(),
			Artist: m.Artist(),
			Album:  m.Album(),
			Format: string(m.Format()),
		}
	}

	return in, nil
}

func (in *Input) Container() string     { return in.container }
func (in *Input) Tags() engine.Tags     { return in.tags }
func (in *Input) Size() int             { return len(in.file.Data) }
func (in *Input) File() engine.File     { return in.file }
func (in *Input) reader() *bytes.Reader { return bytes.NewReader(in.file.Data) }

// DetectContainer identifies the container from magic bytes, then the file
// extension, then the declared MIME type. An empty result means only ffmpeg
// can try.
func DetectContainer(data []byte, name, mimeType string) string {
	if c := sniff(data); c != "" {
		return c
	}
	if c, ok := extensionContainers[strings.ToLower(filepath.Ext(name))]; ok {
		return c
	}
	m := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return mimeContainers[m]
}

func sniff(b []byte) string {
	switch {
	case len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE":
		return ContainerWAV
	case len(b) >= 12 && string(b[0:4]) == "FORM" && (string(b[8:12]) == "AIFF" || string(b[8:12]) == "AIFC"):
		return ContainerAIFF
	case len(b) >= 4 && string(b[0:4]) == "fLaC":
		return ContainerFLAC
	case len(b) >= 4 && string(b[0:4]) == "OggS":
		return ContainerOgg
	case len(b) >= 3 && string(b[0:3]) == "ID3":
		return ContainerMP3
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		// Layer bits of zero mark ADTS AAC, anything else is MPEG audio.
		if b[1]&0x06 == 0 {
			return ContainerADTS
		}
		return ContainerMP3
	}
	return ""
}
