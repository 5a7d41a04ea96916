// SPDX-License-Identifier: EPL-2.0

package convert

import (
	"sync"

	"github.com/ik5/audconv/engine"
	"github.com/ik5/audconv/formats"
)

// Quality overrides the configured encoder defaults for one request.
type Quality struct {
	// Bitrate in kbps, lossy formats only. Zero picks the default.
	Bitrate int `json:"bitrate,omitempty"`
	// CompressionLevel 0..12, FLAC only.
	CompressionLevel *int `json:"compression_level,omitempty"`
}

type Request struct {
	File    engine.File
	Format  formats.Format
	Quality Quality
}

// Result is a finished conversion. Data is complete and never partial.
type Result struct {
	ID         string          `json:"id"`
	Data       []byte          `json:"-"`
	MIMEType   string          `json:"mime_type"`
	Filename   string          `json:"filename"`
	Backend    formats.Backend `json:"-"`
	Normalized bool            `json:"normalized"`
	Tags       engine.Tags     `json:"tags"`
}

type Progress struct {
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	State    State  `json:"-"`
}

// ProgressSink receives the progress of one conversion, in the order the
// steps and engines produce it. It is never called after Convert returns.
type ProgressSink func(Progress)

// Status messages sent with progress events.
const (
	MessagePreparing    = "Preparing conversion..."
	MessageLoading      = "Loading audio file..."
	MessageInitializing = "Initializing converter..."
	MessageConverting   = "Converting..."
	MessageEngine       = "Converting audio..."
	MessageComplete     = "Conversion complete!"
)

// guardedSink drops events once closed and serializes the ones before.
type guardedSink struct {
	mu     sync.Mutex
	fn     ProgressSink
	closed bool
}

func (g *guardedSink) emit(state State, percent int, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || g.fn == nil {
		return
	}
	g.fn(Progress{Progress: percent, Message: message, State: state})
}

func (g *guardedSink) close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
}
