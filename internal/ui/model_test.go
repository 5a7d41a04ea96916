// SPDX-License-Identifier: EPL-2.0

package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ik5/audconv/convert"
)

func TestNewModel(t *testing.T) {
	model := NewModel(Job{Input: "a.wav", Format: "mp3"}, nil)

	if model.percent != 0 {
		t.Errorf("expected percent 0, got %d", model.percent)
	}
	if model.done || model.cancelled {
		t.Error("expected a fresh model to be neither done nor cancelled")
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	model := NewModel(Job{}, nil)

	steps := []convert.Progress{
		{Progress: 30, Message: convert.MessageConverting, State: convert.Executing},
		{Progress: 0, Message: convert.MessageEngine, State: convert.Executing},
		{Progress: 55, Message: convert.MessageEngine, State: convert.Executing},
		{Progress: 140},
	}
	for _, p := range steps {
		next, _ := model.Update(ProgressMsg(p))
		model = next.(Model)
	}

	if model.percent != 100 {
		t.Errorf("expected percent 100, got %d", model.percent)
	}
	if model.message != convert.MessageEngine {
		t.Errorf("expected message %q, got %q", convert.MessageEngine, model.message)
	}
}

func TestDoneQuits(t *testing.T) {
	model := NewModel(Job{}, nil)
	res := &convert.Result{Filename: "a_converted.mp3", Data: make([]byte, 2048)}

	next, cmd := model.Update(DoneMsg{Result: res})
	model = next.(Model)

	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	got, err := model.Result()
	if err != nil || got != res {
		t.Errorf("Result() = %v, %v", got, err)
	}
	if !strings.Contains(model.View(), "Saved a_converted.mp3 (2.0 KiB)") {
		t.Errorf("view missing saved line:\n%s", model.View())
	}
}

func TestDoneWithError(t *testing.T) {
	model := NewModel(Job{}, nil)

	next, _ := model.Update(DoneMsg{Err: errors.New("Audio conversion failed: boom")})
	model = next.(Model)

	if !strings.Contains(model.View(), "Audio conversion failed: boom") {
		t.Errorf("view missing error:\n%s", model.View())
	}
}

func TestQuitCancels(t *testing.T) {
	called := 0
	model := NewModel(Job{}, func() { called++ })

	next, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	model = next.(Model)

	if called != 1 {
		t.Errorf("expected cancel once, got %d", called)
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if !model.Cancelled() {
		t.Error("expected Cancelled() after quitting")
	}
}

func TestQuitAfterDoneDoesNotCancel(t *testing.T) {
	called := 0
	model := NewModel(Job{}, func() { called++ })

	next, _ := model.Update(DoneMsg{Result: &convert.Result{}})
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	model = next.(Model)

	if called != 0 {
		t.Errorf("expected no cancel after completion, got %d", called)
	}
	if model.Cancelled() {
		t.Error("a finished conversion is not cancelled")
	}
}

func TestView(t *testing.T) {
	model := NewModel(Job{Input: "song.wma", Format: "flac", Backend: "cli"}, nil)
	next, _ := model.Update(ProgressMsg{Progress: 50, Message: "Converting audio..."})
	view := next.(Model).View()

	for _, want := range []string{"song.wma", "flac via cli", " 50%", "Converting audio...", "q: cancel"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "[░░░░░░░░░░]"},
		{50, "[█████░░░░░]"},
		{100, "[██████████]"},
		{150, "[██████████]"},
	}

	for _, tt := range tests {
		if got := renderBar(tt.value, 100, 10); got != tt.want {
			t.Errorf("renderBar(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("a-very-long-file-name.wav", 10); got != "a-very-..." {
		t.Errorf("got %q", got)
	}
}

func TestPlainSink(t *testing.T) {
	var buf bytes.Buffer
	sink := PlainSink(&buf)

	sink(convert.Progress{Progress: 0, Message: convert.MessagePreparing})
	sink(convert.Progress{Progress: 100, Message: convert.MessageComplete})

	want := "[  0%] Preparing conversion...\n[100%] Conversion complete!\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
