// SPDX-License-Identifier: EPL-2.0

package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ik5/audconv/convert"
)

// ErrCancelled is returned by Run when the user quits mid-conversion.
var ErrCancelled = errors.New("conversion cancelled")

// ConvertFunc performs the conversion, reporting through sink.
type ConvertFunc func(ctx context.Context, sink convert.ProgressSink) (*convert.Result, error)

// Run shows a progress view while fn runs and returns its outcome.
func Run(ctx context.Context, job Job, fn ConvertFunc, opts ...tea.ProgramOption) (*convert.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(job, cancel), opts...)

	go func() {
		res, err := fn(ctx, func(pr convert.Progress) {
			p.Send(ProgressMsg(pr))
		})
		p.Send(DoneMsg{Result: res, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running progress view: %w", err)
	}

	m := final.(Model)
	if m.Cancelled() {
		return nil, ErrCancelled
	}
	return m.Result()
}

// PlainSink writes one line per progress event, for output that is not a
// terminal.
func PlainSink(w io.Writer) convert.ProgressSink {
	return func(p convert.Progress) {
		fmt.Fprintf(w, "[%3d%%] %s\n", p.Progress, p.Message)
	}
}
