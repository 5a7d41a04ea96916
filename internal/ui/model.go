// SPDX-License-Identifier: EPL-2.0

package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ik5/audconv/convert"
)

const barWidth = 40

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// ProgressMsg carries one progress event into the program.
type ProgressMsg convert.Progress

// DoneMsg ends the program with the conversion outcome.
type DoneMsg struct {
	Result *convert.Result
	Err    error
}

// Job describes the conversion shown in the header.
type Job struct {
	Input   string
	Format  string
	Backend string
}

// Model is the conversion progress view.
type Model struct {
	job Job

	percent int
	message string
	state   convert.State

	result *convert.Result
	err    error
	done   bool

	// cancel aborts the conversion when the user quits early.
	cancel    func()
	cancelled bool

	width int
}

// NewModel creates a model for job. cancel may be nil.
func NewModel(job Job, cancel func()) Model {
	return Model{
		job:     job,
		message: "Waiting...",
		cancel:  cancel,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case ProgressMsg:
		m.applyProgress(convert.Progress(msg))
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// applyProgress keeps the bar monotonic; a late lower value only updates the
// message.
func (m *Model) applyProgress(p convert.Progress) {
	if p.Progress > m.percent {
		m.percent = min(p.Progress, 100)
	}
	if p.Message != "" {
		m.message = p.Message
	}
	m.state = p.State
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if !m.done && !m.cancelled && m.cancel != nil {
			m.cancel()
		}
		m.cancelled = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("audconv"))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Input:   "))
	b.WriteString(valueStyle.Render(truncate(m.job.Input, m.maxText())))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Output:  "))
	out := m.job.Format
	if m.job.Backend != "" {
		out += " via " + m.job.Backend
	}
	b.WriteString(valueStyle.Render(out))
	b.WriteString("\n\n")

	b.WriteString(barStyle.Render(renderBar(m.percent, 100, barWidth)))
	b.WriteString(fmt.Sprintf(" %3d%%\n", m.percent))
	b.WriteString(valueStyle.Render(m.message))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.result != nil:
		b.WriteString(doneStyle.Render(fmt.Sprintf("Saved %s (%s)", m.result.Filename, formatBytes(len(m.result.Data)))))
		b.WriteString("\n")
	case m.cancelled:
		b.WriteString(errorStyle.Render("Cancelled"))
		b.WriteString("\n")
	default:
		b.WriteString(helpStyle.Render("q: cancel"))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) maxText() int {
	if m.width > 20 {
		return m.width - 10
	}
	return 60
}

// Result returns the outcome once a DoneMsg was received.
func (m Model) Result() (*convert.Result, error) {
	return m.result, m.err
}

// Cancelled reports whether the user quit before the conversion finished.
func (m Model) Cancelled() bool {
	return m.cancelled && !m.done
}

func renderBar(value, maxValue, width int) string {
	filled := 0
	if maxValue > 0 {
		filled = value * width / maxValue
	}
	filled = max(0, min(filled, width))

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
