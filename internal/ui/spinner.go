package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// ErrInterrupted is returned when the user presses Ctrl+C while waiting.
var ErrInterrupted = errors.New("interrupted")

type workDoneMsg struct{ err error }

// spinnerModel shows a spinner with a label and the elapsed time until the
// work finishes.
type spinnerModel struct {
	spinner spinner.Model
	label   string
	start   time.Time
	done    bool
	err     error
}

func newSpinnerModel(label string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return spinnerModel{spinner: s, label: label, start: time.Now()}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			m.err = ErrInterrupted
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	elapsed := time.Since(m.start).Truncate(time.Second)
	return fmt.Sprintf("%s %s %s\n", m.spinner.View(), m.label, MutedStyle.Render(elapsed.String()))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// RunWithSpinner runs fn while a spinner is drawn on stderr. Without a
// terminal fn simply runs. Ctrl+C cancels the context passed to fn and
// returns ErrInterrupted.
func RunWithSpinner(ctx context.Context, label string, fn func(context.Context) error) error {
	if !IsTerminal(os.Stderr) {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(label), tea.WithOutput(os.Stderr))
	go func() {
		p.Send(workDoneMsg{err: fn(ctx)})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	return final.(spinnerModel).err
}
