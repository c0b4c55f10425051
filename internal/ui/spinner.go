package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/nirtamir-cli/cli/internal/logger"
)

// IsTerminal reports whether stream (an io.Reader or io.Writer) is an
// interactive terminal.
func IsTerminal(stream any) bool {
	f, ok := stream.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type doneMsg struct{ err error }

type spinnerModel struct {
	spinner spinner.Model
	start   string
	finish  string
	err     error
	done    bool
}

func newSpinnerModel(start, finish string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = cursorStyle
	return spinnerModel{spinner: s, start: start, finish: finish}
}

func (m spinnerModel) Init() tea.Cmd { return m.spinner.Tick }

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done, m.err = true, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if !m.done {
		return m.spinner.View() + " " + m.start + "\n"
	}
	if m.err != nil {
		return "✗ " + m.start + "\n"
	}
	return selectedStyle.Render("✓") + " " + m.finish + "\n"
}

// Spinnerify runs fn while showing start next to a spinner, then replaces
// it with finish. Without a terminal the messages are logged instead.
func Spinnerify(out io.Writer, start, finish string, fn func() error) error {
	if !IsTerminal(out) {
		logger.Info("[INFO] %s\n", start)
		if err := fn(); err != nil {
			return err
		}
		logger.Info("[INFO] %s\n", finish)
		return nil
	}
	return spin(out, start, finish, fn)
}

// spin always returns after fn has returned, so it never leaks the worker
// goroutine.
func spin(out io.Writer, start, finish string, fn func() error) error {
	p := tea.NewProgram(newSpinnerModel(start, finish),
		tea.WithInput(nil),
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	)

	result := make(chan error, 1)
	go func() {
		err := fn()
		result <- err
		p.Send(doneMsg{err: err})
	}()

	_, runErr := p.Run()
	err := <-result
	if runErr != nil {
		return fmt.Errorf("spinner: %w", runErr)
	}
	return err
}
