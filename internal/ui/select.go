// Package ui holds the interactive prompts of the CLI: the autocomplete
// multi-select, the yes/no confirmation, the spinner and the rendering of
// queued changes.
package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("cancelled")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Option is one choice of a MultiSelect.
type Option struct {
	Label string
	Value string
	Group string
	Hint  string
}

const maxVisible = 10

// MultiSelect is a filter-as-you-type list where several options can be
// picked. Space or tab toggles the option under the cursor, enter submits,
// esc and ctrl+c cancel.
type MultiSelect struct {
	Title string

	input    textinput.Model
	options  []Option
	filtered []int
	cursor   int
	picked   map[int]bool
	order    []int

	done      bool
	cancelled bool
}

// NewMultiSelect returns a model over options.
func NewMultiSelect(title string, options []Option) MultiSelect {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "type to filter"
	in.Focus()

	m := MultiSelect{Title: title, input: in, options: options, picked: map[int]bool{}}
	m.refilter()
	return m
}

func (m MultiSelect) Init() tea.Cmd {
	return textinput.Blink
}

func (m MultiSelect) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case " ", "tab":
		m.toggle()
		return m, nil
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refilter()
	}
	return m, cmd
}

func (m *MultiSelect) toggle() {
	if len(m.filtered) == 0 {
		return
	}
	idx := m.filtered[m.cursor]
	if m.picked[idx] {
		delete(m.picked, idx)
		for i, o := range m.order {
			if o == idx {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
		return
	}
	m.picked[idx] = true
	m.order = append(m.order, idx)
}

func (m *MultiSelect) refilter() {
	query := strings.ToLower(strings.TrimSpace(m.input.Value()))
	m.filtered = m.filtered[:0]
	for i, o := range m.options {
		if query == "" || strings.Contains(strings.ToLower(o.Label), query) || strings.Contains(strings.ToLower(o.Value), query) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(len(m.filtered)-1, 0)
	}
}

// Selected returns the picked options in the order they were picked.
func (m MultiSelect) Selected() []Option {
	out := make([]Option, 0, len(m.order))
	for _, idx := range m.order {
		out = append(out, m.options[idx])
	}
	return out
}

// Cancelled reports whether the user aborted.
func (m MultiSelect) Cancelled() bool { return m.cancelled }

func (m MultiSelect) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	for i := start; i < len(m.filtered) && i < start+maxVisible; i++ {
		idx := m.filtered[i]
		o := m.options[idx]

		pointer := "  "
		if i == m.cursor {
			pointer = cursorStyle.Render("› ")
		}
		box := "◻ "
		label := o.Label
		if m.picked[idx] {
			box = selectedStyle.Render("◼ ")
			label = selectedStyle.Render(label)
		}
		b.WriteString(pointer + box + label)
		if o.Hint != "" {
			b.WriteString(" " + hintStyle.Render(o.Hint))
		}
		b.WriteString("\n")
	}
	if len(m.filtered) == 0 {
		b.WriteString(hintStyle.Render("  no matches") + "\n")
	}
	b.WriteString(hintStyle.Render(fmt.Sprintf("%d selected · space to toggle · enter to confirm", len(m.order))))
	b.WriteString("\n")
	return b.String()
}

// RunMultiSelect shows a MultiSelect on out, reading keys from in.
func RunMultiSelect(title string, options []Option, in io.Reader, out io.Writer) ([]Option, error) {
	final, err := tea.NewProgram(NewMultiSelect(title, options), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return nil, err
	}
	m := final.(MultiSelect)
	if m.Cancelled() {
		return nil, ErrCancelled
	}
	return m.Selected(), nil
}
