package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Confirm is a yes/no prompt. y and n answer directly; left/right or tab
// move between the choices and enter accepts. Esc and ctrl+c answer no.
type Confirm struct {
	Message string

	yes       bool
	done      bool
	cancelled bool
}

// NewConfirm returns a prompt with "yes" preselected.
func NewConfirm(message string) Confirm {
	return Confirm{Message: message, yes: true}
}

func (m Confirm) Init() tea.Cmd { return nil }

func (m Confirm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		m.yes = false
		return m, tea.Quit
	case "y", "Y":
		m.yes, m.done = true, true
		return m, tea.Quit
	case "n", "N":
		m.yes, m.done = false, true
		return m, tea.Quit
	case "left", "right", "tab", "h", "l":
		m.yes = !m.yes
	case "enter":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// Confirmed reports the answer.
func (m Confirm) Confirmed() bool { return m.yes && !m.cancelled }

func (m Confirm) View() string {
	if m.done || m.cancelled {
		return ""
	}
	yes, no := "○ Yes", "○ No"
	if m.yes {
		yes = cursorStyle.Render("● Yes")
	} else {
		no = cursorStyle.Render("● No")
	}
	return titleStyle.Render(m.Message) + "\n" + yes + " / " + no + "\n"
}

// RunConfirm asks message on out and reports the answer.
func RunConfirm(message string, in io.Reader, out io.Writer) (bool, error) {
	final, err := tea.NewProgram(NewConfirm(message), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return false, err
	}
	return final.(Confirm).Confirmed(), nil
}
