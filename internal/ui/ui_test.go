package ui

import (
	"bytes"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nirtamir-cli/cli/internal/queue"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	goleak.VerifyTestMain(m)
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m tea.Model, msgs ...tea.Msg) tea.Model {
	t.Helper()
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

var options = []Option{
	{Label: "eslint", Value: "eslint"},
	{Label: "prettier", Value: "prettier"},
	{Label: "prettier-astro", Value: "prettier-astro"},
	{Label: "zod", Value: "zod", Group: "primitives"},
}

func TestMultiSelectFiltersAndToggles(t *testing.T) {
	m := send(t, NewMultiSelect("Add packages", options),
		keys("pret"),
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeySpace},
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyTab},
	).(MultiSelect)

	assert.Equal(t, []Option{options[2], options[1]}, m.Selected(), "selection keeps pick order")
	assert.Contains(t, m.View(), "2 selected")
	assert.NotContains(t, m.View(), "eslint")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab}).(MultiSelect)
	assert.Equal(t, []Option{options[2]}, m.Selected(), "toggling again removes the option")

	m2, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, m2.(MultiSelect).Cancelled())
	assert.Empty(t, m2.View())
}

func TestMultiSelectNoMatches(t *testing.T) {
	m := send(t, NewMultiSelect("Add packages", options), keys("qqq"), tea.KeyMsg{Type: tea.KeySpace}).(MultiSelect)
	assert.Empty(t, m.Selected())
	assert.Contains(t, m.View(), "no matches")
}

func TestMultiSelectCancel(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m := send(t, NewMultiSelect("Add packages", options), tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: k}).(MultiSelect)
		assert.True(t, m.Cancelled())
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name string
		msgs []tea.Msg
		want bool
	}{
		{"enter accepts default", []tea.Msg{tea.KeyMsg{Type: tea.KeyEnter}}, true},
		{"n", []tea.Msg{keys("n")}, false},
		{"y", []tea.Msg{tea.KeyMsg{Type: tea.KeyRight}, keys("y")}, true},
		{"toggle then enter", []tea.Msg{tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyEnter}}, false},
		{"esc", []tea.Msg{tea.KeyMsg{Type: tea.KeyEsc}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := send(t, NewConfirm("Do you wish to continue?"), tt.msgs...).(Confirm)
			assert.Equal(t, tt.want, m.Confirmed())
		})
	}
}

func TestSpinnerifyWithoutTerminalRunsInline(t *testing.T) {
	var out bytes.Buffer
	called := false
	err := Spinnerify(&out, "Installing packages...", "Packages installed", func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	boom := errors.New("boom")
	assert.ErrorIs(t, Spinnerify(&out, "a", "b", func() error { return boom }), boom)
}

func TestSpinReturnsAfterWorkerFinishes(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("install failed")
	err := spin(&out, "Installing packages...", "Packages installed", func() error { return boom })
	assert.ErrorIs(t, err, boom)

	require.NoError(t, spin(&out, "Writing files...", "Updates written", func() error { return nil }))
	assert.Contains(t, out.String(), "Updates written")
}

func TestSpinnerModel(t *testing.T) {
	m := send(t, newSpinnerModel("Working", "Done"), doneMsg{}).(spinnerModel)
	assert.Contains(t, m.View(), "Done")

	m = send(t, newSpinnerModel("Working", "Done"), doneMsg{err: errors.New("x")}).(spinnerModel)
	assert.Contains(t, m.View(), "✗ Working")
}

func TestRenderSummary(t *testing.T) {
	q := queue.New()
	q.Push(queue.PackageInstall{Package: "lodash"})
	q.Push(queue.DevPackageInstall{Package: "@types/lodash"})
	q.Push(queue.ScriptEntry{Script: "knip", Content: "knip"})

	var out bytes.Buffer
	RenderSummary(&out, q.Summarize())
	assert.Equal(t, "Adding Script\n  - knip\nInstall\n  - lodash\nInstall Dev\n  - @types/lodash\n", out.String())
}

func TestRenderReport(t *testing.T) {
	var out bytes.Buffer
	RenderReport(&out, queue.Report{
		Applied: []queue.Record{queue.PackageInstall{Package: "zod"}},
		Failed:  []queue.Record{queue.ShellCommand{Line: "npx husky init"}},
	})
	assert.Equal(t, "1 update(s) applied\n1 update(s) failed:\n  - command npx husky init\n", out.String())
}
