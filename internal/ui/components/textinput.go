package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepzone/internal/attempt"
	"github.com/abhisek/prepzone/internal/ui/theme"
)

// TextInput wraps bubbles/textinput for numeric answers.
type TextInput struct {
	Model        textinput.Model
	AllowDecimal bool
	MaxWidth     int
	state        attempt.NumericInput
}

// NewTextInput creates a focused numeric input. Decimal input also
// accepts a point.
func NewTextInput(placeholder string, allowDecimal bool, maxWidth int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()

	if maxWidth > 0 {
		ti.CharLimit = maxWidth
	}

	return TextInput{
		Model:        ti,
		AllowDecimal: allowDecimal,
		MaxWidth:     maxWidth,
	}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Accepts reports whether a single typed character is allowed.
func (t TextInput) Accepts(key string) bool {
	if key == "space" {
		return false
	}
	if len(key) != 1 {
		return true
	}
	c := key[0]
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == '-':
		return true
	case c == '.':
		return t.AllowDecimal
	}
	return false
}

// Update handles messages, dropping characters that cannot form a number.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && !t.Accepts(kmsg.String()) {
		return t, nil
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the text input with a validity marker.
func (t TextInput) View() string {
	view := t.Model.View()
	switch t.state {
	case attempt.NumericValid:
		view += " " + lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
	case attempt.NumericInvalid:
		view += " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗ not a number")
	}
	return view
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// SetValue replaces the input text, used when returning to a question.
func (t *TextInput) SetValue(s string) {
	t.Model.SetValue(s)
}

// SetState records how the engine interpreted the text.
func (t *TextInput) SetState(s attempt.NumericInput) {
	t.state = s
}

// State returns the last recorded state.
func (t TextInput) State() attempt.NumericInput {
	return t.state
}
