package components

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepzone/internal/attempt"
	"github.com/abhisek/prepzone/internal/ui/theme"
)

// OptionPressedMsg is emitted when the candidate presses an option.
type OptionPressedMsg struct {
	OptionID string
}

// OptionList renders the options of a choice question with a cursor.
// It does not hold the selection; the engine does.
type OptionList struct {
	Options []attempt.Option
	Multi   bool
	Cursor  int
}

// NewOptionList creates an option list for q.
func NewOptionList(q attempt.Question) OptionList {
	return OptionList{
		Options: q.Options,
		Multi:   q.Type == attempt.TypeMultiChoice,
	}
}

// Update moves the cursor and turns presses into OptionPressedMsg.
// Number keys press the matching option directly.
func (l OptionList) Update(msg tea.Msg) (OptionList, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(l.Options) == 0 {
		return l, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if l.Cursor > 0 {
			l.Cursor--
		}
		return l, nil
	case "down", "j":
		if l.Cursor < len(l.Options)-1 {
			l.Cursor++
		}
		return l, nil
	case "enter", "space", " ":
		return l, l.press(l.Cursor)
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(l.Options) {
		l.Cursor = n - 1
		return l, l.press(n - 1)
	}
	return l, nil
}

func (l OptionList) press(i int) tea.Cmd {
	id := l.Options[i].ID
	return func() tea.Msg { return OptionPressedMsg{OptionID: id} }
}

// View renders the options with the given answer ticked.
func (l OptionList) View(selected attempt.Answer) string {
	var b strings.Builder
	for i, opt := range l.Options {
		mark := "( )"
		if l.Multi {
			mark = "[ ]"
		}
		if selected.Has(opt.ID) {
			if l.Multi {
				mark = "[x]"
			} else {
				mark = "(•)"
			}
		}

		prefix := "  "
		if i == l.Cursor {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s %d. %s", prefix, mark, i+1, opt.Text)

		style := theme.Unselected
		switch {
		case selected.Has(opt.ID):
			style = lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
		case i == l.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
