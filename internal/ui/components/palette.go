package components

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepzone/internal/attempt"
	"github.com/abhisek/prepzone/internal/ui/theme"
)

// PaletteJumpMsg is emitted when the candidate picks a question.
type PaletteJumpMsg struct {
	Index int
}

// StatusColor returns the palette color for s.
func StatusColor(s attempt.Status) color.Color {
	switch s {
	case attempt.StatusNotAnswered:
		return theme.StatusNotAnswered
	case attempt.StatusAnswered:
		return theme.StatusAnswered
	case attempt.StatusMarkedForReview:
		return theme.StatusMarkedForReview
	case attempt.StatusAnsweredAndMarked:
		return theme.StatusAnsweredAndMarked
	default:
		return theme.StatusNotVisited
	}
}

// StatusLabel returns the legend text for s.
func StatusLabel(s attempt.Status) string {
	switch s {
	case attempt.StatusNotVisited:
		return "Not visited"
	case attempt.StatusNotAnswered:
		return "Not answered"
	case attempt.StatusAnswered:
		return "Answered"
	case attempt.StatusMarkedForReview:
		return "Marked for review"
	case attempt.StatusAnsweredAndMarked:
		return "Answered & marked"
	default:
		return s.String()
	}
}

// Palette is the question grid. Cells are colored by status; the cursor
// is only drawn while the palette has focus.
type Palette struct {
	Total   int
	Columns int
	Cursor  int
	Focused bool
}

// NewPalette creates a palette over total questions.
func NewPalette(total, columns int) Palette {
	if columns < 1 {
		columns = 5
	}
	return Palette{Total: total, Columns: columns}
}

// Update moves the cursor across the grid and emits PaletteJumpMsg on
// enter. Keys are ignored unless the palette has focus.
func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || !p.Focused || p.Total == 0 {
		return p, nil
	}

	switch kmsg.String() {
	case "left", "h":
		p.move(-1)
	case "right", "l":
		p.move(1)
	case "up", "k":
		p.move(-p.Columns)
	case "down", "j":
		p.move(p.Columns)
	case "enter":
		idx := p.Cursor
		return p, func() tea.Msg { return PaletteJumpMsg{Index: idx} }
	}
	return p, nil
}

func (p *Palette) move(delta int) {
	next := p.Cursor + delta
	if next >= 0 && next < p.Total {
		p.Cursor = next
	}
}

// View renders the grid. statusAt returns the status of the question at
// a 0-based index; current is the question on screen.
func (p Palette) View(statusAt func(int) attempt.Status, current int) string {
	var rows []string
	var row []string
	for i := 0; i < p.Total; i++ {
		style := lipgloss.NewStyle().
			Background(StatusColor(statusAt(i))).
			Foreground(theme.BgDark).
			Padding(0, 1)
		if i == current {
			style = style.Bold(true).Underline(true)
		}

		cell := style.Render(fmt.Sprintf("%2d", i+1))
		if p.Focused && i == p.Cursor {
			cell = theme.Selected.Render("[") + cell + theme.Selected.Render("]")
		} else {
			cell = " " + cell + " "
		}

		row = append(row, cell)
		if len(row) == p.Columns {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return strings.Join(rows, "\n")
}

// Legend renders every status with its count.
func Legend(counts map[attempt.Status]int) string {
	var b strings.Builder
	for _, st := range attempt.AllStatuses {
		swatch := lipgloss.NewStyle().Background(StatusColor(st)).Render("  ")
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			swatch,
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(fmt.Sprintf("%2d", counts[st])),
			theme.Hint.Render(StatusLabel(st)),
		))
	}
	return b.String()
}
