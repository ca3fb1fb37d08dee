package result

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepzone/internal/exam"
	"github.com/abhisek/prepzone/internal/router"
	"github.com/abhisek/prepzone/internal/screen"
	"github.com/abhisek/prepzone/internal/ui/components"
	"github.com/abhisek/prepzone/internal/ui/layout"
	"github.com/abhisek/prepzone/internal/ui/theme"
)

// ResultScreen displays a graded attempt.
type ResultScreen struct {
	result *exam.Result
	offset int
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

// New creates a new ResultScreen.
func New(res *exam.Result) *ResultScreen {
	return &ResultScreen{result: res}
}

func (s *ResultScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultScreen) Title() string {
	return "Result"
}

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "enter", "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if s.offset > 0 {
			s.offset--
		}
	case "down", "j":
		if s.result != nil && s.offset < len(s.result.Questions)-1 {
			s.offset++
		}
	}
	return s, nil
}

func (s *ResultScreen) View(width, height int) string {
	res := s.result
	if res == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render(res.Title))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(reasonText(res.Reason)))
	b.WriteString("\n\n")

	score := fmt.Sprintf("Score: %g / %g", res.Score, res.MaxScore)
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render(score))
	b.WriteString("\n")

	cw := components.ContentWidth(width)
	bar := components.NewProgressBar("", clampPercent(res.Percent()/100), true, cw)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	stats := lipgloss.NewStyle().Foreground(theme.Success).Render(fmt.Sprintf("Correct: %d", res.Correct)) +
		"        " +
		lipgloss.NewStyle().Foreground(theme.Error).Render(fmt.Sprintf("Incorrect: %d", res.Incorrect)) +
		"        " +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("Unattempted: %d", res.Unattempted))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, stats))
	b.WriteString("\n\n")

	if len(res.Questions) == 0 {
		return b.String()
	}

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("Questions")))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")

	used := lipgloss.Height(b.String())
	rows := height - used - 1
	if rows < 3 {
		rows = 3
	}

	end := min(s.offset+rows, len(res.Questions))
	for _, q := range res.Questions[s.offset:end] {
		line := fmt.Sprintf("Q%-3d %-12s %-12s %+6g", q.Position, q.Section, outcomeText(q.Outcome), q.Awarded)
		if q.Outcome == exam.OutcomeIncorrect {
			line += fmt.Sprintf("   given %s, expected %s", q.Given, q.Expected)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(outcomeColor(q.Outcome)).Width(cw).Render(line)))
		b.WriteString("\n")
	}

	return b.String()
}

func reasonText(r exam.EndReason) string {
	switch r {
	case exam.EndTimeUp:
		return "Submitted automatically when time ran out"
	case exam.EndViolation:
		return "Submitted after a security violation"
	default:
		return "Submitted"
	}
}

func outcomeText(o exam.Outcome) string {
	switch o {
	case exam.OutcomeCorrect:
		return "correct"
	case exam.OutcomeIncorrect:
		return "incorrect"
	default:
		return "unattempted"
	}
}

// outcomeColor returns the theme color for a graded outcome.
func outcomeColor(o exam.Outcome) color.Color {
	switch o {
	case exam.OutcomeCorrect:
		return theme.Success
	case exam.OutcomeIncorrect:
		return theme.Error
	default:
		return theme.TextDim
	}
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
