package attempt

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	att "github.com/abhisek/prepzone/internal/attempt"
	"github.com/abhisek/prepzone/internal/exam"
	"github.com/abhisek/prepzone/internal/ui/components"
	"github.com/abhisek/prepzone/internal/ui/layout"
	"github.com/abhisek/prepzone/internal/ui/theme"
)

// sidebarWidth is the width of the palette column.
const sidebarWidth = 30

// HeaderStatus shows the countdown and the warning count.
func (s *AttemptScreen) HeaderStatus() string {
	if s.engine == nil {
		return ""
	}

	clock := "--:--"
	remaining := s.engine.Remaining()
	if s.engine.Running() || s.engine.Expired() || remaining > 0 {
		clock = layout.FormatClock(remaining)
	}
	out := lipgloss.NewStyle().
		Foreground(theme.TimerColor(remaining)).
		Bold(true).
		Render("⏱ " + clock)

	if n := len(s.violations); n > 0 {
		out += "   " + theme.Warning.Render(fmt.Sprintf("⚠ %d/%d", n, s.monitor.Threshold()))
	}
	return out
}

func (s *AttemptScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.engine == nil:
		return renderCentered(width, "Starting attempt...")
	case s.ending && s.submitErr != "":
		return renderError(width, "Submission failed: "+s.submitErr+"\n\nPress R to retry.")
	case s.ending:
		return renderCentered(width, s.endingMessage())
	case s.showConfirm:
		return s.renderConfirm(width, height)
	}

	if layout.IsCompactWidth(width) {
		return s.renderQuestion(width)
	}

	main := s.renderQuestion(width - sidebarWidth - 2)
	side := s.renderSidebar()
	return lipgloss.JoinHorizontal(lipgloss.Top, main, "  ", side)
}

func (s *AttemptScreen) endingMessage() string {
	switch s.endReason {
	case exam.EndTimeUp:
		return "Time is up. Submitting your answers..."
	case exam.EndViolation:
		return fmt.Sprintf("Test ended: %s. Submitting your answers...", s.violationReason)
	default:
		return "Submitting your answers..."
	}
}

// renderQuestion renders the current question with its answer area.
func (s *AttemptScreen) renderQuestion(width int) string {
	q, ok := s.engine.Current()
	if !ok {
		return ""
	}

	var b strings.Builder

	if s.warning != "" {
		b.WriteString(components.Banner(s.warning, theme.Warning, width))
		b.WriteString("\n")
	}
	if s.saveErr != "" {
		b.WriteString(components.Banner(s.saveErr, theme.Incorrect, width))
		b.WriteString("\n")
	}

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  Q %d of %d", s.engine.CurrentIndex()+1, s.engine.Total()))
	if q.Section != "" {
		infoLeft += theme.Hint.Render("  " + q.Section)
	}

	marks := fmt.Sprintf("+%g", q.Marks)
	if q.NegativeMarks > 0 {
		marks += fmt.Sprintf(" / -%g", q.NegativeMarks)
	}
	infoRight := lipgloss.NewStyle().Foreground(theme.TextDim).Render(typeLabel(q.Type) + "   " + marks)

	infoLine := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 2; pad > 0 {
		infoLine += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-2, 0))))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(max(width-4, 10)).
		PaddingLeft(2).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Text))
	b.WriteString("\n\n")

	if q.Type.IsChoice() {
		a, _ := s.engine.CurrentAnswer()
		b.WriteString(s.options.View(a))
	} else {
		b.WriteString("  Answer: " + s.input.View())
		b.WriteString("\n")
	}

	st := s.engine.CurrentStatus()
	b.WriteString("\n  ")
	b.WriteString(lipgloss.NewStyle().Foreground(components.StatusColor(st)).Render("■ "))
	b.WriteString(theme.Hint.Render(components.StatusLabel(st)))

	return b.String()
}

// renderSidebar renders the palette, legend and answered progress.
func (s *AttemptScreen) renderSidebar() string {
	var b strings.Builder

	title := "Questions"
	if s.palette.Focused {
		title = "Go to question"
	}
	b.WriteString(theme.Selected.Render(title))
	b.WriteString("\n\n")

	questions := s.engine.Questions()
	b.WriteString(s.palette.View(func(i int) att.Status {
		return s.engine.StatusOf(questions[i].ID)
	}, s.engine.CurrentIndex()))
	b.WriteString("\n\n")

	counts := s.engine.Counts()
	b.WriteString(components.Legend(counts))
	b.WriteString("\n")

	answered := counts[att.StatusAnswered] + counts[att.StatusAnsweredAndMarked]
	pct := 0.0
	if total := s.engine.Total(); total > 0 {
		pct = float64(answered) / float64(total)
	}
	b.WriteString(components.NewProgressBar("Done", pct, true, sidebarWidth-2).View())

	return lipgloss.NewStyle().Width(sidebarWidth).Render(b.String())
}

// renderConfirm renders the submit confirmation with a status summary.
func (s *AttemptScreen) renderConfirm(width, height int) string {
	counts := s.engine.Counts()
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw - 6).Render("Submit test?"))
	b.WriteString("\n\n")
	b.WriteString(components.Legend(counts))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Time left: " + layout.FormatClock(s.engine.Remaining())))
	b.WriteString("\n\n")
	b.WriteString(s.confirm.View())

	return components.Panel(components.Card(b.String(), cw), width, height)
}

func typeLabel(t att.QuestionType) string {
	switch t {
	case att.TypeSingleChoice:
		return "Single choice"
	case att.TypeMultiChoice:
		return "Multiple choice"
	case att.TypeNumerical:
		return "Numerical"
	case att.TypeInteger:
		return "Integer"
	default:
		return string(t)
	}
}

func renderCentered(width int, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n" + text)
}

func renderError(width int, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render("\n\n" + text)
}
