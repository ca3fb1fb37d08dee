package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepzone/internal/router"
	"github.com/abhisek/prepzone/internal/screen"
	"github.com/abhisek/prepzone/internal/store"
	"github.com/abhisek/prepzone/internal/ui/layout"
	"github.com/abhisek/prepzone/internal/ui/theme"
)

type historyLoadedMsg struct {
	Attempts []store.AttemptRecord
	Err      error
}

type eventsLoadedMsg struct {
	AttemptID string
	Events    []store.AttemptEvent
	Err       error
}

// HistoryScreen displays past attempts and their audit events.
type HistoryScreen struct {
	repo     store.AttemptRepo
	attempts []store.AttemptRecord
	events   map[string][]store.AttemptEvent
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(repo store.AttemptRepo) *HistoryScreen {
	return &HistoryScreen{
		repo:     repo,
		events:   make(map[string][]store.AttemptEvent),
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.repo
	return func() tea.Msg {
		attempts, err := repo.ListAttempts(context.Background(), store.QueryOpts{Limit: 50})
		return historyLoadedMsg{Attempts: attempts, Err: err}
	}
}

func (s *HistoryScreen) loadEvents(attemptID string) tea.Cmd {
	repo := s.repo
	return func() tea.Msg {
		events, err := repo.Events(context.Background(), attemptID)
		return eventsLoadedMsg{AttemptID: attemptID, Events: events, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.attempts = msg.Attempts
		}
		s.loaded = true
		return s, nil

	case eventsLoadedMsg:
		if msg.Err == nil {
			s.events[msg.AttemptID] = msg.Events
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.attempts)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if s.selected >= len(s.attempts) {
				return s, nil
			}
			s.expanded[s.selected] = !s.expanded[s.selected]
			id := s.attempts[s.selected].AttemptID
			if _, ok := s.events[id]; !ok && s.expanded[s.selected] {
				return s, s.loadEvents(id)
			}
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.attempts) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No attempts yet. Take a test!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, a := range s.attempts {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		used := a.DurationSecs - a.RemainingSecs
		line := fmt.Sprintf("%s%s  %-28s %g/%g  %s  %s",
			prefix,
			a.SubmittedAt.Local().Format("Jan 02, 2006 15:04"),
			a.Title,
			a.Score, a.MaxScore,
			layout.FormatClock(used),
			a.Reason,
		)

		style := lipgloss.NewStyle().Foreground(reasonColor(a.Reason))
		if i == s.selected {
			style = style.Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(s.renderDetails(a, width))
		}
	}

	return b.String()
}

func (s *HistoryScreen) renderDetails(a store.AttemptRecord, width int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var lines []string
	lines = append(lines, fmt.Sprintf("    Correct %d  Incorrect %d  Unattempted %d  Violations %d  (%s)",
		a.Correct, a.Incorrect, a.Unattempted, a.Violations, a.Backend))

	events, ok := s.events[a.AttemptID]
	if !ok {
		lines = append(lines, "    Loading events...")
	}
	for _, ev := range events {
		text := fmt.Sprintf("    %s  %s", ev.Timestamp.Local().Format("15:04:05"), ev.Kind)
		if reason, ok := ev.Data["reason"].(string); ok && reason != "" {
			text += "  " + reason
		}
		lines = append(lines, text)
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, dim.Render(l)))
		b.WriteString("\n")
	}
	return b.String()
}

func reasonColor(reason string) color.Color {
	switch reason {
	case "violation":
		return theme.Error
	case "time_up":
		return theme.Accent
	default:
		return theme.Text
	}
}
