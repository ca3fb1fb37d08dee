package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/prepzone/internal/exam"
	"github.com/abhisek/prepzone/internal/router"
	"github.com/abhisek/prepzone/internal/screen"
	attemptscreen "github.com/abhisek/prepzone/internal/screens/attempt"
	"github.com/abhisek/prepzone/internal/store"
	"github.com/abhisek/prepzone/internal/ui/layout"
	"github.com/abhisek/prepzone/internal/ui/theme"
)

const loadTimeout = 30 * time.Second

type testsLoadedMsg struct {
	Tests []exam.TestInfo
	Err   error
}

// CatalogScreen lists the tests the candidate can start.
type CatalogScreen struct {
	svc      exam.Service
	repo     store.AttemptRepo
	settings attemptscreen.Settings
	log      zerolog.Logger

	tests    []exam.TestInfo
	selected int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*CatalogScreen)(nil)
var _ screen.KeyHintProvider = (*CatalogScreen)(nil)

// New creates a new CatalogScreen.
func New(svc exam.Service, repo store.AttemptRepo, settings attemptscreen.Settings, log zerolog.Logger) *CatalogScreen {
	return &CatalogScreen{
		svc:      svc,
		repo:     repo,
		settings: settings,
		log:      log,
	}
}

func (s *CatalogScreen) Init() tea.Cmd {
	return s.load()
}

func (s *CatalogScreen) load() tea.Cmd {
	svc := s.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		tests, err := svc.ListTests(ctx)
		return testsLoadedMsg{Tests: tests, Err: err}
	}
}

func (s *CatalogScreen) Title() string {
	return "Tests"
}

func (s *CatalogScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" {
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Start"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *CatalogScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case testsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.tests = msg.Tests
		if s.selected >= len(s.tests) {
			s.selected = 0
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r", "R":
			if s.errMsg != "" {
				s.loaded = false
				s.errMsg = ""
				return s, s.load()
			}
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.tests)-1 {
				s.selected++
			}
		case "enter":
			if s.selected < len(s.tests) {
				next := attemptscreen.New(s.svc, s.repo, s.tests[s.selected].ID, s.settings, s.log)
				return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
			}
		}
	}
	return s, nil
}

func (s *CatalogScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nCould not load tests: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading tests...")
	}
	if len(s.tests) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No tests available.")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, t := range s.tests {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "▸ "
			style = style.Foreground(theme.Primary).Bold(true)
		}

		line := fmt.Sprintf("%s%-32s %3d min  %3d questions  %g marks",
			prefix, t.Title, t.DurationMinutes, t.QuestionCount, t.TotalMarks)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if i == s.selected {
			detail := strings.Join(t.Sections, " · ")
			if t.Description != "" {
				detail = t.Description + "  " + detail
			}
			if detail != "" {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					theme.Hint.Render("    "+detail)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}
