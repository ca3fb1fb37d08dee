package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/prepzone/internal/exam"
	"github.com/abhisek/prepzone/internal/router"
	"github.com/abhisek/prepzone/internal/screen"
	attemptscreen "github.com/abhisek/prepzone/internal/screens/attempt"
	"github.com/abhisek/prepzone/internal/screens/catalog"
	"github.com/abhisek/prepzone/internal/screens/history"
	"github.com/abhisek/prepzone/internal/store"
	"github.com/abhisek/prepzone/internal/ui/components"
	"github.com/abhisek/prepzone/internal/ui/theme"
)

const titleText = "P · R · E · P · Z · O · N · E"

type statsLoadedMsg struct {
	Attempts []store.AttemptRecord
	Err      error
}

// HomeScreen is the main menu.
type HomeScreen struct {
	repo    store.AttemptRepo
	backend string
	menu    components.Menu

	attempts int
	best     float64
	last     *store.AttemptRecord
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen. repo may be nil, in which case history
// is unavailable.
func New(svc exam.Service, repo store.AttemptRepo, settings attemptscreen.Settings, log zerolog.Logger) *HomeScreen {
	items := []components.MenuItem{
		{Label: "START TEST", Description: "Pick a test from the catalog", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: catalog.New(svc, repo, settings, log)}
			}
		}},
		{Label: "HISTORY", Description: "Past attempts on this machine", Disabled: repo == nil, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(repo)}
			}
		}},
		{Label: "EXIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	backend := ""
	if svc != nil {
		backend = svc.Name()
	}
	return &HomeScreen{
		repo:    repo,
		backend: backend,
		menu:    components.NewMenu(items),
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	if h.repo == nil {
		return nil
	}
	repo := h.repo
	return func() tea.Msg {
		attempts, err := repo.ListAttempts(context.Background(), store.QueryOpts{})
		return statsLoadedMsg{Attempts: attempts, Err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(statsLoadedMsg); ok {
		if msg.Err == nil {
			h.applyStats(msg.Attempts)
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) applyStats(attempts []store.AttemptRecord) {
	h.attempts = len(attempts)
	h.best = 0
	h.last = nil
	for i, a := range attempts {
		if a.MaxScore > 0 {
			if pct := a.Score / a.MaxScore * 100; pct > h.best {
				h.best = pct
			}
		}
		if i == 0 {
			last := a
			h.last = &last
		}
	}
}

func (h *HomeScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render(titleText))
	sections = append(sections, theme.Subtitle.Width(cw).Render("Timed mock tests in your terminal"))
	sections = append(sections, components.Card(h.renderStats(), cw))
	sections = append(sections, components.Card(h.menu.View(), cw))

	return components.Panel(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) renderStats() string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	val := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)

	line := val.Render(fmt.Sprintf("%d", h.attempts)) + dim.Render(" attempts") +
		"    " + val.Render(fmt.Sprintf("%.0f%%", h.best)) + dim.Render(" best")
	if h.backend != "" {
		line += "    " + dim.Render("platform: ") + val.Render(h.backend)
	}
	if h.last != nil {
		line += "\n" + dim.Render(fmt.Sprintf("Last: %s, %g/%g", h.last.Title, h.last.Score, h.last.MaxScore))
	}
	return line
}

func (h *HomeScreen) Title() string {
	return "Home"
}
