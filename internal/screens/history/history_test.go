package history

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/prepzone/internal/router"
	"github.com/abhisek/prepzone/internal/store"
)

func testRepo(t *testing.T) store.AttemptRepo {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st.AttemptRepo()
}

func seed(t *testing.T, repo store.AttemptRepo) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := &store.AttemptRecord{
		AttemptID:     "att-1",
		TestID:        "t1",
		Title:         "Quick Quiz",
		Backend:       "mock",
		Reason:        "violation",
		Score:         4,
		MaxScore:      12,
		Correct:       1,
		Violations:    1,
		DurationSecs:  180,
		RemainingSecs: 60,
		StartedAt:     at,
		SubmittedAt:   at.Add(2 * time.Minute),
	}
	if err := repo.SaveAttempt(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, ev := range []store.AttemptEvent{
		{AttemptID: "att-1", Kind: store.EventStarted, Timestamp: at},
		{AttemptID: "att-1", Kind: store.EventViolation, Timestamp: at.Add(time.Minute), Data: map[string]any{"reason": "Screenshot detected"}},
	} {
		if _, err := repo.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestHistoryScreen_Empty(t *testing.T) {
	s := New(testRepo(t))
	s.Update(s.Init()())

	if !strings.Contains(s.View(100, 30), "No attempts yet") {
		t.Error("expected empty state")
	}
}

func TestHistoryScreen_ListAndExpand(t *testing.T) {
	repo := testRepo(t)
	seed(t, repo)

	s := New(repo)
	s.Update(s.Init()())
	if len(s.attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(s.attempts))
	}

	view := s.View(120, 30)
	if !strings.Contains(view, "Quick Quiz") || !strings.Contains(view, "4/12") {
		t.Errorf("view missing attempt summary:\n%s", view)
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected events load on expand")
	}
	s.Update(cmd())

	view = s.View(120, 30)
	if !strings.Contains(view, "Screenshot detected") {
		t.Errorf("expanded view missing violation event:\n%s", view)
	}

	// Collapsing does not reload.
	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command on collapse")
	}
}

func TestHistoryScreen_EscPops(t *testing.T) {
	s := New(testRepo(t))
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a command on Esc")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}
