package result

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/prepzone/internal/exam"
	"github.com/abhisek/prepzone/internal/router"
)

func testResult() *exam.Result {
	return &exam.Result{
		AttemptID:   "att-1",
		TestID:      "t1",
		Title:       "Physics Mock",
		Score:       7,
		MaxScore:    12,
		Correct:     2,
		Incorrect:   1,
		Unattempted: 0,
		Reason:      exam.EndTimeUp,
		Questions: []exam.QuestionResult{
			{QuestionID: "q1", Position: 1, Section: "A", Outcome: exam.OutcomeCorrect, Awarded: 4},
			{QuestionID: "q2", Position: 2, Section: "A", Outcome: exam.OutcomeIncorrect, Awarded: -1, Given: "x", Expected: "y"},
			{QuestionID: "q3", Position: 3, Section: "B", Outcome: exam.OutcomeCorrect, Awarded: 4},
		},
	}
}

func TestResultScreen_Title(t *testing.T) {
	s := New(testResult())
	if s.Title() != "Result" {
		t.Errorf("Title = %q, want %q", s.Title(), "Result")
	}
}

func TestResultScreen_Display(t *testing.T) {
	s := New(testResult())
	view := s.View(100, 30)
	for _, want := range []string{"Physics Mock", "Score: 7 / 12", "Correct: 2", "Incorrect: 1", "time ran out", "expected y"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestResultScreen_NilResult(t *testing.T) {
	s := New(nil)
	if view := s.View(80, 24); view != "" {
		t.Errorf("expected empty view, got %q", view)
	}
}

func TestResultScreen_Scroll(t *testing.T) {
	s := New(testResult())
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.offset != 2 {
		t.Errorf("offset = %d, want 2", s.offset)
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if s.offset != 1 {
		t.Errorf("offset = %d, want 1", s.offset)
	}
}

func TestResultScreen_EnterPops(t *testing.T) {
	s := New(testResult())
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestResultScreen_KeyHints(t *testing.T) {
	s := New(testResult())
	if len(s.KeyHints()) != 3 {
		t.Errorf("KeyHints length = %d, want 3", len(s.KeyHints()))
	}
}
