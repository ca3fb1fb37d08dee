package attempt

import "testing"

func testQuestions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			ID:       string(rune('1'+i)) + "q",
			Position: i + 1,
			Type:     TypeSingleChoice,
			Options: []Option{
				{ID: "A", Text: "alpha"},
				{ID: "B", Text: "beta"},
				{ID: "C", Text: "gamma"},
			},
			Marks:         4,
			NegativeMarks: 1,
		}
	}
	return qs
}

func TestStatusBoard_DefaultsToNotVisited(t *testing.T) {
	b := NewStatusBoard()
	if got := b.Get("missing"); got != StatusNotVisited {
		t.Errorf("Get(missing) = %v, want NOT_VISITED", got)
	}
}

func TestStatusBoard_InitializeIsIdempotent(t *testing.T) {
	qs := testQuestions(3)
	b := NewStatusBoard()
	b.Initialize(qs)
	b.RecordAnswer(qs[0].ID)
	b.Visit(qs[1].ID)

	b.Initialize(qs)

	if got := b.Get(qs[0].ID); got != StatusAnswered {
		t.Errorf("q0 = %v, want ANSWERED", got)
	}
	if got := b.Get(qs[1].ID); got != StatusNotAnswered {
		t.Errorf("q1 = %v, want NOT_ANSWERED", got)
	}
	if got := b.Get(qs[2].ID); got != StatusNotVisited {
		t.Errorf("q2 = %v, want NOT_VISITED", got)
	}
}

func TestStatusBoard_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		apply func(b *StatusBoard, id string)
		want  Status
	}{
		{"visit", func(b *StatusBoard, id string) { b.Visit(id) }, StatusNotAnswered},
		{"visit twice", func(b *StatusBoard, id string) { b.Visit(id); b.Visit(id) }, StatusNotAnswered},
		{"visit after answer", func(b *StatusBoard, id string) { b.RecordAnswer(id); b.Visit(id) }, StatusAnswered},
		{"visit after mark", func(b *StatusBoard, id string) { b.MarkForReview(id, false); b.Visit(id) }, StatusMarkedForReview},
		{"answer overrides mark", func(b *StatusBoard, id string) { b.MarkForReview(id, false); b.RecordAnswer(id) }, StatusAnswered},
		{"answer overrides answered mark", func(b *StatusBoard, id string) { b.MarkForReview(id, true); b.RecordAnswer(id) }, StatusAnswered},
		{"mark without answer", func(b *StatusBoard, id string) { b.MarkForReview(id, false) }, StatusMarkedForReview},
		{"mark with answer", func(b *StatusBoard, id string) { b.MarkForReview(id, true) }, StatusAnsweredAndMarked},
		{"mark twice stays marked", func(b *StatusBoard, id string) { b.MarkForReview(id, true); b.MarkForReview(id, true) }, StatusAnsweredAndMarked},
		{"clear after answer", func(b *StatusBoard, id string) { b.RecordAnswer(id); b.Clear(id) }, StatusNotAnswered},
		{"clear drops mark", func(b *StatusBoard, id string) { b.MarkForReview(id, true); b.Clear(id) }, StatusNotAnswered},
		{"clear unvisited", func(b *StatusBoard, id string) { b.Clear(id) }, StatusNotAnswered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewStatusBoard()
			b.Initialize(testQuestions(1))
			id := testQuestions(1)[0].ID
			tt.apply(b, id)
			if got := b.Get(id); got != tt.want {
				t.Errorf("status = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusBoard_Counts(t *testing.T) {
	qs := testQuestions(4)
	b := NewStatusBoard()
	b.Initialize(qs)
	b.Visit(qs[0].ID)
	b.RecordAnswer(qs[1].ID)
	b.MarkForReview(qs[2].ID, true)

	counts := b.Counts(qs)
	want := map[Status]int{
		StatusNotVisited:        1,
		StatusNotAnswered:       1,
		StatusAnswered:          1,
		StatusAnsweredAndMarked: 1,
	}
	for st, n := range want {
		if counts[st] != n {
			t.Errorf("counts[%v] = %d, want %d", st, counts[st], n)
		}
	}
	if counts[StatusMarkedForReview] != 0 {
		t.Errorf("counts[MARKED_FOR_REVIEW] = %d, want 0", counts[StatusMarkedForReview])
	}
}

func TestStatus_TextRoundTrip(t *testing.T) {
	for _, st := range AllStatuses {
		text, err := st.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", st, err)
		}
		var got Status
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if got != st {
			t.Errorf("round trip %v -> %v", st, got)
		}
	}

	var s Status
	if err := s.UnmarshalText([]byte("SKIPPED")); err == nil {
		t.Error("expected error for unknown status name")
	}
}
