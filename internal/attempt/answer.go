package attempt

import (
	"math"
	"strconv"
	"strings"
)

// Answer is a candidate's response to one question. Choice questions use
// Selected (ordered option ids); numeric questions use Value.
type Answer struct {
	Selected []string `json:"selected,omitempty"`
	Value    *float64 `json:"value,omitempty"`
}

// ChoiceAnswer builds an answer from option ids.
func ChoiceAnswer(optionIDs ...string) Answer {
	return Answer{Selected: append([]string(nil), optionIDs...)}
}

// NumericAnswer builds an answer holding v.
func NumericAnswer(v float64) Answer {
	return Answer{Value: &v}
}

// IsEmpty reports whether the answer carries no response.
func (a Answer) IsEmpty() bool {
	return len(a.Selected) == 0 && a.Value == nil
}

// Has reports whether optionID is selected.
func (a Answer) Has(optionID string) bool {
	for _, id := range a.Selected {
		if id == optionID {
			return true
		}
	}
	return false
}

// String renders the answer for display and wire payloads.
func (a Answer) String() string {
	if a.Value != nil {
		return strconv.FormatFloat(*a.Value, 'f', -1, 64)
	}
	return strings.Join(a.Selected, ",")
}

func (a Answer) clone() Answer {
	out := Answer{}
	if a.Selected != nil {
		out.Selected = append([]string(nil), a.Selected...)
	}
	if a.Value != nil {
		v := *a.Value
		out.Value = &v
	}
	return out
}

// AnswerStore maps question id to the captured answer.
type AnswerStore struct {
	answers map[string]Answer
}

// NewAnswerStore creates an empty store.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[string]Answer)}
}

// Save overwrites any existing answer for id. Callers pass the complete
// selection set; there is no merging.
func (s *AnswerStore) Save(id string, a Answer) {
	s.answers[id] = a.clone()
}

// Clear removes the answer for id.
func (s *AnswerStore) Clear(id string) {
	delete(s.answers, id)
}

// Get returns the answer for id and whether one exists.
func (s *AnswerStore) Get(id string) (Answer, bool) {
	a, ok := s.answers[id]
	if !ok {
		return Answer{}, false
	}
	return a.clone(), true
}

// Has reports whether an answer exists for id.
func (s *AnswerStore) Has(id string) bool {
	_, ok := s.answers[id]
	return ok
}

// Len returns the number of stored answers.
func (s *AnswerStore) Len() int {
	return len(s.answers)
}

// Snapshot returns a deep copy of every stored answer.
func (s *AnswerStore) Snapshot() map[string]Answer {
	out := make(map[string]Answer, len(s.answers))
	for id, a := range s.answers {
		out[id] = a.clone()
	}
	return out
}

// ToggleOption applies an option press to the current selection.
// Single choice replaces the whole set; multi choice removes an already
// selected option or appends a new one.
func ToggleOption(qt QuestionType, current Answer, optionID string) Answer {
	if qt != TypeMultiChoice {
		return ChoiceAnswer(optionID)
	}
	if current.Has(optionID) {
		next := make([]string, 0, len(current.Selected))
		for _, id := range current.Selected {
			if id != optionID {
				next = append(next, id)
			}
		}
		return Answer{Selected: next}
	}
	next := append(append([]string(nil), current.Selected...), optionID)
	return Answer{Selected: next}
}

// NumericInput is the outcome of parsing free-text numeric input.
type NumericInput int

const (
	NumericPending NumericInput = iota // Empty or a lone minus sign
	NumericValid                       // Parsed to a value
	NumericInvalid                     // Could not be parsed
)

// ParseNumeric interprets free text typed into a numeric question.
// Integer questions accept whole numbers only. Input is never rejected;
// the caller decides what to store from the returned state.
func ParseNumeric(qt QuestionType, text string) (float64, NumericInput) {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return 0, NumericPending
	}

	if qt == TypeInteger {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, NumericInvalid
		}
		return float64(n), NumericValid
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, NumericInvalid
	}
	return f, NumericValid
}
