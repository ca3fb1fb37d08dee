// Package attempt implements the client-side state machine for a timed test
// attempt: question status, answer capture, navigation, the countdown timer
// and the security monitor.
package attempt

// QuestionType enumerates the supported answer formats.
type QuestionType string

const (
	TypeSingleChoice QuestionType = "MCQ_SINGLE"
	TypeMultiChoice  QuestionType = "MCQ_MULTIPLE"
	TypeNumerical    QuestionType = "NUMERICAL"
	TypeInteger      QuestionType = "INTEGER"
)

// IsChoice reports whether answers are option selections.
func (t QuestionType) IsChoice() bool {
	return t == TypeSingleChoice || t == TypeMultiChoice
}

// IsNumeric reports whether answers are typed numbers.
func (t QuestionType) IsNumeric() bool {
	return t == TypeNumerical || t == TypeInteger
}

// Option is a single selectable choice.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is owned by the exam service and read-only to the engine.
type Question struct {
	ID            string       `json:"id"`
	Position      int          `json:"position"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text"`
	Options       []Option     `json:"options,omitempty"`
	Marks         float64      `json:"marks"`
	NegativeMarks float64      `json:"negative_marks"`
	Section       string       `json:"section,omitempty"`
}
