// Package exam is the client side of the exam platform: listing tests,
// starting attempts, autosaving answers, reporting violations and
// submitting for a result.
package exam

import (
	"context"
	"time"

	"github.com/abhisek/prepzone/internal/attempt"
)

// Service is the platform abstraction consumed by the UI. Implementations
// are chosen by NewService; callers never branch on mock vs live.
type Service interface {
	// ListTests returns the tests available to the candidate.
	ListTests(ctx context.Context) ([]TestInfo, error)

	// StartAttempt opens an attempt on testID and returns its flattened
	// question list and timing. Starting a test that already has an open
	// attempt resumes it with the server's remaining time.
	StartAttempt(ctx context.Context, testID string) (*Session, error)

	// AttemptState returns the server view of a running attempt.
	AttemptState(ctx context.Context, attemptID string) (*State, error)

	// SaveAnswer autosaves one answer. An empty answer clears it.
	SaveAnswer(ctx context.Context, attemptID, questionID string, a attempt.Answer) error

	// ReportViolation records a security event against the attempt.
	ReportViolation(ctx context.Context, attemptID, reason string) error

	// Submit finalizes the attempt.
	Submit(ctx context.Context, req SubmitRequest) error

	// Result returns the graded outcome of a submitted attempt.
	Result(ctx context.Context, attemptID string) (*Result, error)

	// Name identifies the backend in logs.
	Name() string

	// Close releases connections held by the service.
	Close() error
}

// TestInfo describes one test in the catalog.
type TestInfo struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	DurationMinutes int      `json:"duration_minutes"`
	QuestionCount   int      `json:"question_count"`
	TotalMarks      float64  `json:"total_marks"`
	Sections        []string `json:"sections,omitempty"`
}

// Session is an opened attempt.
type Session struct {
	AttemptID string             `json:"attempt_id"`
	TestID    string             `json:"test_id"`
	Title     string             `json:"title"`
	Questions []attempt.Question `json:"questions"`

	// DurationSeconds is zero when the platform did not send a duration;
	// callers then fetch it with AttemptState.
	DurationSeconds int `json:"duration_seconds"`

	// RemainingSeconds is set when an existing attempt is resumed.
	RemainingSeconds *int `json:"remaining_seconds,omitempty"`

	// Answers holds previously autosaved answers on resume.
	Answers map[string]attempt.Answer `json:"answers,omitempty"`

	// Statuses holds palette statuses on resume when the platform keeps
	// them. Review marks and visits are only restored from here.
	Statuses map[string]attempt.Status `json:"statuses,omitempty"`

	StartedAt time.Time `json:"started_at"`
}

// State is the platform's view of a running attempt.
type State struct {
	AttemptID        string `json:"attempt_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Submitted        bool   `json:"submitted"`
	Violations       int    `json:"violations"`
}

// EndReason records why an attempt ended.
type EndReason string

const (
	EndManual    EndReason = "manual"
	EndTimeUp    EndReason = "time_up"
	EndViolation EndReason = "violation"
)

// SubmitRequest carries the final attempt state.
type SubmitRequest struct {
	AttemptID       string                    `json:"attempt_id"`
	Answers         map[string]attempt.Answer `json:"answers"`
	Statuses        map[string]attempt.Status `json:"statuses"`
	Reason          EndReason                 `json:"reason"`
	ViolationReason string                    `json:"violation_reason,omitempty"`
	RemainingSecs   int                       `json:"remaining_seconds"`
}

// Outcome is the graded state of one question.
type Outcome string

const (
	OutcomeCorrect     Outcome = "correct"
	OutcomeIncorrect   Outcome = "incorrect"
	OutcomeUnattempted Outcome = "unattempted"
)

// QuestionResult is the graded outcome of one question.
type QuestionResult struct {
	QuestionID string  `json:"question_id"`
	Position   int     `json:"position"`
	Section    string  `json:"section,omitempty"`
	Outcome    Outcome `json:"outcome"`
	Awarded    float64 `json:"awarded"`
	Given      string  `json:"given,omitempty"`
	Expected   string  `json:"expected,omitempty"`
}

// Result is the graded outcome of a submitted attempt.
type Result struct {
	AttemptID   string           `json:"attempt_id"`
	TestID      string           `json:"test_id"`
	Title       string           `json:"title"`
	Score       float64          `json:"score"`
	MaxScore    float64          `json:"max_score"`
	Correct     int              `json:"correct"`
	Incorrect   int              `json:"incorrect"`
	Unattempted int              `json:"unattempted"`
	Reason      EndReason        `json:"reason"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Questions   []QuestionResult `json:"questions,omitempty"`
}

// Percent returns the score as a percentage of the maximum.
func (r *Result) Percent() float64 {
	if r.MaxScore <= 0 {
		return 0
	}
	return r.Score / r.MaxScore * 100
}
