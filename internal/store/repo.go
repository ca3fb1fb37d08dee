package store

import (
	"context"
	"time"
)

// QueryOpts configures attempt queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	TestID string    // only attempts on this test
	From   time.Time // submitted_at >= From
	To     time.Time // submitted_at <= To
}

// AttemptRecord is a submitted attempt with its graded summary.
type AttemptRecord struct {
	ID            int64
	AttemptID     string
	TestID        string
	Title         string
	Backend       string
	Reason        string
	Score         float64
	MaxScore      float64
	Correct       int
	Incorrect     int
	Unattempted   int
	Violations    int
	DurationSecs  int
	RemainingSecs int
	StartedAt     time.Time
	SubmittedAt   time.Time
}

// EventKind names an attempt audit event.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventViolation EventKind = "violation"
	EventSubmitted EventKind = "submitted"
)

// AttemptEvent is one entry in an attempt's audit log.
type AttemptEvent struct {
	Sequence  int64
	AttemptID string
	Kind      EventKind
	Timestamp time.Time
	Data      map[string]any
}

// AttemptRepo stores attempt history.
type AttemptRepo interface {
	// SaveAttempt inserts or replaces the record for rec.AttemptID.
	SaveAttempt(ctx context.Context, rec *AttemptRecord) error

	// GetAttempt returns the record for attemptID, or nil if none exists.
	GetAttempt(ctx context.Context, attemptID string) (*AttemptRecord, error)

	// ListAttempts returns records newest first.
	ListAttempts(ctx context.Context, opts QueryOpts) ([]AttemptRecord, error)

	// AppendEvent adds an event, assigning the next sequence number.
	AppendEvent(ctx context.Context, ev AttemptEvent) (int64, error)

	// Events returns the events of attemptID in append order.
	Events(ctx context.Context, attemptID string) ([]AttemptEvent, error)

	// Reset deletes all history.
	Reset(ctx context.Context) error
}
