package attempt

import "fmt"

// Status is the palette state of a single question.
type Status int

const (
	StatusNotVisited Status = iota // Never shown to the candidate
	StatusNotAnswered              // Visited, no stored answer
	StatusAnswered                 // Has a stored answer
	StatusMarkedForReview          // Flagged, no answer
	StatusAnsweredAndMarked        // Flagged, has answer
)

// AllStatuses lists every status in palette legend order.
var AllStatuses = []Status{
	StatusNotVisited,
	StatusNotAnswered,
	StatusAnswered,
	StatusMarkedForReview,
	StatusAnsweredAndMarked,
}

var statusNames = map[Status]string{
	StatusNotVisited:        "NOT_VISITED",
	StatusNotAnswered:       "NOT_ANSWERED",
	StatusAnswered:          "ANSWERED",
	StatusMarkedForReview:   "MARKED_FOR_REVIEW",
	StatusAnsweredAndMarked: "ANSWERED_AND_MARKED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for st, name := range statusNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(text))
}

// IsMarked reports whether the question carries a review flag.
func (s Status) IsMarked() bool {
	return s == StatusMarkedForReview || s == StatusAnsweredAndMarked
}

// StatusBoard holds the status of every question in an attempt.
// The zero value is not usable; use NewStatusBoard.
type StatusBoard struct {
	statuses map[string]Status
}

// NewStatusBoard creates an empty board.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{statuses: make(map[string]Status)}
}

// Initialize sets NOT_VISITED for every question lacking an entry.
// Existing entries are left alone, so repeated calls are safe.
func (b *StatusBoard) Initialize(questions []Question) {
	for _, q := range questions {
		if _, ok := b.statuses[q.ID]; !ok {
			b.statuses[q.ID] = StatusNotVisited
		}
	}
}

// Get returns the status for id. Unknown ids are NOT_VISITED.
func (b *StatusBoard) Get(id string) Status {
	if st, ok := b.statuses[id]; ok {
		return st
	}
	return StatusNotVisited
}

// Visit moves NOT_VISITED to NOT_ANSWERED. Any other status is unaffected.
func (b *StatusBoard) Visit(id string) {
	if b.Get(id) == StatusNotVisited {
		b.statuses[id] = StatusNotAnswered
	}
}

// RecordAnswer sets ANSWERED regardless of the prior status. Only
// MarkForReview produces ANSWERED_AND_MARKED.
func (b *StatusBoard) RecordAnswer(id string) {
	b.statuses[id] = StatusAnswered
}

// MarkForReview flags the question. It never un-marks: calling it on a
// marked question leaves the mark in place.
func (b *StatusBoard) MarkForReview(id string, hasAnswer bool) {
	if hasAnswer {
		b.statuses[id] = StatusAnsweredAndMarked
		return
	}
	b.statuses[id] = StatusMarkedForReview
}

// Clear resets the question to NOT_ANSWERED, dropping any review mark.
func (b *StatusBoard) Clear(id string) {
	b.statuses[id] = StatusNotAnswered
}

// Snapshot returns a copy of every recorded status.
func (b *StatusBoard) Snapshot() map[string]Status {
	out := make(map[string]Status, len(b.statuses))
	for id, st := range b.statuses {
		out[id] = st
	}
	return out
}

// Counts tallies statuses across questions for the palette legend.
func (b *StatusBoard) Counts(questions []Question) map[Status]int {
	counts := make(map[Status]int, len(AllStatuses))
	for _, q := range questions {
		counts[b.Get(q.ID)]++
	}
	return counts
}
