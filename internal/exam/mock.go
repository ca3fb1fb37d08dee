package exam

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/prepzone/internal/attempt"
)

// MockService serves tests from local packs and grades them in-process, so
// the client works offline for practice.
type MockService struct {
	mu       sync.Mutex
	packs    map[string]*Pack
	order    []string
	attempts map[string]*mockAttempt
	now      func() time.Time
}

type mockAttempt struct {
	id         string
	pack       *Pack
	startedAt  time.Time
	duration   time.Duration
	answers    map[string]attempt.Answer
	violations []string
	result     *Result
}

// MockOption configures a MockService.
type MockOption func(*MockService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MockOption {
	return func(m *MockService) { m.now = now }
}

// NewMockService creates a service over packs. Later packs with a
// duplicate id replace earlier ones.
func NewMockService(packs []*Pack, opts ...MockOption) *MockService {
	m := &MockService{
		packs:    make(map[string]*Pack),
		attempts: make(map[string]*mockAttempt),
		now:      time.Now,
	}
	for _, p := range packs {
		if _, ok := m.packs[p.ID]; !ok {
			m.order = append(m.order, p.ID)
		}
		m.packs[p.ID] = p
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMockServiceFromDir loads the built-in packs plus any in dir.
func NewMockServiceFromDir(dir string, opts ...MockOption) (*MockService, error) {
	builtin, err := LoadBuiltinPacks()
	if err != nil {
		return nil, fmt.Errorf("load built-in packs: %w", err)
	}
	local, err := LoadPackDir(dir)
	if err != nil {
		return nil, err
	}
	return NewMockService(append(builtin, local...), opts...), nil
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) Close() error { return nil }

func (m *MockService) ListTests(_ context.Context) ([]TestInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TestInfo, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.packs[id].Info())
	}
	return out, nil
}

func (m *MockService) StartAttempt(_ context.Context, testID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.packs[testID]
	if !ok {
		return nil, &ErrNotFound{Kind: "test", ID: testID}
	}

	now := m.now()
	for _, a := range m.attempts {
		if a.pack.ID != testID || a.result != nil {
			continue
		}
		remaining := a.remaining(now)
		if remaining <= 0 {
			continue
		}
		return &Session{
			AttemptID:        a.id,
			TestID:           p.ID,
			Title:            p.Title,
			Questions:        p.Questions(),
			DurationSeconds:  int(a.duration / time.Second),
			RemainingSeconds: &remaining,
			Answers:          copyAnswers(a.answers),
			StartedAt:        a.startedAt,
		}, nil
	}

	a := &mockAttempt{
		id:        uuid.NewString(),
		pack:      p,
		startedAt: now,
		duration:  time.Duration(p.DurationMinutes) * time.Minute,
		answers:   make(map[string]attempt.Answer),
	}
	m.attempts[a.id] = a

	return &Session{
		AttemptID:       a.id,
		TestID:          p.ID,
		Title:           p.Title,
		Questions:       p.Questions(),
		DurationSeconds: p.DurationMinutes * 60,
		StartedAt:       now,
	}, nil
}

func (m *MockService) AttemptState(_ context.Context, attemptID string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[attemptID]
	if !ok {
		return nil, &ErrNotFound{Kind: "attempt", ID: attemptID}
	}
	return &State{
		AttemptID:        a.id,
		RemainingSeconds: a.remaining(m.now()),
		Submitted:        a.result != nil,
		Violations:       len(a.violations),
	}, nil
}

func (m *MockService) SaveAnswer(_ context.Context, attemptID, questionID string, ans attempt.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.open(attemptID)
	if err != nil {
		return err
	}
	if _, ok := a.pack.question(questionID); !ok {
		return &ErrNotFound{Kind: "question", ID: questionID}
	}
	if ans.IsEmpty() {
		delete(a.answers, questionID)
		return nil
	}
	a.answers[questionID] = ans
	return nil
}

func (m *MockService) ReportViolation(_ context.Context, attemptID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.open(attemptID)
	if err != nil {
		return err
	}
	a.violations = append(a.violations, reason)
	return nil
}

func (m *MockService) Submit(_ context.Context, req SubmitRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.open(req.AttemptID)
	if err != nil {
		return err
	}

	// The submitted snapshot is authoritative over earlier autosaves.
	answers := copyAnswers(a.answers)
	if req.Answers != nil {
		answers = copyAnswers(req.Answers)
	}

	res := Grade(a.pack, answers)
	res.AttemptID = a.id
	res.Reason = req.Reason
	if res.Reason == "" {
		res.Reason = EndManual
	}
	res.SubmittedAt = m.now()
	a.answers = answers
	a.result = &res
	return nil
}

func (m *MockService) Result(_ context.Context, attemptID string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[attemptID]
	if !ok {
		return nil, &ErrNotFound{Kind: "attempt", ID: attemptID}
	}
	if a.result == nil {
		return nil, &ErrRejected{Status: http.StatusConflict, Message: "attempt not submitted"}
	}
	res := *a.result
	res.Questions = append([]QuestionResult(nil), a.result.Questions...)
	return &res, nil
}

// open returns an attempt that still accepts writes.
func (m *MockService) open(attemptID string) (*mockAttempt, error) {
	a, ok := m.attempts[attemptID]
	if !ok {
		return nil, &ErrNotFound{Kind: "attempt", ID: attemptID}
	}
	if a.result != nil {
		return nil, &ErrRejected{Status: http.StatusConflict, Message: "attempt already submitted"}
	}
	return a, nil
}

func (a *mockAttempt) remaining(now time.Time) int {
	left := a.duration - now.Sub(a.startedAt)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

func copyAnswers(in map[string]attempt.Answer) map[string]attempt.Answer {
	out := make(map[string]attempt.Answer, len(in))
	for id, a := range in {
		out[id] = a
	}
	return out
}
