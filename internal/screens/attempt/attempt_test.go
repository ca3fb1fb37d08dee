package attempt

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	att "github.com/abhisek/prepzone/internal/attempt"
	"github.com/abhisek/prepzone/internal/exam"
	"github.com/abhisek/prepzone/internal/router"
	"github.com/abhisek/prepzone/internal/screens/result"
	"github.com/abhisek/prepzone/internal/store"
)

const testPack = `{
  "id": "t1",
  "title": "Test One",
  "duration_minutes": 10,
  "sections": [
    {"name": "A", "questions": [
      {"id": "a1", "type": "MCQ_SINGLE", "text": "Pick Y", "marks": 4, "negative_marks": 1,
       "options": [{"id": "x", "text": "X"}, {"id": "y", "text": "Y"}], "correct": ["y"]},
      {"id": "a2", "type": "NUMERICAL", "text": "One and a half?", "marks": 2, "correct_value": 1.5, "tolerance": 0.1}
    ]},
    {"name": "B", "questions": [
      {"id": "b1", "type": "MCQ_MULTIPLE", "text": "P and R", "marks": 4, "negative_marks": 2,
       "options": [{"id": "p", "text": "P"}, {"id": "q", "text": "Q"}, {"id": "r", "text": "R"}], "correct": ["p", "r"]},
      {"id": "b2", "type": "INTEGER", "text": "Seven?", "marks": 3, "correct_value": 7}
    ]}
  ]
}`

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// memRepo implements store.AttemptRepo in memory.
type memRepo struct {
	records []store.AttemptRecord
	events  []store.AttemptEvent
}

func (m *memRepo) SaveAttempt(_ context.Context, rec *store.AttemptRecord) error {
	m.records = append(m.records, *rec)
	return nil
}
func (m *memRepo) GetAttempt(_ context.Context, _ string) (*store.AttemptRecord, error) {
	return nil, nil
}
func (m *memRepo) ListAttempts(_ context.Context, _ store.QueryOpts) ([]store.AttemptRecord, error) {
	return m.records, nil
}
func (m *memRepo) AppendEvent(_ context.Context, ev store.AttemptEvent) (int64, error) {
	m.events = append(m.events, ev)
	return int64(len(m.events)), nil
}
func (m *memRepo) Events(_ context.Context, _ string) ([]store.AttemptEvent, error) {
	return m.events, nil
}
func (m *memRepo) Reset(_ context.Context) error {
	m.records, m.events = nil, nil
	return nil
}

// noDurationService drops the duration from the start payload.
type noDurationService struct {
	*exam.MockService
}

func (s noDurationService) StartAttempt(ctx context.Context, testID string) (*exam.Session, error) {
	sess, err := s.MockService.StartAttempt(ctx, testID)
	if err != nil {
		return nil, err
	}
	sess.DurationSeconds = 0
	return sess, nil
}

// flakySubmitService fails the first Submit.
type flakySubmitService struct {
	*exam.MockService
	failed bool
}

func (s *flakySubmitService) Submit(ctx context.Context, req exam.SubmitRequest) error {
	if !s.failed {
		s.failed = true
		return &exam.ErrUnavailable{Err: errors.New("connection reset")}
	}
	return s.MockService.Submit(ctx, req)
}

// zeroLeftService resumes every attempt with no time left.
type zeroLeftService struct {
	*exam.MockService
}

func (s zeroLeftService) StartAttempt(ctx context.Context, testID string) (*exam.Session, error) {
	sess, err := s.MockService.StartAttempt(ctx, testID)
	if err != nil {
		return nil, err
	}
	zero := 0
	sess.RemainingSeconds = &zero
	return sess, nil
}

// expiredStateService sends no duration and reports the attempt as out of time.
type expiredStateService struct {
	noDurationService
}

func (s expiredStateService) AttemptState(ctx context.Context, attemptID string) (*exam.State, error) {
	return &exam.State{AttemptID: attemptID}, nil
}

// progressService resumes with saved answers and statuses.
type progressService struct {
	*exam.MockService
	answers  map[string]att.Answer
	statuses map[string]att.Status
}

func (s progressService) StartAttempt(ctx context.Context, testID string) (*exam.Session, error) {
	sess, err := s.MockService.StartAttempt(ctx, testID)
	if err != nil {
		return nil, err
	}
	sess.Answers = s.answers
	sess.Statuses = s.statuses
	return sess, nil
}

// conflictSubmitService accepts the submit but reports it as a duplicate,
// as the platform does when a lost reply was retried.
type conflictSubmitService struct {
	*exam.MockService
}

func (s conflictSubmitService) Submit(ctx context.Context, req exam.SubmitRequest) error {
	if err := s.MockService.Submit(ctx, req); err != nil {
		return err
	}
	return &exam.ErrRejected{Status: http.StatusConflict, Message: "attempt already submitted"}
}

func newMock(t *testing.T) *exam.MockService {
	t.Helper()
	p, err := exam.ParsePack("test.json", []byte(testPack))
	require.NoError(t, err)
	return exam.NewMockService([]*exam.Pack{p}, exam.WithClock(func() time.Time { return t0 }))
}

func newScreen(svc exam.Service, repo store.AttemptRepo, maxWarnings int) *AttemptScreen {
	s := New(svc, repo, "t1", Settings{MaxWarnings: maxWarnings}, zerolog.Nop())
	s.now = func() time.Time { return t0 }
	return s
}

// started runs the start command and applies its message. The returned
// command holds the tick loop and is not executed.
func started(t *testing.T, s *AttemptScreen) {
	t.Helper()
	s.Update(s.Init()())
	require.NotNil(t, s.engine, s.errMsg)
}

// exec runs cmd and any batched commands, returning the messages.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, exec(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// feed applies every message produced by cmd.
func feed(s *AttemptScreen, cmd tea.Cmd) []tea.Cmd {
	var next []tea.Cmd
	for _, msg := range exec(cmd) {
		_, c := s.Update(msg)
		next = append(next, c)
	}
	return next
}

// choose presses an option key and completes the autosave round trip.
func choose(t *testing.T, s *AttemptScreen, r rune) {
	t.Helper()
	_, cmd := s.Update(key(r))
	next := feed(s, cmd)
	require.Len(t, next, 1)
	feed(s, next[0])
}

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestAttemptScreen_Start(t *testing.T) {
	s := newScreen(newMock(t), nil, 1)
	started(t, s)

	assert.Equal(t, "Test One", s.Title())
	assert.Equal(t, 4, s.engine.Total())
	assert.Equal(t, 600, s.engine.Remaining())
	assert.True(t, s.engine.Running())
	assert.Equal(t, att.StatusNotAnswered, s.engine.StatusOf("a1"))
	assert.Equal(t, att.StatusNotVisited, s.engine.StatusOf("a2"))
	assert.True(t, s.InterceptBack())
	assert.Contains(t, s.HeaderStatus(), "10:00")
	assert.NotEmpty(t, s.View(120, 30))
}

func TestAttemptScreen_StartError(t *testing.T) {
	s := newScreen(newMock(t), nil, 1)
	s.testID = "missing"
	s.Update(s.Init()())

	assert.Nil(t, s.engine)
	assert.Contains(t, s.errMsg, "Could not start")
	assert.False(t, s.InterceptBack())

	_, cmd := s.Update(key('x'))
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())
}

func TestAttemptScreen_SelectOptionAutosaves(t *testing.T) {
	svc := newMock(t)
	s := newScreen(svc, nil, 1)
	started(t, s)

	choose(t, s, '2')

	a, ok := s.engine.CurrentAnswer()
	require.True(t, ok)
	assert.Equal(t, []string{"y"}, a.Selected)
	assert.Equal(t, att.StatusAnswered, s.engine.StatusOf("a1"))
	assert.Equal(t, "y", s.saved["a1"])
	assert.Empty(t, s.saveErr)

	resumed, err := svc.StartAttempt(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, resumed.Answers["a1"].Selected)
}

func TestAttemptScreen_NavigateAndMark(t *testing.T) {
	s := newScreen(newMock(t), nil, 1)
	started(t, s)

	s.Update(key('n'))
	assert.Equal(t, 1, s.engine.CurrentIndex())
	assert.Equal(t, att.StatusNotAnswered, s.engine.StatusOf("a2"))

	s.Update(key('m'))
	assert.Equal(t, att.StatusMarkedForReview, s.engine.StatusOf("a2"))

	s.Update(key('p'))
	assert.Equal(t, 0, s.engine.CurrentIndex())

	s.Update(key('p'))
	assert.Equal(t, 0, s.engine.CurrentIndex())
}

func TestAttemptScreen_NumericInput(t *testing.T) {
	s := newScreen(newMock(t), nil, 1)
	started(t, s)
	s.Update(key('n'))

	for _, r := range "1.5" {
		s.Update(key(r))
	}
	assert.Equal(t, "1.5", s.input.Value())
	assert.Equal(t, att.NumericValid, s.input.State())

	a, ok := s.engine.CurrentAnswer()
	require.True(t, ok)
	require.NotNil(t, a.Value)
	assert.Equal(t, 1.5, *a.Value)

	// Letters never reach the input.
	s.Update(key('z'))
	assert.Equal(t, "1.5", s.input.Value())

	// Leaving the question autosaves the typed value.
	_, cmd := s.Update(key('n'))
	feed(s, cmd)
	assert.Equal(t, "1.5", s.saved["a2"])
}

func TestAttemptScreen_ClearResponse(t *testing.T) {
	svc := newMock(t)
	s := newScreen(svc, nil, 1)
	started(t, s)

	choose(t, s, '1')
	s.Update(key('m'))
	require.Equal(t, att.StatusAnsweredAndMarked, s.engine.StatusOf("a1"))

	_, cmd := s.Update(key('c'))
	feed(s, cmd)

	assert.Equal(t, att.StatusNotAnswered, s.engine.StatusOf("a1"))
	_, ok := s.engine.CurrentAnswer()
	assert.False(t, ok)

	resumed, err := svc.StartAttempt(context.Background(), "t1")
	require.NoError(t, err)
	assert.NotContains(t, resumed.Answers, "a1")
}

func TestAttemptScreen_PaletteJump(t *testing.T) {
	s := newScreen(newMock(t), nil, 1)
	started(t, s)

	s.Update(key('g'))
	require.True(t, s.palette.Focused)

	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	feed(s, cmd)

	assert.False(t, s.palette.Focused)
	assert.Equal(t, 2, s.engine.CurrentIndex())
	assert.Equal(t, att.StatusNotAnswered, s.engine.StatusOf("b1"))
}

func TestAttemptScreen_ManualSubmit(t *testing.T) {
	repo := &memRepo{}
	s := newScreen(newMock(t), repo, 1)
	started(t, s)

	_, cmd := s.Update(key('2'))
	feed(s, cmd)

	s.Update(key('s'))
	require.True(t, s.showConfirm)

	// Focus starts on "Keep working".
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.False(t, s.showConfirm)
	assert.False(t, s.ending)

	s.Update(key('s'))
	s.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.True(t, s.ending)
	assert.True(t, s.engine.Stopped())
	assert.Equal(t, exam.EndManual, s.endReason)

	next := feed(s, cmd)
	require.Len(t, next, 1)
	msgs := exec(next[0])
	require.Len(t, msgs, 1)
	replace, ok := msgs[0].(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.IsType(t, &result.ResultScreen{}, replace.Screen)

	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, "t1", rec.TestID)
	assert.Equal(t, "manual", rec.Reason)
	assert.Equal(t, 4.0, rec.Score)
	assert.Equal(t, 1, rec.Correct)
	assert.Equal(t, 3, rec.Unattempted)
	assert.Equal(t, "mock", rec.Backend)

	require.Len(t, repo.events, 2)
	assert.Equal(t, store.EventStarted, repo.events[0].Kind)
	assert.Equal(t, store.EventSubmitted, repo.events[1].Kind)
}

func TestAttemptScreen_EscOpensConfirm(t *testing.T) {
	s := newScreen(newMock(t), nil, 1)
	started(t, s)

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.True(t, s.showConfirm)
	assert.NotEmpty(t, s.View(120, 30))

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.False(t, s.showConfirm)
	assert.False(t, s.ending)
}

func TestAttemptScreen_TimeUpSubmits(t *testing.T) {
	repo := &memRepo{}
	s := newScreen(newMock(t), repo, 1)
	started(t, s)

	_, cmd := s.Update(timerTickMsg(t0.Add(599 * time.Second)))
	assert.Equal(t, 1, s.engine.Remaining())
	assert.False(t, s.ending)
	assert.NotNil(t, cmd)

	_, cmd = s.Update(timerTickMsg(t0.Add(600 * time.Second)))
	require.True(t, s.ending)
	assert.Equal(t, exam.EndTimeUp, s.endReason)
	assert.Equal(t, 0, s.engine.Remaining())

	feed(s, cmd)
	require.Len(t, repo.records, 1)
	assert.Equal(t, "time_up", repo.records[0].Reason)

	// Ticks after the end are ignored.
	_, cmd = s.Update(timerTickMsg(t0.Add(601 * time.Second)))
	assert.Nil(t, cmd)
}

func TestAttemptScreen_BlurForcesSubmit(t *testing.T) {
	repo := &memRepo{}
	s := newScreen(newMock(t), repo, 1)
	started(t, s)

	_, cmd := s.Update(tea.BlurMsg{})
	require.True(t, s.ending)
	assert.Equal(t, exam.EndViolation, s.endReason)
	assert.Equal(t, att.ReasonBackground, s.violationReason)
	assert.Equal(t, 0, s.source.listeners())

	feed(s, cmd)
	require.Len(t, repo.records, 1)
	assert.Equal(t, "violation", repo.records[0].Reason)
	assert.Equal(t, 1, repo.records[0].Violations)

	require.Len(t, repo.events, 3)
	assert.Equal(t, store.EventViolation, repo.events[1].Kind)
	assert.Equal(t, att.ReasonBackground, repo.events[1].Data["reason"])
}

func TestAttemptScreen_WarningsBelowThreshold(t *testing.T) {
	s := newScreen(newMock(t), &memRepo{}, 2)
	started(t, s)

	s.Update(tea.BlurMsg{})
	assert.False(t, s.ending)
	assert.Contains(t, s.warning, "Warning 1/2")
	assert.Contains(t, s.HeaderStatus(), "1/2")

	// Returning to the app is not a violation.
	s.Update(tea.FocusMsg{})
	assert.Len(t, s.violations, 1)

	s.Update(screenshotMsg{})
	assert.True(t, s.ending)
	assert.Equal(t, att.ReasonScreenshot, s.violationReason)
}

func TestAttemptScreen_AdoptsLateDuration(t *testing.T) {
	mock := newMock(t)
	s := newScreen(noDurationService{mock}, nil, 1)
	started(t, s)

	assert.False(t, s.engine.Running())
	assert.Contains(t, s.HeaderStatus(), "--:--")

	s.Update(s.fetchState()())
	assert.Equal(t, 600, s.engine.Remaining())
	assert.True(t, s.engine.Running())
}

func TestAttemptScreen_Resume(t *testing.T) {
	mock := newMock(t)
	first := newScreen(mock, nil, 1)
	started(t, first)
	choose(t, first, '2')

	second := newScreen(mock, nil, 1)
	started(t, second)

	assert.Equal(t, first.session.AttemptID, second.session.AttemptID)
	assert.Equal(t, 0, second.engine.CurrentIndex())
	assert.Equal(t, att.StatusAnswered, second.engine.StatusOf("a1"))
	a, ok := second.engine.CurrentAnswer()
	require.True(t, ok)
	assert.Equal(t, []string{"y"}, a.Selected)
}

func TestAttemptScreen_SubmitRetry(t *testing.T) {
	svc := &flakySubmitService{MockService: newMock(t)}
	s := newScreen(svc, nil, 1)
	started(t, s)

	cmd := s.finish(exam.EndManual)
	feed(s, cmd)
	require.NotEmpty(t, s.submitErr)
	assert.Len(t, s.KeyHints(), 2)

	_, cmd = s.Update(key('r'))
	assert.Empty(t, s.submitErr)
	next := feed(s, cmd)
	require.Len(t, next, 1)
	require.NotNil(t, next[0])
	assert.IsType(t, router.ReplaceScreenMsg{}, next[0]())
}

func TestAttemptScreen_FinishOnce(t *testing.T) {
	s := newScreen(newMock(t), nil, 1)
	started(t, s)

	require.NotNil(t, s.finish(exam.EndManual))
	assert.Nil(t, s.finish(exam.EndTimeUp))
	assert.Equal(t, exam.EndManual, s.endReason)
}

func TestAttemptScreen_CloseReleasesMonitor(t *testing.T) {
	s := newScreen(newMock(t), nil, 1)
	started(t, s)
	require.Equal(t, 2, s.source.listeners())

	s.Close()
	s.Close()
	assert.Equal(t, 0, s.source.listeners())
	assert.True(t, s.engine.Stopped())
}

func TestAttemptScreen_ResumeWithNoTimeLeftSubmits(t *testing.T) {
	repo := &memRepo{}
	s := newScreen(zeroLeftService{newMock(t)}, repo, 1)

	_, cmd := s.Update(s.Init()())
	require.NotNil(t, s.engine)
	require.True(t, s.ending)
	assert.Equal(t, exam.EndTimeUp, s.endReason)
	assert.True(t, s.engine.Stopped())

	feed(s, cmd)
	require.Len(t, repo.records, 1)
	assert.Equal(t, "time_up", repo.records[0].Reason)

	_, cmd = s.Update(timerTickMsg(t0.Add(time.Second)))
	assert.Nil(t, cmd)
}

func TestAttemptScreen_LateStateWithNoTimeLeftSubmits(t *testing.T) {
	s := newScreen(expiredStateService{noDurationService{newMock(t)}}, nil, 1)
	started(t, s)
	require.False(t, s.ending)

	_, cmd := s.Update(s.fetchState()())
	require.True(t, s.ending)
	assert.Equal(t, exam.EndTimeUp, s.endReason)
	assert.NotNil(t, cmd)
}

func TestAttemptScreen_ResumeRestoresStatuses(t *testing.T) {
	svc := progressService{
		MockService: newMock(t),
		answers: map[string]att.Answer{
			"b2": att.NumericAnswer(7),
		},
		statuses: map[string]att.Status{
			"a2": att.StatusMarkedForReview,
			"b1": att.StatusNotAnswered,
			"b2": att.StatusAnsweredAndMarked,
		},
	}
	s := newScreen(svc, nil, 1)
	started(t, s)

	assert.Equal(t, 0, s.engine.CurrentIndex())
	assert.Equal(t, att.StatusNotAnswered, s.engine.StatusOf("a1"))
	assert.Equal(t, att.StatusMarkedForReview, s.engine.StatusOf("a2"))
	assert.Equal(t, att.StatusNotAnswered, s.engine.StatusOf("b1"))
	assert.Equal(t, att.StatusAnsweredAndMarked, s.engine.StatusOf("b2"))
}

func TestAttemptScreen_DuplicateSubmitShowsResult(t *testing.T) {
	s := newScreen(conflictSubmitService{newMock(t)}, nil, 1)
	started(t, s)

	next := feed(s, s.finish(exam.EndManual))
	assert.Empty(t, s.submitErr)
	require.Len(t, next, 1)
	require.NotNil(t, next[0])
	assert.IsType(t, router.ReplaceScreenMsg{}, next[0]())
}
