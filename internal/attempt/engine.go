package attempt

import (
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is a copy of the attempt state at one instant.
type Snapshot struct {
	CurrentIndex int
	Remaining    int
	Answers      map[string]Answer
	Statuses     map[string]Status
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOnTimeUp sets the callback run once when the countdown reaches zero.
// The engine does not submit on its own; the host decides what happens.
func WithOnTimeUp(fn func(Snapshot)) EngineOption {
	return func(e *Engine) { e.onTimeUp = fn }
}

// WithInitialRemaining starts the countdown at remaining seconds instead of
// the full duration.
func WithInitialRemaining(remaining int) EngineOption {
	return func(e *Engine) { e.initial = &remaining }
}

// WithLogger sets the engine logger.
func WithLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// Engine composes status, answers, navigation and the timer into the
// single contract a hosting screen drives. Methods must be called from one
// goroutine (the UI event loop).
type Engine struct {
	questions []Question
	statuses  *StatusBoard
	answers   *AnswerStore
	nav       *Navigator
	timer     *Timer
	security  *Handle

	onTimeUp func(Snapshot)
	initial  *int
	log      zerolog.Logger
	stopped  bool
}

// New builds an engine over questions with a duration in seconds. An empty
// question list or a non-positive duration yields an inert engine: the
// timer never fires and navigation does nothing.
func New(questions []Question, durationSeconds int, opts ...EngineOption) *Engine {
	e := &Engine{
		questions: append([]Question(nil), questions...),
		statuses:  NewStatusBoard(),
		answers:   NewAnswerStore(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if len(e.questions) == 0 {
		durationSeconds = 0
	}
	e.timer = NewTimer(durationSeconds, e.handleExpiry)
	if e.initial != nil && len(e.questions) > 0 {
		e.timer.SetInitial(*e.initial)
	}

	e.statuses.Initialize(e.questions)
	e.nav = NewNavigator(len(e.questions), func(i int) {
		e.statuses.Visit(e.questions[i].ID)
	})
	e.nav.GoTo(0)

	return e
}

func (e *Engine) handleExpiry() {
	e.log.Info().Int("answered", e.answers.Len()).Msg("Attempt time is up")
	if e.onTimeUp != nil {
		e.onTimeUp(e.Snapshot())
	}
}

// Start begins the countdown at now.
func (e *Engine) Start(now time.Time) {
	if e.stopped {
		return
	}
	e.timer.Enable(now)
}

// Pause stops the countdown without tearing the engine down.
func (e *Engine) Pause() {
	e.timer.Disable()
}

// Sync applies wall-clock time up to now to the countdown.
func (e *Engine) Sync(now time.Time) {
	e.timer.Sync(now)
}

// Tick applies one second to the countdown.
func (e *Engine) Tick() {
	e.timer.Tick()
}

// AdoptDuration applies a duration that arrived after construction.
func (e *Engine) AdoptDuration(seconds int) bool {
	if len(e.questions) == 0 {
		return false
	}
	return e.timer.AdoptDuration(seconds)
}

// AttachSecurity ties a monitor handle to the engine lifetime so Stop
// releases it.
func (e *Engine) AttachSecurity(h *Handle) {
	e.security = h
}

// Stop cancels the countdown and releases the security monitor. After
// Stop the state is frozen and mutators are ignored. Safe to call more
// than once.
func (e *Engine) Stop() {
	e.timer.Disable()
	e.security.Stop()
	e.stopped = true
}

// Stopped reports whether Stop has been called.
func (e *Engine) Stopped() bool { return e.stopped }

// Questions returns the question list in navigation order.
func (e *Engine) Questions() []Question { return e.questions }

// Total returns the number of questions.
func (e *Engine) Total() int { return len(e.questions) }

// CurrentIndex returns the 0-based index of the current question.
func (e *Engine) CurrentIndex() int { return e.nav.Index() }

// Current returns the current question. ok is false for an empty attempt.
func (e *Engine) Current() (q Question, ok bool) {
	if len(e.questions) == 0 {
		return Question{}, false
	}
	return e.questions[e.nav.Index()], true
}

// CurrentAnswer returns the stored answer for the current question.
func (e *Engine) CurrentAnswer() (Answer, bool) {
	q, ok := e.Current()
	if !ok {
		return Answer{}, false
	}
	return e.answers.Get(q.ID)
}

// CurrentStatus returns the status of the current question.
func (e *Engine) CurrentStatus() Status {
	q, ok := e.Current()
	if !ok {
		return StatusNotVisited
	}
	return e.statuses.Get(q.ID)
}

// StatusOf returns the status for question id.
func (e *Engine) StatusOf(id string) Status { return e.statuses.Get(id) }

// Remaining returns the whole seconds left.
func (e *Engine) Remaining() int { return e.timer.Remaining() }

// Running reports whether the countdown is active.
func (e *Engine) Running() bool { return e.timer.Running() }

// Expired reports whether time has run out.
func (e *Engine) Expired() bool { return e.timer.Expired() }

// Answers returns a copy of every stored answer.
func (e *Engine) Answers() map[string]Answer { return e.answers.Snapshot() }

// Statuses returns a copy of every question status.
func (e *Engine) Statuses() map[string]Status { return e.statuses.Snapshot() }

// Counts tallies statuses for the palette legend.
func (e *Engine) Counts() map[Status]int { return e.statuses.Counts(e.questions) }

// Snapshot copies the full attempt state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		CurrentIndex: e.nav.Index(),
		Remaining:    e.timer.Remaining(),
		Answers:      e.answers.Snapshot(),
		Statuses:     e.statuses.Snapshot(),
	}
}

// SaveAnswer stores a for the current question and marks it ANSWERED.
// An empty answer clears the response instead.
func (e *Engine) SaveAnswer(a Answer) {
	q, ok := e.Current()
	if !ok || e.stopped {
		return
	}
	if a.IsEmpty() {
		e.ClearResponse()
		return
	}
	e.answers.Save(q.ID, a)
	e.statuses.RecordAnswer(q.ID)
}

// SelectOption applies an option press to the current choice question.
func (e *Engine) SelectOption(optionID string) {
	q, ok := e.Current()
	if !ok || !q.Type.IsChoice() {
		return
	}
	current, _ := e.answers.Get(q.ID)
	e.SaveAnswer(ToggleOption(q.Type, current, optionID))
}

// SetNumericText applies free-text input to the current numeric question.
// Anything that is not a complete number leaves no stored value.
func (e *Engine) SetNumericText(text string) NumericInput {
	q, ok := e.Current()
	if !ok || !q.Type.IsNumeric() {
		return NumericInvalid
	}
	v, state := ParseNumeric(q.Type, text)
	if state == NumericValid {
		e.SaveAnswer(NumericAnswer(v))
	} else if e.answers.Has(q.ID) {
		e.ClearResponse()
	}
	return state
}

// MarkForReview flags the current question.
func (e *Engine) MarkForReview() {
	q, ok := e.Current()
	if !ok || e.stopped {
		return
	}
	e.statuses.MarkForReview(q.ID, e.answers.Has(q.ID))
}

// ClearResponse removes the current answer and any review mark.
func (e *Engine) ClearResponse() {
	q, ok := e.Current()
	if !ok || e.stopped {
		return
	}
	e.answers.Clear(q.ID)
	e.statuses.Clear(q.ID)
}

// Next moves to the following question.
func (e *Engine) Next() bool {
	if e.stopped {
		return false
	}
	return e.nav.Next()
}

// Prev moves to the previous question.
func (e *Engine) Prev() bool {
	if e.stopped {
		return false
	}
	return e.nav.Prev()
}

// GoTo moves to index; out-of-range requests are ignored.
func (e *Engine) GoTo(index int) bool {
	if e.stopped {
		return false
	}
	return e.nav.GoTo(index)
}

// IsLast reports whether the current question is the last one.
func (e *Engine) IsLast() bool { return e.nav.IsLast() }
