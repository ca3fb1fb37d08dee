package attempt

import "time"

// TimerState is the countdown value. Remaining is whole seconds.
type TimerState struct {
	Remaining int
	Running   bool
}

// Tick advances the countdown by one second. It returns the new state and
// whether this tick reached zero. A stopped or exhausted timer is returned
// unchanged.
func Tick(s TimerState) (TimerState, bool) {
	if !s.Running || s.Remaining <= 0 {
		return s, false
	}
	s.Remaining--
	if s.Remaining == 0 {
		s.Running = false
		return s, true
	}
	return s, false
}

// Timer drives a TimerState from wall-clock time and fires an expiry
// callback exactly once. It is not safe for concurrent use; callers drive
// it from a single event loop.
type Timer struct {
	state    TimerState
	onExpire func()

	// last is the wall-clock instant up to which ticks have been applied.
	last time.Time

	expired  bool
	elapsed  bool
	override bool
	adopted  bool
}

// NewTimer creates a stopped timer with total seconds remaining.
// Non-positive totals produce an inert timer that never fires.
func NewTimer(total int, onExpire func()) *Timer {
	if total < 0 {
		total = 0
	}
	return &Timer{
		state:    TimerState{Remaining: total},
		onExpire: onExpire,
	}
}

// SetInitial overrides the starting value, e.g. when resuming an attempt
// whose remaining time the server already knows. It only applies before
// any time has elapsed.
func (t *Timer) SetInitial(remaining int) {
	if t.elapsed {
		return
	}
	if remaining < 0 {
		remaining = 0
	}
	t.state.Remaining = remaining
	t.override = true
}

// AdoptDuration applies a duration that arrived after construction. It
// takes effect once, and only if no time has elapsed and no initial
// override was given. Reports whether the duration was adopted.
func (t *Timer) AdoptDuration(total int) bool {
	if t.adopted || t.elapsed || t.override || total <= 0 {
		return false
	}
	t.state.Remaining = total
	t.adopted = true
	return true
}

// Enable starts or resumes the countdown from the current remaining value.
// A timer latched at zero stays stopped.
func (t *Timer) Enable(now time.Time) {
	if t.state.Running || t.state.Remaining <= 0 {
		return
	}
	t.state.Running = true
	t.last = now
}

// Disable stops the countdown, keeping the remaining value.
func (t *Timer) Disable() {
	t.state.Running = false
}

// Tick applies a single one-second tick.
func (t *Timer) Tick() {
	before := t.state.Remaining
	var fired bool
	t.state, fired = Tick(t.state)
	if t.state.Remaining != before {
		t.elapsed = true
	}
	if fired && !t.expired {
		t.expired = true
		if t.onExpire != nil {
			t.onExpire()
		}
	}
}

// Sync applies every whole second of wall-clock time since the last
// applied tick. Late or coalesced tick deliveries therefore never lose
// time; the fractional remainder carries over to the next call.
func (t *Timer) Sync(now time.Time) {
	if !t.state.Running {
		return
	}
	n := int(now.Sub(t.last) / time.Second)
	if n <= 0 {
		return
	}
	t.last = t.last.Add(time.Duration(n) * time.Second)
	for i := 0; i < n && t.state.Running; i++ {
		t.Tick()
	}
}

// State returns the current countdown state.
func (t *Timer) State() TimerState { return t.state }

// Remaining returns the whole seconds left.
func (t *Timer) Remaining() int { return t.state.Remaining }

// Running reports whether the countdown is active.
func (t *Timer) Running() bool { return t.state.Running }

// Expired reports whether the expiry callback has fired.
func (t *Timer) Expired() bool { return t.expired }
