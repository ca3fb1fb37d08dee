package attempt

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Violation reasons passed to the violation callback.
const (
	ReasonBackground = "App switched to background"
	ReasonScreenshot = "Screenshot detected"
)

// DefaultMaxWarnings reports on the first violation.
const DefaultMaxWarnings = 1

// ErrCaptureUnsupported is returned by event sources that can detect but
// not prevent screen capture.
var ErrCaptureUnsupported = errors.New("screen capture prevention not supported")

// AppState is the host application's lifecycle state.
type AppState int

const (
	AppActive AppState = iota
	AppInactive
	AppBackground
)

func (s AppState) String() string {
	switch s {
	case AppActive:
		return "active"
	case AppInactive:
		return "inactive"
	case AppBackground:
		return "background"
	default:
		return "unknown"
	}
}

// EventSource delivers platform lifecycle and capture events. Subscribe
// functions return an unsubscribe function.
type EventSource interface {
	OnAppStateChange(fn func(AppState)) (unsubscribe func())
	OnScreenshot(fn func()) (unsubscribe func())
	PreventCapture() error
	AllowCapture() error
}

// Violation is one counted suspicious event.
type Violation struct {
	Reason string
	Count  int
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithEventHook registers fn to run for every counted violation,
// including those below the threshold.
func WithEventHook(fn func(Violation)) MonitorOption {
	return func(m *Monitor) { m.onEvent = fn }
}

// WithMonitorLogger sets the logger.
func WithMonitorLogger(log zerolog.Logger) MonitorOption {
	return func(m *Monitor) { m.log = log }
}

// Monitor counts suspicious events during an attempt and reports once
// the count reaches the threshold. Every event at or past the threshold
// reports again; the host decides what to do with repeats.
type Monitor struct {
	threshold   int
	count       int
	prev        AppState
	stopped     bool
	onViolation func(reason string)
	onEvent     func(Violation)
	log         zerolog.Logger
}

// NewMonitor creates a monitor. maxWarnings below 1 falls back to
// DefaultMaxWarnings.
func NewMonitor(maxWarnings int, onViolation func(reason string), opts ...MonitorOption) *Monitor {
	if maxWarnings < 1 {
		maxWarnings = DefaultMaxWarnings
	}
	m := &Monitor{
		threshold:   maxWarnings,
		prev:        AppActive,
		onViolation: onViolation,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Count returns the number of violations seen.
func (m *Monitor) Count() int { return m.count }

// Threshold returns the configured violation threshold.
func (m *Monitor) Threshold() int { return m.threshold }

// HandleAppState processes a lifecycle transition. Leaving the active
// state counts as a violation; returning to it does not.
func (m *Monitor) HandleAppState(next AppState) {
	if m.stopped {
		return
	}
	prev := m.prev
	m.prev = next
	if prev == AppActive && (next == AppInactive || next == AppBackground) {
		m.record(ReasonBackground)
	}
}

// HandleScreenshot processes a detected screen capture.
func (m *Monitor) HandleScreenshot() {
	if m.stopped {
		return
	}
	m.record(ReasonScreenshot)
}

func (m *Monitor) record(reason string) {
	m.count++
	m.log.Warn().
		Str("reason", reason).
		Int("count", m.count).
		Int("threshold", m.threshold).
		Msg("Security violation")

	if m.onEvent != nil {
		m.onEvent(Violation{Reason: reason, Count: m.count})
	}
	if m.count >= m.threshold && m.onViolation != nil {
		m.onViolation(reason)
	}
}

// Start registers listeners on src and engages capture prevention. The
// returned handle must be stopped when the attempt ends.
func (m *Monitor) Start(src EventSource) *Handle {
	h := &Handle{monitor: m, src: src}
	if src == nil {
		return h
	}

	h.unsubs = append(h.unsubs,
		src.OnAppStateChange(m.HandleAppState),
		src.OnScreenshot(m.HandleScreenshot),
	)

	if err := src.PreventCapture(); err != nil {
		m.log.Debug().Err(err).Msg("Capture prevention unavailable")
	} else {
		h.preventing = true
	}
	return h
}

// Handle is the scoped registration of a running monitor.
type Handle struct {
	monitor    *Monitor
	src        EventSource
	unsubs     []func()
	preventing bool
	once       sync.Once
}

// Stop unregisters every listener and releases capture prevention.
// Only the first call has any effect.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		for _, unsub := range h.unsubs {
			if unsub != nil {
				unsub()
			}
		}
		h.unsubs = nil
		if h.preventing {
			if err := h.src.AllowCapture(); err != nil {
				h.monitor.log.Debug().Err(err).Msg("Release capture prevention")
			}
		}
		h.monitor.stopped = true
	})
}
