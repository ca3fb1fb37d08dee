package attempt

import (
	att "github.com/abhisek/prepzone/internal/attempt"
)

// termSource adapts terminal events delivered through the Bubble Tea loop
// to the monitor's event source. Terminals cannot block capture, so
// PreventCapture always reports ErrCaptureUnsupported.
type termSource struct {
	nextID      int
	stateSubs   map[int]func(att.AppState)
	captureSubs map[int]func()
}

var _ att.EventSource = (*termSource)(nil)

func newTermSource() *termSource {
	return &termSource{
		stateSubs:   make(map[int]func(att.AppState)),
		captureSubs: make(map[int]func()),
	}
}

func (s *termSource) OnAppStateChange(fn func(att.AppState)) func() {
	id := s.nextID
	s.nextID++
	s.stateSubs[id] = fn
	return func() { delete(s.stateSubs, id) }
}

func (s *termSource) OnScreenshot(fn func()) func() {
	id := s.nextID
	s.nextID++
	s.captureSubs[id] = fn
	return func() { delete(s.captureSubs, id) }
}

func (s *termSource) PreventCapture() error { return att.ErrCaptureUnsupported }

func (s *termSource) AllowCapture() error { return nil }

// emitAppState delivers a lifecycle transition to every listener.
func (s *termSource) emitAppState(st att.AppState) {
	for _, fn := range s.stateSubs {
		fn(st)
	}
}

// emitScreenshot delivers a capture event to every listener.
func (s *termSource) emitScreenshot() {
	for _, fn := range s.captureSubs {
		fn()
	}
}

// listeners returns the number of registered callbacks.
func (s *termSource) listeners() int {
	return len(s.stateSubs) + len(s.captureSubs)
}
