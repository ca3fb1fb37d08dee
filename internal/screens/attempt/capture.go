package attempt

import (
	"os"
	"os/signal"
	"sync"

	tea "charm.land/bubbletea/v2"
)

// screenshotWatcher turns the platform screenshot signal into
// screenshotMsg values. Screenshot helpers and wrappers raise the signal
// at the client process.
type screenshotWatcher struct {
	ch   chan os.Signal
	done chan struct{}
	once sync.Once
}

func newScreenshotWatcher() *screenshotWatcher {
	w := &screenshotWatcher{
		ch:   make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
	notifyScreenshot(w.ch)
	return w
}

// wait blocks until the next signal or until the watcher stops.
func (w *screenshotWatcher) wait() tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-w.ch:
			return screenshotMsg{}
		case <-w.done:
			return nil
		}
	}
}

func (w *screenshotWatcher) stop() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		signal.Stop(w.ch)
		close(w.done)
	})
}
