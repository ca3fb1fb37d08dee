//go:build unix

package attempt

import (
	"os"
	"os/signal"
	"syscall"
)

func notifyScreenshot(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGUSR1)
}
