//go:build !unix

package attempt

import "os"

// No screenshot signal outside unix; the watcher just waits for stop.
func notifyScreenshot(chan<- os.Signal) {}
