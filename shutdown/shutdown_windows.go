//go:build windows

package shutdown

import (
	"os"
	"os/signal"
)

// Notify subscribes ch to the signals that stop the service. The Windows
// simulator has no SIGTERM, so Ctrl+C is the only stop request.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
