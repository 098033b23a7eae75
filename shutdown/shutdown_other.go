//go:build !windows

package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Notify subscribes ch to the signals that stop the service: SIGTERM from
// the init system and SIGINT from a console.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
