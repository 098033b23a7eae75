package haptic

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// GPIO switches a motor driver enable pin through the sysfs value file, for
// example /sys/class/gpio/gpio17/value.
type GPIO struct {
	path string

	mu    sync.Mutex
	timer *time.Timer
}

func NewGPIO(path string) (*GPIO, error) {
	if path == "" {
		return nil, fmt.Errorf("haptic: gpio path not set")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("haptic: %w", err)
	}
	g := &GPIO{path: path}
	return g, g.write("0")
}

func (g *GPIO) write(v string) error {
	return os.WriteFile(g.path, []byte(v), 0)
}

// Trigger raises the pin and lowers it after d. A trigger during a buzz
// extends it.
func (g *GPIO) Trigger(d time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.write("1"); err != nil {
		return fmt.Errorf("haptic: gpio on: %w", err)
	}
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(d, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.write("0")
	})
	return nil
}

func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	return g.write("0")
}
