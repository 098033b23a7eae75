//go:build !linux

package haptic

import (
	"errors"
	"time"
)

type Pulse struct{}

func NewPulse() (*Pulse, error) {
	return nil, errors.New("haptic: pulse backend is only available on linux")
}

func (p *Pulse) Trigger(time.Duration) error { return nil }

func (p *Pulse) Close() error { return nil }
