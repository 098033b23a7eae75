// Package power tracks the battery and decides how aggressively the device
// may use its radios.
package power

import (
	"fmt"
	"sync/atomic"
)

type Mode uint32

const (
	Normal Mode = iota
	Low
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Low:
		return "low"
	}
	return fmt.Sprintf("mode(%d)", uint32(m))
}

// Publisher hands the current mode from the power task to its readers.
// The zero value publishes Normal.
type Publisher struct {
	v atomic.Uint32
}

func (p *Publisher) Store(m Mode) { p.v.Store(uint32(m)) }

func (p *Publisher) Load() Mode { return Mode(p.v.Load()) }

const (
	DefaultLowBelow    = 0.20
	DefaultNormalAbove = 0.30
)

// Policy is a two-state machine with a hysteresis band. It enters Low when
// the level falls below LowBelow and only returns to Normal once the level
// rises above NormalAbove.
type Policy struct {
	LowBelow    float64
	NormalAbove float64
	mode        Mode
}

func NewPolicy(lowBelow, normalAbove float64) (*Policy, error) {
	if lowBelow < 0 || normalAbove > 1 || lowBelow > normalAbove {
		return nil, fmt.Errorf("power: invalid hysteresis band [%.2f, %.2f]", lowBelow, normalAbove)
	}
	return &Policy{LowBelow: lowBelow, NormalAbove: normalAbove}, nil
}

func (p *Policy) Mode() Mode { return p.mode }

// Next feeds one battery sample and returns the resulting mode and whether
// it changed.
func (p *Policy) Next(level float64) (Mode, bool) {
	prev := p.mode
	switch {
	case p.mode == Normal && level < p.LowBelow:
		p.mode = Low
	case p.mode == Low && level > p.NormalAbove:
		p.mode = Normal
	}
	return p.mode, p.mode != prev
}
