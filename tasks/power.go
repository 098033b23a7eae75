package tasks

import (
	"context"
	"fmt"
	"time"

	"earshot/log"
	"earshot/power"
)

const DefaultPowerInterval = 60 * time.Second

type Power struct {
	Source   power.Source
	Policy   *power.Policy
	Modes    *power.Publisher
	Interval time.Duration
}

func (p *Power) Name() string { return "power" }

func (p *Power) Run(ctx context.Context) error {
	if p.Interval <= 0 {
		p.Interval = DefaultPowerInterval
	}
	every(ctx, p.Name(), fixed(p.Interval), true, p.cycle)
	return nil
}

func (p *Power) cycle(context.Context) {
	level, err := p.Source.BatteryLevel()
	if err == nil && (level < 0 || level > 1) {
		err = fmt.Errorf("%w: %v", power.ErrLevelRange, level)
	}
	if err != nil {
		log.TaskError(p.Name(), "battery", err)
		return
	}

	prev := p.Policy.Mode()
	mode, changed := p.Policy.Next(level)
	p.Modes.Store(mode)
	if changed {
		log.PowerMode(prev.String(), mode.String(), level)
	}
	if err := p.Source.SetMode(mode); err != nil {
		log.TaskError(p.Name(), "set_mode", err)
	}
}
