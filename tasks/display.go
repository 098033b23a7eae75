package tasks

import (
	"context"
	"slices"
	"time"

	"earshot/display"
	"earshot/log"
	"earshot/transcript"
)

const DefaultDisplayInterval = 100 * time.Millisecond

type Display struct {
	State    *transcript.State
	Renderer display.Renderer
	Columns  int
	Lines    int
	Interval time.Duration

	last  []string
	drawn bool
}

func (d *Display) Name() string { return "display" }

func (d *Display) Run(ctx context.Context) error {
	if d.Interval <= 0 {
		d.Interval = DefaultDisplayInterval
	}
	if d.Columns <= 0 {
		d.Columns = display.Columns
	}
	if d.Lines <= 0 {
		d.Lines = display.Lines
	}
	every(ctx, d.Name(), fixed(d.Interval), true, d.cycle)
	return nil
}

func (d *Display) cycle(context.Context) {
	lines := display.Wrap(d.State.Current(), d.Columns, d.Lines)
	if d.drawn && slices.Equal(lines, d.last) {
		return
	}

	if err := d.Renderer.Clear(); err != nil {
		log.TaskError(d.Name(), "clear", err)
		return
	}
	if err := d.Renderer.RenderLines(lines); err != nil {
		log.TaskError(d.Name(), "render", err)
		return
	}
	if err := d.Renderer.Present(); err != nil {
		log.TaskError(d.Name(), "present", err)
		return
	}
	d.last = lines
	d.drawn = true
}
