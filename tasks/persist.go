package tasks

import (
	"context"
	"sync/atomic"
	"time"

	"earshot/log"
	"earshot/store"
	"earshot/transcript"
)

const (
	DefaultPersistInterval = 5 * time.Second
	finalFlushTimeout      = 5 * time.Second
)

// Persist copies new records from the in-memory history to the durable
// store. The watermark is the Seq of the last record saved; it never moves
// backwards and only moves past records that were saved or already evicted.
type Persist struct {
	State    *transcript.State
	Store    store.Store
	Interval time.Duration

	watermark atomic.Uint64
}

func (p *Persist) Name() string { return "persist" }

func (p *Persist) Watermark() uint64 { return p.watermark.Load() }

func (p *Persist) Run(ctx context.Context) error {
	if p.Interval <= 0 {
		p.Interval = DefaultPersistInterval
	}
	every(ctx, p.Name(), fixed(p.Interval), false, p.cycle)

	// flush what arrived since the last tick
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalFlushTimeout)
	defer cancel()
	protect(flushCtx, p.Name(), p.cycle)
	return nil
}

func (p *Persist) cycle(ctx context.Context) {
	wm := p.watermark.Load()
	records, dropped := p.State.Since(wm)
	if dropped > 0 {
		wm += dropped
		p.watermark.Store(wm)
		log.PersistGap(dropped, wm)
	}
	if len(records) == 0 {
		return
	}

	saved := 0
	for _, r := range records {
		if err := p.Store.Append(ctx, r.Time, r.Text); err != nil {
			log.TaskError(p.Name(), "append", err)
			log.PersistBatch(saved, wm, true)
			return
		}
		wm = r.Seq
		p.watermark.Store(wm)
		saved++
	}
	log.PersistBatch(saved, wm, false)
}
