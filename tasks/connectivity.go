package tasks

import (
	"context"
	"time"

	"earshot/link"
	"earshot/log"
	"earshot/power"
	"earshot/store"
	"earshot/transcript"
)

const (
	DefaultSyncInterval    = 60 * time.Second
	DefaultLowSyncInterval = 300 * time.Second
)

// Connectivity mirrors history to the companion and backs up unsynced
// records. Delivery is at least once: a record is only marked synced after
// the backup accepted it.
type Connectivity struct {
	State *transcript.State
	Store store.Store
	Short link.ShortRange
	Long  link.LongRange
	Modes *power.Publisher

	NormalInterval time.Duration
	LowInterval    time.Duration
}

func (c *Connectivity) Name() string { return "connectivity" }

func (c *Connectivity) interval() time.Duration {
	if c.Modes != nil && c.Modes.Load() == power.Low {
		return c.LowInterval
	}
	return c.NormalInterval
}

func (c *Connectivity) Run(ctx context.Context) error {
	if c.NormalInterval <= 0 {
		c.NormalInterval = DefaultSyncInterval
	}
	if c.LowInterval <= 0 {
		c.LowInterval = DefaultLowSyncInterval
	}
	every(ctx, c.Name(), c.interval, true, c.cycle)
	return nil
}

func (c *Connectivity) cycle(ctx context.Context) {
	c.syncShort(ctx)
	c.backup(ctx)
}

func (c *Connectivity) syncShort(ctx context.Context) {
	if c.Short == nil || !c.Short.IsConnected(ctx) {
		return
	}
	history := c.State.History()
	err := c.Short.Sync(ctx, history)
	log.SyncResult("short", len(history), err)
}

func (c *Connectivity) backup(ctx context.Context) {
	if c.Long == nil || !c.Long.IsEnabled() || !c.Long.IsConnected(ctx) {
		return
	}
	records, err := c.Store.Unsynced(ctx)
	if err != nil {
		log.TaskError(c.Name(), "unsynced", err)
		return
	}
	if len(records) == 0 {
		return
	}
	if err := c.Long.Backup(ctx, records); err != nil {
		log.SyncResult("long", len(records), err)
		return
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	if err := c.Store.MarkSynced(ctx, ids); err != nil {
		log.TaskError(c.Name(), "mark_synced", err)
		return
	}
	log.SyncResult("long", len(records), nil)
}
