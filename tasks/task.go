// Package tasks contains the long-running loops of the device. Each task owns
// its own cadence, reads shared state through transcript.State, and keeps
// running through collaborator failures until its context is canceled.
package tasks

//go:generate go tool mockgen -destination=mock_store_test.go -package=tasks earshot/store Store
//go:generate go tool mockgen -destination=mock_link_test.go -package=tasks earshot/link ShortRange,LongRange

import (
	"context"
	"fmt"
	"time"

	"earshot/log"
)

type Task interface {
	Name() string
	// Run blocks until ctx is canceled. It returns nil on a normal shutdown.
	Run(ctx context.Context) error
}

// every calls cycle once per interval until ctx is done. interval is
// re-evaluated before each wait so cadence can follow the power mode.
func every(ctx context.Context, name string, interval func() time.Duration, immediate bool, cycle func(context.Context)) {
	log.TaskStart(name, interval())
	defer log.TaskStop(name)

	if immediate {
		protect(ctx, name, cycle)
	}
	for {
		t := time.NewTimer(interval())
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		protect(ctx, name, cycle)
	}
}

// protect runs one iteration. A panic is logged and swallowed so the task
// keeps going.
func protect(ctx context.Context, name string, cycle func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			log.TaskError(name, "panic", fmt.Errorf("%v", r))
		}
	}()
	cycle(ctx)
}

func fixed(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

// sleep waits for d or until ctx is done, reporting whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
