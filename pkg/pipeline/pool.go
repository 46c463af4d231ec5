package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// PoolOptions configures [RunBounded].
type PoolOptions struct {
	Concurrency int
	Pause       time.Duration
	// OnDone is called after every completed task with the completion count.
	OnDone func(done, total int)
}

// RunBounded runs task for every item with at most Concurrency in flight.
// Tasks report their own outcomes; one task never cancels another. Each
// task's slot is held for Pause after it finishes. When ctx is cancelled no
// new tasks start and RunBounded returns ctx.Err() once running ones finish.
func RunBounded[T any](ctx context.Context, items []T, opts PoolOptions, task func(context.Context, T)) error {
	var g errgroup.Group
	g.SetLimit(max(opts.Concurrency, 1))

	var done atomic.Int64
	total := len(items)
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			task(ctx, item)
			n := int(done.Add(1))
			if opts.OnDone != nil {
				opts.OnDone(n, total)
			}
			if opts.Pause > 0 {
				holdSlot(ctx, opts.Pause)
			}
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// holdSlot blocks for pause, or less if ctx ends first. The limiter's single
// token is spent up front so Wait has to wait a full interval for the next.
func holdSlot(ctx context.Context, pause time.Duration) {
	lim := rate.NewLimiter(rate.Every(pause), 1)
	lim.Allow()
	_ = lim.Wait(ctx)
}
