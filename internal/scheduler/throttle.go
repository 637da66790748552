package scheduler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// gate spaces requests so consecutive fetches sit at least delay apart.
// A zero delay disables throttling.
type gate struct {
	limiter *rate.Limiter
}

func newGate(delay time.Duration) *gate {
	if delay <= 0 {
		return &gate{}
	}
	return &gate{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

func (g *gate) wait(ctx context.Context) error {
	if g.limiter == nil {
		return ctx.Err()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("politeness wait: %w", err)
	}
	return nil
}
