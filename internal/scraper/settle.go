package scraper

import (
	"context"
	"time"
)

// Settle blocks for d so an asynchronously rendered page can finish. It
// returns early only when ctx ends.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
