package app

import (
	"context"
	"time"
)

const defaultPollInterval = 3 * time.Second

// StartPoller launches a background goroutine that refreshes the store at a
// fixed cadence for the life of ctx, whatever the push channel is doing. It
// returns immediately.
func StartPoller(ctx context.Context, syncer *Syncer, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			_ = syncer.Refresh(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
