package terminal

import (
	"context"
	"time"
)

const defaultSweepInterval = 5 * time.Minute

// Run sweeps idle sessions on a fixed cadence until the context is canceled.
func (s *service) Run(ctx context.Context, interval time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ctx = s.logg.WithField(ctx, "event", "session.sweep")
	s.Sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "session sweeper context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
