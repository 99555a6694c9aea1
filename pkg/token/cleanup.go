package token

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cleaner periodically purges long-expired token records. Records stay
// queryable for a grace period past expiry so recent sessions remain visible
// for audit; only then are they physically deleted.
type Cleaner struct {
	store    *Store
	interval time.Duration
	grace    time.Duration
	log      *zap.Logger
}

func NewCleaner(store *Store, interval, grace time.Duration, log *zap.Logger) *Cleaner {
	return &Cleaner{store: store, interval: interval, grace: grace, log: log}
}

// Run ticks until ctx is cancelled. A failed sweep is logged and retried on
// the next tick; it never takes the process down.
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep deletes records expired for longer than the grace period.
func (c *Cleaner) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-c.grace)
	n, err := c.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		c.log.Warn("token cleanup sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		c.log.Info("purged expired tokens", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
}
