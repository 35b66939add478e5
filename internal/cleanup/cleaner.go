package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Expirer drops expired entries and reports how many were removed
type Expirer interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// Cleaner periodically sweeps expired wizard sessions from stores that do
// not expire keys on their own
type Cleaner struct {
	store    Expirer
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(store Expirer, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		store:    store,
		interval: interval,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	slog.Info("session cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session cleanup worker stopped")
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) int {
	removed, err := c.store.DeleteExpired(ctx)
	if err != nil {
		slog.Error("failed to sweep expired sessions", "error", err)
		return 0
	}
	if removed > 0 {
		slog.Info("expired sessions removed", "count", removed)
	}
	return removed
}
