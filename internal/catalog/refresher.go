package catalog

import (
	"context"
	"log/slog"
	"time"
)

// Refresher periodically re-fetches cached reference data
type Refresher struct {
	loader   *Loader
	interval time.Duration
}

// NewRefresher creates a refresh worker
func NewRefresher(loader *Loader, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Refresher{
		loader:   loader,
		interval: interval,
	}
}

// Start runs the worker in a goroutine until ctx is cancelled
func (r *Refresher) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *Refresher) run(ctx context.Context) {
	slog.Info("catalog refresher started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	start := time.Now()
	n := r.loader.RefreshAll(ctx)
	if n == 0 {
		slog.Debug("no cached reference data to refresh")
		return
	}
	slog.Info("reference data refreshed", "user_types", n, "took", time.Since(start))
}
