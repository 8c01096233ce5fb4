package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/mentor-engine/internal/storage"
)

// Janitor periodically closes peer tickets that sat open longer than the
// configured max age, so the queue does not accumulate requests nobody
// will ever claim. The close goes through the store's conditional update,
// so a ticket claimed mid-sweep is left untouched.
type Janitor struct {
	repo     storage.Repository
	interval time.Duration
	maxAge   time.Duration
}

// New creates a janitor. maxAge <= 0 disables sweeping entirely.
func New(repo storage.Repository, interval, maxAge time.Duration) *Janitor {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &Janitor{
		repo:     repo,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Start begins the sweep loop in a goroutine
func (j *Janitor) Start(ctx context.Context) {
	if j.maxAge <= 0 {
		slog.Info("ticket janitor disabled")
		return
	}
	go j.run(ctx)
}

func (j *Janitor) run(ctx context.Context) {
	slog.Info("ticket janitor started", "interval", j.interval, "max_age", j.maxAge)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start
	j.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("ticket janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.maxAge)

	closed, err := j.repo.CloseStalePeerTickets(ctx, cutoff)
	if err != nil {
		slog.Error("failed to close stale tickets", "error", err)
		return
	}

	if closed > 0 {
		slog.Info("closed stale peer tickets", "count", closed, "cutoff", cutoff)
	}
}
