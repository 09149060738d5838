package cleanup

import (
	"context"
	"time"

	"github.com/fourinarow/engine/pkg/logger"
)

// Reaper is the part of the session manager the worker drives.
type Reaper interface {
	CleanupIdleSessions(maxIdle time.Duration) int
}

// Pruner drops expired rows from a persistent search cache.
type Pruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type Worker struct {
	Sessions Reaper
	Cache    Pruner // optional
	Interval time.Duration
	MaxIdle  time.Duration
}

func NewWorker(sessions Reaper, interval, maxIdle time.Duration) *Worker {
	return &Worker{Sessions: sessions, Interval: interval, MaxIdle: maxIdle}
}

// Start runs one cleanup immediately, then one per Interval until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		w.runCleanup(ctx)

		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("cleanup", "background worker stopped")
				return
			case <-ticker.C:
				w.runCleanup(ctx)
			}
		}
	}()
	logger.Info("cleanup", "background worker started (every %s, idle limit %s)", w.Interval, w.MaxIdle)
}

func (w *Worker) runCleanup(ctx context.Context) {
	removed := w.Sessions.CleanupIdleSessions(w.MaxIdle)
	if removed > 0 {
		logger.Info("cleanup", "removed %d idle sessions", removed)
	} else {
		logger.Debug("cleanup", "no idle sessions")
	}

	if w.Cache == nil {
		return
	}
	deleted, err := w.Cache.DeleteExpired(ctx)
	if err != nil {
		logger.Error("cleanup", "error cleaning up search cache: %v", err)
	} else if deleted > 0 {
		logger.Info("cleanup", "removed %d expired search cache entries", deleted)
	}
}
