package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/carnego-backend/internal/storage"
)

// SweeperJob removes sessions that have been idle longer than the session TTL
type SweeperJob struct {
	store    storage.Store
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeperJob creates a new expired-session sweeper
func NewSweeperJob(store storage.Store, ttl, interval time.Duration, logger *zap.Logger) *SweeperJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweeperJob{
		store:    store,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Start begins sweeping in the background. Calling Start twice is a no-op.
func (j *SweeperJob) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel != nil {
		j.logger.Debug("session sweeper already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.done = make(chan struct{})
	go j.run(ctx, j.done)

	j.logger.Info("session sweeper started", zap.Duration("ttl", j.ttl), zap.Duration("interval", j.interval))
}

// Stop halts the sweeper and waits for an in-flight sweep to finish
func (j *SweeperJob) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	j.logger.Info("session sweeper stopped")
}

func (j *SweeperJob) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				j.logger.Warn("session sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce deletes every session idle since before now minus the TTL
func (j *SweeperJob) SweepOnce(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.ttl)
	removed, err := j.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		j.logger.Info("expired sessions removed", zap.Int("count", removed), zap.Time("cutoff", cutoff))
	}
	return removed, nil
}
