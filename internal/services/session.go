package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sessionLock is the single-writer slot for one negotiation session
type sessionLock struct {
	slot       chan struct{}
	refs       int
	turns      int
	createdAt  time.Time
	lastActive time.Time
}

// SessionManager serializes writers per session id.
// Lock entries for idle sessions are evicted by a janitor goroutine; call Stop to end it.
type SessionManager struct {
	locks   map[string]*sessionLock
	mu      sync.Mutex
	idleTTL time.Duration
	now     func() time.Time
	logger  *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a session manager and starts its janitor
func NewSessionManager(logger *zap.Logger, idleTTL, sweepEvery time.Duration) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	sm := &SessionManager{
		locks:   make(map[string]*sessionLock),
		idleTTL: idleTTL,
		now:     time.Now,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go sm.cleanupIdleLocks(sweepEvery)

	return sm
}

// Acquire blocks until the caller is the only writer for sessionID, or ctx ends.
// The returned release func must be called exactly once.
func (sm *SessionManager) Acquire(ctx context.Context, sessionID string) (func(), error) {
	sm.mu.Lock()
	lock, exists := sm.locks[sessionID]
	if !exists {
		now := sm.now()
		lock = &sessionLock{slot: make(chan struct{}, 1), createdAt: now, lastActive: now}
		sm.locks[sessionID] = lock
	}
	lock.refs++
	sm.mu.Unlock()

	select {
	case lock.slot <- struct{}{}:
	case <-ctx.Done():
		sm.mu.Lock()
		lock.refs--
		sm.mu.Unlock()
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sm.mu.Lock()
			lock.refs--
			lock.turns++
			lock.lastActive = sm.now()
			sm.mu.Unlock()
			<-lock.slot
		})
	}, nil
}

// Forget drops the lock entry of a deleted session if nobody holds it
func (sm *SessionManager) Forget(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if lock, exists := sm.locks[sessionID]; exists && lock.refs == 0 {
		delete(sm.locks, sessionID)
	}
}

// Stop ends the janitor goroutine and waits for it
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stop)
	})
	<-sm.done
}

// cleanupIdleLocks runs periodically to evict lock entries nobody has used for idleTTL
func (sm *SessionManager) cleanupIdleLocks(every time.Duration) {
	defer close(sm.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-sm.stop:
			return
		case <-ticker.C:
			if n := sm.evictIdle(); n > 0 {
				sm.logger.Debug("evicted idle session locks", zap.Int("count", n))
			}
		}
	}
}

func (sm *SessionManager) evictIdle() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cutoff := sm.now().Add(-sm.idleTTL)
	evicted := 0
	for id, lock := range sm.locks {
		if lock.refs == 0 && lock.lastActive.Before(cutoff) {
			delete(sm.locks, id)
			evicted++
		}
	}
	return evicted
}

// SessionStats provides session statistics
type SessionStats struct {
	TrackedSessions int     `json:"tracked_sessions"`
	BusySessions    int     `json:"busy_sessions"`
	TotalTurns      int     `json:"total_turns"`
	AverageDuration float64 `json:"average_duration_minutes"`
	IdleTimeoutMins float64 `json:"idle_timeout_minutes"`
}

// GetSessionStats returns current session statistics
func (sm *SessionManager) GetSessionStats() *SessionStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	stats := &SessionStats{
		TrackedSessions: len(sm.locks),
		IdleTimeoutMins: sm.idleTTL.Minutes(),
	}

	totalDuration := 0.0
	for _, lock := range sm.locks {
		if lock.refs > 0 {
			stats.BusySessions++
		}
		stats.TotalTurns += lock.turns
		totalDuration += lock.lastActive.Sub(lock.createdAt).Minutes()
	}

	if len(sm.locks) > 0 {
		stats.AverageDuration = totalDuration / float64(len(sm.locks))
	}

	return stats
}
