package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

type memoryEntry struct {
	snapshot   []byte
	customerID string
	terminal   bool
	lastActive time.Time
}

// MemoryStore holds encoded session snapshots in memory.
// Callers always get a freshly decoded copy, never the stored state.
type MemoryStore struct {
	sessions map[string]memoryEntry
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	entry, exists := m.sessions[sessionID]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return models.DecodeSession(entry.snapshot)
}

func (m *MemoryStore) Save(ctx context.Context, s *models.NegotiationSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := models.EncodeSession(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.SessionID] = memoryEntry{
		snapshot:   data,
		customerID: s.CustomerID,
		terminal:   s.IsTerminal(),
		lastActive: s.UpdatedAt,
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) ListActive(ctx context.Context, customerID string) ([]models.SessionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var snapshots [][]byte
	for _, entry := range m.sessions {
		if entry.terminal {
			continue
		}
		if customerID != "" && entry.customerID != customerID {
			continue
		}
		snapshots = append(snapshots, entry.snapshot)
	}
	m.mu.RUnlock()

	summaries := make([]models.SessionSummary, 0, len(snapshots))
	for _, data := range snapshots {
		s, err := models.DecodeSession(data)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s.Summary())
	}
	sortSummaries(summaries)
	return summaries, nil
}

func (m *MemoryStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, entry := range m.sessions {
		if entry.lastActive.Before(before) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many sessions are stored
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// sortSummaries orders most recently active first, ties by id
func sortSummaries(s []models.SessionSummary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].UpdatedAt.After(s[j].UpdatedAt)
		}
		return s[i].SessionID < s[j].SessionID
	})
}
