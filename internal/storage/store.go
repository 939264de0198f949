package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

// ErrSessionNotFound is returned when no session is stored under the id
var ErrSessionNotFound = errors.New("session not found")

// Store defines the interface for session persistence.
//
// Every backend persists the versioned JSON snapshot from models.EncodeSession, so a session
// read back from any store equals the one saved.
type Store interface {
	// Get loads a session, or ErrSessionNotFound
	Get(ctx context.Context, sessionID string) (*models.NegotiationSession, error)
	// Save inserts or replaces the session
	Save(ctx context.Context, s *models.NegotiationSession) error
	// Delete removes a session, or returns ErrSessionNotFound
	Delete(ctx context.Context, sessionID string) error
	// ListActive returns summaries of non-terminal sessions, optionally for one customer
	ListActive(ctx context.Context, customerID string) ([]models.SessionSummary, error)
	// DeleteExpired removes sessions idle since before the cutoff and reports how many went
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
