package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

const mysqlSchema = `CREATE TABLE IF NOT EXISTS negotiation_sessions (
	session_id VARCHAR(64) PRIMARY KEY,
	customer_id VARCHAR(64) NOT NULL,
	phase VARCHAR(16) NOT NULL,
	status VARCHAR(16) NOT NULL,
	schema_version INT NOT NULL,
	snapshot MEDIUMTEXT NOT NULL,
	last_active DATETIME(6) NOT NULL,
	INDEX idx_customer (customer_id),
	INDEX idx_status (status),
	INDEX idx_last_active (last_active)
)`

// MySQLStore persists session snapshots with plain database/sql
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore wraps an open *sql.DB using the mysql driver
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// EnsureSchema creates the sessions table when missing
func (r *MySQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, mysqlSchema); err != nil {
		return fmt.Errorf("create negotiation_sessions: %w", err)
	}
	return nil
}

func (r *MySQLStore) Get(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	var snapshot string
	err := r.db.QueryRowContext(ctx, `SELECT snapshot FROM negotiation_sessions WHERE session_id = ?`, sessionID).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return models.DecodeSession([]byte(snapshot))
}

func (r *MySQLStore) Save(ctx context.Context, s *models.NegotiationSession) error {
	rec, err := models.NewSessionRecord(s)
	if err != nil {
		return err
	}

	query := `INSERT INTO negotiation_sessions (session_id, customer_id, phase, status, schema_version, snapshot, last_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE customer_id = VALUES(customer_id), phase = VALUES(phase), status = VALUES(status),
			schema_version = VALUES(schema_version), snapshot = VALUES(snapshot), last_active = VALUES(last_active)`
	_, err = r.db.ExecContext(ctx, query,
		rec.SessionID, rec.CustomerID, rec.Phase, rec.Status, rec.SchemaVersion, rec.Snapshot, rec.LastActive.UTC())
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.SessionID, err)
	}
	return nil
}

func (r *MySQLStore) Delete(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM negotiation_sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

func (r *MySQLStore) ListActive(ctx context.Context, customerID string) ([]models.SessionSummary, error) {
	statuses := terminalStatuses()
	query := `SELECT snapshot FROM negotiation_sessions WHERE status NOT IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
	args := make([]any, 0, len(statuses)+1)
	for _, st := range statuses {
		args = append(args, st)
	}
	if customerID != "" {
		query += " AND customer_id = ?"
		args = append(args, customerID)
	}
	query += " ORDER BY last_active DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []models.SessionSummary
	for rows.Next() {
		var snapshot string
		if err := rows.Scan(&snapshot); err != nil {
			return nil, err
		}
		s, err := models.DecodeSession([]byte(snapshot))
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortSummaries(summaries)
	return summaries, nil
}

func (r *MySQLStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM negotiation_sessions WHERE last_active < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
