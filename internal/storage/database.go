package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

// DatabaseStore persists session snapshots through gorm (Postgres in production)
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a gorm-backed store. Call Migrate once at startup.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Migrate creates or updates the negotiation_sessions table
func (d *DatabaseStore) Migrate() error {
	return d.db.AutoMigrate(&models.SessionRecord{})
}

func (d *DatabaseStore) Get(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	var rec models.SessionRecord
	err := d.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return rec.Session()
}

func (d *DatabaseStore) Save(ctx context.Context, s *models.NegotiationSession) error {
	rec, err := models.NewSessionRecord(s)
	if err != nil {
		return err
	}

	err = d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"customer_id", "phase", "status", "schema_version", "snapshot", "last_active", "updated_at",
		}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.SessionID, err)
	}
	return nil
}

func (d *DatabaseStore) Delete(ctx context.Context, sessionID string) error {
	// Unscoped: a soft-deleted row would still hold the unique session_id
	res := d.db.WithContext(ctx).Unscoped().Where("session_id = ?", sessionID).Delete(&models.SessionRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

func (d *DatabaseStore) ListActive(ctx context.Context, customerID string) ([]models.SessionSummary, error) {
	q := d.db.WithContext(ctx).Where("status NOT IN ?", terminalStatuses())
	if customerID != "" {
		q = q.Where("customer_id = ?", customerID)
	}

	var recs []models.SessionRecord
	if err := q.Order("last_active DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	summaries := make([]models.SessionSummary, 0, len(recs))
	for i := range recs {
		s, err := recs[i].Session()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s.Summary())
	}
	sortSummaries(summaries)
	return summaries, nil
}

func (d *DatabaseStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res := d.db.WithContext(ctx).Unscoped().Where("last_active < ?", before).Delete(&models.SessionRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func terminalStatuses() []string {
	return []string{string(models.StatusAccepted), string(models.StatusRejected)}
}
