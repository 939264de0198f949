package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionRecord stores the versioned snapshot of a negotiation session
type SessionRecord struct {
	gorm.Model
	SessionID     string    `json:"session_id" gorm:"uniqueIndex;size:64"`
	CustomerID    string    `json:"customer_id" gorm:"index;size:64"`
	Phase         string    `json:"phase" gorm:"size:16"`
	Status        string    `json:"status" gorm:"index;size:16"`
	SchemaVersion int       `json:"schema_version"`
	Snapshot      string    `json:"snapshot" gorm:"type:text"` // JSON encoded NegotiationSession
	LastActive    time.Time `json:"last_active" gorm:"index"`
}

// TableName keeps the table name stable across model renames
func (SessionRecord) TableName() string {
	return "negotiation_sessions"
}

// NewSessionRecord encodes a session into its storage row
func NewSessionRecord(s *NegotiationSession) (*SessionRecord, error) {
	data, err := EncodeSession(s)
	if err != nil {
		return nil, err
	}
	return &SessionRecord{
		SessionID:     s.SessionID,
		CustomerID:    s.CustomerID,
		Phase:         string(s.Phase),
		Status:        string(s.Status),
		SchemaVersion: SchemaVersion,
		Snapshot:      string(data),
		LastActive:    s.UpdatedAt,
	}, nil
}

// Session decodes the stored snapshot
func (r *SessionRecord) Session() (*NegotiationSession, error) {
	return DecodeSession([]byte(r.Snapshot))
}
