package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedSnapshotVersion is returned for snapshots written by a newer schema
var ErrUnsupportedSnapshotVersion = errors.New("unsupported session snapshot version")

// EncodeSession serializes a session into its flat, versioned JSON layout
func EncodeSession(s *NegotiationSession) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode session: nil session")
	}
	if s.SchemaVersion == 0 {
		c := s.Clone()
		c.SchemaVersion = SchemaVersion
		s = c
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.SessionID, err)
	}
	return data, nil
}

// DecodeSession restores a session from its JSON snapshot
func DecodeSession(data []byte) (*NegotiationSession, error) {
	var s NegotiationSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	switch {
	case s.SchemaVersion == 0:
		// Snapshots written before versioning carry the same layout
		s.SchemaVersion = SchemaVersion
	case s.SchemaVersion > SchemaVersion:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSnapshotVersion, s.SchemaVersion)
	}
	return &s, nil
}
