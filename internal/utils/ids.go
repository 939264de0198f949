package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ErrInvalidSessionID is returned for ids that cannot be used as a store key
var ErrInvalidSessionID = errors.New("invalid session id")

// ErrInvalidCustomerID is returned for customer ids the store cannot hold
var ErrInvalidCustomerID = errors.New("invalid customer id")

// maxIDLength matches the session_id and customer_id columns of both SQL schemas
const maxIDLength = 64

// NewSessionID generates a session id for callers that did not bring their own
func NewSessionID() string {
	return "neg_" + uuid.NewString()
}

// NewRecordID generates a time-ordered id for offer history entries.
// Ids created from later timestamps sort after earlier ones.
func NewRecordID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// ValidateSessionID rejects ids that cannot be used as a store key
func ValidateSessionID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidSessionID)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidSessionID, maxIDLength)
	}
	if strings.ContainsAny(id, " /\\?#") {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidSessionID, id)
	}
	return nil
}

// ValidateCustomerID accepts an empty id; anything else must fit the store column
func ValidateCustomerID(id string) error {
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidCustomerID, maxIDLength)
	}
	return nil
}
