// Package id provides UUIDv7 generation for all entities.
// Identities are generated client-side before insert, so the persistence layer
// never round-trips for a key. UUIDv7 is time-ordered, which keeps B-tree
// locality sane in PostgreSQL.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.New()
	}
	return id
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}

// Short returns the first block of the UUID, used on receipts and
// movement reasons ("Estorno Venda #a1b2c3d4").
func Short(id ID) string {
	return id.String()[:8]
}
