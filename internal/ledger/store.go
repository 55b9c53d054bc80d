// Package ledger persists per-user account records.
package ledger

import (
	"context"
	"errors"

	"github.com/ticketforge/foreman-bot/internal/domain"
)

var (
	// ErrNotFound indicates that no account record exists for the user.
	ErrNotFound = errors.New("account not found")
	// ErrInvalidField indicates that a field name is not part of the account schema.
	ErrInvalidField = errors.New("invalid account field")
)

// Account field names accepted by SetField and IncrementField.
const (
	FieldSpent         = "spent"
	FieldLoyaltyPoints = "loyalty_points"
	FieldBank          = "bank"
	FieldLastRedeem    = "last_redeem"
)

// Store is the durable user-id to account-record mapping. Every mutating call
// commits before returning; there is no write-behind.
type Store interface {
	// Ensure inserts a default record when absent. It reports whether a new
	// record was created and is safe to call repeatedly.
	Ensure(ctx context.Context, userID string) (created bool, err error)
	// Get returns the account record, or ErrNotFound when Ensure was never
	// called for the user.
	Get(ctx context.Context, userID string) (*domain.Account, error)
	// SetField overwrites a single account field. Numeric fields take int64
	// values, last_redeem takes a string. Unknown fields fail with
	// ErrInvalidField.
	SetField(ctx context.Context, userID, field string, value any) error
	// IncrementField adds delta to a numeric field. It is a read-modify-write
	// convenience with no cross-process atomicity guarantee; callers serialize
	// per user id.
	IncrementField(ctx context.Context, userID, field string, delta int64) error
}

// ValidField reports whether the field name is part of the account schema.
func ValidField(field string) bool {
	switch field {
	case FieldSpent, FieldLoyaltyPoints, FieldBank, FieldLastRedeem:
		return true
	}
	return false
}

// NumericField reports whether the field holds an int64 balance.
func NumericField(field string) bool {
	return field == FieldSpent || field == FieldLoyaltyPoints || field == FieldBank
}
