package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ticketforge/foreman-bot/internal/domain"
)

// MemoryStore keeps account records in process memory. It backs tests and
// local runs without a database; the Postgres store is the durable backend.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*domain.Account),
	}
}

// Ensure inserts a default record when absent.
func (s *MemoryStore) Ensure(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; ok {
		return false, nil
	}

	s.accounts[userID] = domain.NewAccount(userID)
	return true, nil
}

// Get returns a copy of the account record, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, userID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, ErrNotFound
	}

	copied := *account
	return &copied, nil
}

// SetField overwrites one field of the account record.
func (s *MemoryStore) SetField(_ context.Context, userID, field string, value any) error {
	if !ValidField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, userID)
	}

	if field == FieldLastRedeem {
		text, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: last_redeem requires a string value", ErrInvalidField)
		}
		account.LastRedeem = text
		return nil
	}

	numeric, ok := value.(int64)
	if !ok {
		return fmt.Errorf("%w: %s requires an int64 value", ErrInvalidField, field)
	}

	switch field {
	case FieldSpent:
		account.Spent = numeric
	case FieldLoyaltyPoints:
		account.LoyaltyPoints = numeric
	case FieldBank:
		account.Bank = numeric
	}

	return nil
}

// IncrementField adds delta to one numeric field of the account record.
func (s *MemoryStore) IncrementField(_ context.Context, userID, field string, delta int64) error {
	if !NumericField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, userID)
	}

	switch field {
	case FieldSpent:
		account.Spent += delta
	case FieldLoyaltyPoints:
		account.LoyaltyPoints += delta
	case FieldBank:
		account.Bank += delta
	}

	return nil
}

// CountAccounts returns the number of records held.
func (s *MemoryStore) CountAccounts(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.accounts)), nil
}
