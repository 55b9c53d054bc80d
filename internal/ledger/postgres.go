package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ticketforge/foreman-bot/internal/domain"
)

// PostgresStore is the canonical SQL-backed ledger implementation.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a ledger store on top of an open database handle.
func NewPostgresStore(db *sql.DB, log *slog.Logger) *PostgresStore {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresStore{
		db:  db,
		log: log,
	}
}

// Ensure inserts a default account record unless one already exists.
func (s *PostgresStore) Ensure(ctx context.Context, userID string) (bool, error) {
	const query = `
		INSERT INTO accounts (user_id, spent, loyalty_points, bank, last_redeem)
		VALUES ($1, 0, 0, 0, '')
		ON CONFLICT (user_id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		s.log.Error("failed to ensure account", slog.String("user_id", userID), slog.Any("error", err))
		return false, fmt.Errorf("insert account: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return inserted > 0, nil
}

// Get fetches the account record for the user.
func (s *PostgresStore) Get(ctx context.Context, userID string) (*domain.Account, error) {
	const query = `
		SELECT user_id, spent, loyalty_points, bank, last_redeem
		FROM accounts
		WHERE user_id = $1
	`

	row := s.db.QueryRowContext(ctx, query, userID)

	var account domain.Account
	if err := row.Scan(
		&account.UserID,
		&account.Spent,
		&account.LoyaltyPoints,
		&account.Bank,
		&account.LastRedeem,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to fetch account", slog.String("user_id", userID), slog.Any("error", err))
		return nil, fmt.Errorf("select account: %w", err)
	}

	return &account, nil
}

// SetField overwrites one column for the user's account record.
func (s *PostgresStore) SetField(ctx context.Context, userID, field string, value any) error {
	if !ValidField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	// field is validated against the schema whitelist above, so it is safe to
	// interpolate as a column name.
	query := fmt.Sprintf(`UPDATE accounts SET %s = $2, updated_at = now() WHERE user_id = $1`, field)

	result, err := s.db.ExecContext(ctx, query, userID, value)
	if err != nil {
		s.log.Error("failed to set account field",
			slog.String("user_id", userID),
			slog.String("field", field),
			slog.Any("error", err),
		)
		return fmt.Errorf("update account field %s: %w", field, err)
	}

	return requireRow(result, userID)
}

// IncrementField adds delta to one numeric column for the user's account record.
func (s *PostgresStore) IncrementField(ctx context.Context, userID, field string, delta int64) error {
	if !NumericField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	query := fmt.Sprintf(`UPDATE accounts SET %s = %s + $2, updated_at = now() WHERE user_id = $1`, field, field)

	result, err := s.db.ExecContext(ctx, query, userID, delta)
	if err != nil {
		s.log.Error("failed to increment account field",
			slog.String("user_id", userID),
			slog.String("field", field),
			slog.Any("error", err),
		)
		return fmt.Errorf("increment account field %s: %w", field, err)
	}

	return requireRow(result, userID)
}

// CountAccounts returns the total number of ledger records.
func (s *PostgresStore) CountAccounts(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM accounts`

	var count int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}

	return count, nil
}

func requireRow(result sql.Result, userID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, userID)
	}

	return nil
}
