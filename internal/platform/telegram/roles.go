package telegram

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ticketforge/foreman-bot/internal/platform"
)

// RoleStore persists entitlement labels in Postgres. Telegram has no role
// primitive of its own, so the bot keeps its own grant table.
type RoleStore struct {
	db *sql.DB
}

var _ platform.Entitlements = (*RoleStore)(nil)

func NewRoleStore(db *sql.DB) *RoleStore {
	return &RoleStore{db: db}
}

func (s *RoleStore) Has(ctx context.Context, actor platform.Actor, label string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM roles WHERE user_id = $1 AND label = $2)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, actor.ID, label).Scan(&exists); err != nil {
		return false, fmt.Errorf("check role %s for %s: %w", label, actor.ID, err)
	}

	return exists, nil
}

func (s *RoleStore) Grant(ctx context.Context, actor platform.Actor, label string) error {
	const query = `
		INSERT INTO roles (user_id, label)
		VALUES ($1, $2)
		ON CONFLICT (user_id, label) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, actor.ID, label); err != nil {
		return fmt.Errorf("grant role %s to %s: %w", label, actor.ID, err)
	}

	return nil
}

// Revoke removes the label from the actor.
func (s *RoleStore) Revoke(ctx context.Context, actor platform.Actor, label string) error {
	const query = `DELETE FROM roles WHERE user_id = $1 AND label = $2`

	if _, err := s.db.ExecContext(ctx, query, actor.ID, label); err != nil {
		return fmt.Errorf("revoke role %s from %s: %w", label, actor.ID, err)
	}

	return nil
}
