package telegram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ticketforge/foreman-bot/internal/platform"
)

// TopicRegistry maps canonical channel names to forum topics. Topic display
// names change when an order moves between groupings, so lookups go through
// this table instead of the Telegram API.
type TopicRegistry struct {
	db *sql.DB
}

func NewTopicRegistry(db *sql.DB) *TopicRegistry {
	return &TopicRegistry{db: db}
}

// Register records a freshly created topic under its canonical name.
func (r *TopicRegistry) Register(ctx context.Context, ch platform.Channel) error {
	const query = `
		INSERT INTO topics (chat_id, thread_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, thread_id) DO UPDATE SET name = EXCLUDED.name`

	if _, err := r.db.ExecContext(ctx, query, ch.ChatID, ch.ThreadID, ch.Name); err != nil {
		return fmt.Errorf("register topic %s: %w", ch.Name, err)
	}

	return nil
}

// Find resolves a channel by its canonical name.
func (r *TopicRegistry) Find(ctx context.Context, name string) (*platform.Channel, error) {
	const query = `SELECT chat_id, thread_id, name FROM topics WHERE name = $1`

	var ch platform.Channel
	err := r.db.QueryRowContext(ctx, query, name).Scan(&ch.ChatID, &ch.ThreadID, &ch.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, platform.ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find topic %s: %w", name, err)
	}

	return &ch, nil
}

// ResolveThread resolves the canonical channel for a forum topic. Incoming
// messages carry only the numeric thread id, never the topic name.
func (r *TopicRegistry) ResolveThread(ctx context.Context, chatID int64, threadID int) (*platform.Channel, error) {
	const query = `SELECT chat_id, thread_id, name FROM topics WHERE chat_id = $1 AND thread_id = $2`

	var ch platform.Channel
	err := r.db.QueryRowContext(ctx, query, chatID, threadID).Scan(&ch.ChatID, &ch.ThreadID, &ch.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, platform.ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve topic %d/%d: %w", chatID, threadID, err)
	}

	return &ch, nil
}

// SetGroup records which grouping the topic currently belongs to.
func (r *TopicRegistry) SetGroup(ctx context.Context, ch platform.Channel, group string) error {
	const query = `UPDATE topics SET grouping = $3 WHERE chat_id = $1 AND thread_id = $2`

	if _, err := r.db.ExecContext(ctx, query, ch.ChatID, ch.ThreadID, group); err != nil {
		return fmt.Errorf("set topic group %s: %w", group, err)
	}

	return nil
}

// Remove drops a retired topic from the registry.
func (r *TopicRegistry) Remove(ctx context.Context, ch platform.Channel) error {
	const query = `DELETE FROM topics WHERE chat_id = $1 AND thread_id = $2`

	if _, err := r.db.ExecContext(ctx, query, ch.ChatID, ch.ThreadID); err != nil {
		return fmt.Errorf("remove topic %s: %w", ch.Name, err)
	}

	return nil
}
