package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ErrStatusNotFound indicates that no workflow status is recorded for the
// ticket; callers treat this as StatusPending.
var ErrStatusNotFound = errors.New("order status not found")

// Tracker persists the workflow status per ticket.
type Tracker interface {
	// GetStatus returns the recorded status, or ErrStatusNotFound.
	GetStatus(ctx context.Context, ticketID string) (Status, error)
	// SetStatus records the status for the ticket.
	SetStatus(ctx context.Context, ticketID string, status Status) error
	// ClearStatus removes the record once the order leaves the workflow.
	ClearStatus(ctx context.Context, ticketID string) error
}

const orderStatusKeyPattern = "order:status:%s"

// RedisTracker persists order workflow states in Redis.
type RedisTracker struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

var _ Tracker = (*RedisTracker)(nil)

// NewRedisTracker initializes a Redis-backed Tracker. A zero ttl keeps
// states until explicitly cleared.
func NewRedisTracker(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisTracker {
	if log == nil {
		log = slog.Default()
	}

	return &RedisTracker{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// GetStatus returns the stored status or ErrStatusNotFound when absent.
func (t *RedisTracker) GetStatus(ctx context.Context, ticketID string) (Status, error) {
	key := statusKey(ticketID)

	data, err := t.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrStatusNotFound
		}

		t.log.Error("failed to get order status from redis", "ticket_id", ticketID, "error", err)
		return "", err
	}

	var state State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		t.log.Error("failed to decode order status", "ticket_id", ticketID, "error", err)
		return "", fmt.Errorf("decode order status: %w", err)
	}

	return state.Status, nil
}

// SetStatus saves the status for the ticket.
func (t *RedisTracker) SetStatus(ctx context.Context, ticketID string, status Status) error {
	state := State{
		TicketID:  ticketID,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode order status: %w", err)
	}

	if err := t.client.Set(ctx, statusKey(ticketID), data, t.ttl).Err(); err != nil {
		t.log.Error("failed to set order status in redis", "ticket_id", ticketID, "error", err)
		return err
	}

	return nil
}

// ClearStatus removes the status record for the ticket.
func (t *RedisTracker) ClearStatus(ctx context.Context, ticketID string) error {
	if err := t.client.Del(ctx, statusKey(ticketID)).Err(); err != nil {
		t.log.Error("failed to clear order status in redis", "ticket_id", ticketID, "error", err)
		return err
	}

	return nil
}

func statusKey(ticketID string) string {
	return fmt.Sprintf(orderStatusKeyPattern, ticketID)
}
