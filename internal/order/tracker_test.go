package order

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	return client, func() {
		_ = client.Close()
		server.Close()
	}
}

func TestRedisTracker_SetAndGet(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	tracker := NewRedisTracker(client, testLogger(), 0)
	ctx := context.Background()

	err := tracker.SetStatus(ctx, "42", StatusPaid)
	assert.NoError(t, err)

	status, err := tracker.GetStatus(ctx, "42")
	assert.NoError(t, err)
	assert.Equal(t, StatusPaid, status)
}

func TestRedisTracker_GetNotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	tracker := NewRedisTracker(client, testLogger(), 0)

	status, err := tracker.GetStatus(context.Background(), "999")
	assert.Empty(t, status)
	assert.ErrorIs(t, err, ErrStatusNotFound)
}

func TestRedisTracker_ClearStatus(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	tracker := NewRedisTracker(client, testLogger(), 0)
	ctx := context.Background()

	assert.NoError(t, tracker.SetStatus(ctx, "7", StatusAssigned))
	assert.NoError(t, tracker.ClearStatus(ctx, "7"))

	_, err := tracker.GetStatus(ctx, "7")
	assert.ErrorIs(t, err, ErrStatusNotFound)
}
