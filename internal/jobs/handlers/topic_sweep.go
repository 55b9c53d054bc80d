package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ticketforge/foreman-bot/internal/jobs"
)

// TopicSweepHandler purges registry rows for paid orders whose topics have
// been inactive long enough. The Telegram topics themselves are left alone,
// only the name lookup entries go away.
type TopicSweepHandler struct {
	db  *sql.DB
	log *slog.Logger
}

func NewTopicSweepHandler(db *sql.DB, log *slog.Logger) *TopicSweepHandler {
	return &TopicSweepHandler{db: db, log: log}
}

func (h *TopicSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.TopicSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "topic sweep: failed to decode payload",
				slog.String("task_type", t.Type()),
				slog.Any("error", err))
		}
		return err
	}

	const query = `
		DELETE FROM topics
		WHERE grouping <> '' AND created_at < now() - make_interval(secs => $1)`

	result, err := h.db.ExecContext(ctx, query, payload.OlderThan.Seconds())
	if err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "topic sweep: delete failed", slog.Any("error", err))
		}
		return err
	}

	removed, _ := result.RowsAffected()
	if h.log != nil {
		h.log.InfoContext(ctx, "topic sweep: completed", slog.Int64("removed", removed))
	}

	return nil
}
