package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ticketforge/foreman-bot/pkg/metrics"
)

// LedgerStatsHandler refreshes the ledger accounts gauge from the database.
type LedgerStatsHandler struct {
	counter metrics.AccountCounter
	log     *slog.Logger
}

func NewLedgerStatsHandler(counter metrics.AccountCounter, log *slog.Logger) *LedgerStatsHandler {
	return &LedgerStatsHandler{counter: counter, log: log}
}

func (h *LedgerStatsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if err := metrics.RefreshAccountsGauge(ctx, h.counter); err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "ledger stats: gauge refresh failed",
				slog.String("task_type", t.Type()),
				slog.Any("error", err))
		}
		return err
	}

	if h.log != nil {
		h.log.InfoContext(ctx, "ledger stats: accounts gauge refreshed", slog.String("task_type", t.Type()))
	}

	return nil
}
