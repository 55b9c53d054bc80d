package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/bot/handlers"
	"github.com/ticketforge/foreman-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		command := extractCommandName(c)
		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(command, status, time.Since(start))

		return err
	}
}

// extractCommandName keeps only the bare command so label cardinality stays
// bounded regardless of arguments.
func extractCommandName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	text := c.Text()
	if !strings.HasPrefix(text, "/") {
		return "unknown"
	}

	if idx := strings.IndexAny(text, " \n"); idx >= 0 {
		text = text[:idx]
	}
	if idx := strings.Index(text, "@"); idx >= 0 {
		text = text[:idx]
	}

	return text
}
