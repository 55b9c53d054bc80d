package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/i18n"
)

// NewShutdownHandler returns a handler for the /shutdown command. Only the
// configured owner may trigger it; everyone else is silently ignored.
func NewShutdownHandler(ownerID int64, shutdown func(), t i18n.Translator, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		if ownerID == 0 || c.Sender().ID != ownerID {
			return nil
		}

		if err := c.Send(t.T("shutdown.ack")); err != nil && log != nil {
			log.Warn("shutdown acknowledgement not delivered", slog.Any("error", err))
		}

		if log != nil {
			log.Info("shutdown requested by owner", slog.Int64("owner_id", ownerID))
		}

		if shutdown != nil {
			go shutdown()
		}

		return nil
	}
}
