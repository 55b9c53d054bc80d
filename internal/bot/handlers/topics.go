package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/platform"
)

// NewTopicCreatedHandler records forum topics in the channel registry as
// Telegram announces them. Ticket topics are opened by admins, not by the
// bot, so this service-message path is what makes them resolvable later.
func NewTopicCreatedHandler(registrar TopicRegistrar, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		msg := c.Message()
		chat := c.Chat()
		if msg == nil || msg.TopicCreated == nil || chat == nil {
			return nil
		}

		ch := platform.Channel{
			ChatID:   chat.ID,
			ThreadID: msg.ThreadID,
			Name:     msg.TopicCreated.Name,
		}
		if ch.ThreadID == 0 || ch.Name == "" {
			return nil
		}

		if err := registrar.Register(context.Background(), ch); err != nil {
			if log != nil {
				log.Error("topic not registered",
					slog.String("name", ch.Name),
					slog.Int64("chat_id", ch.ChatID),
					slog.Any("error", err))
			}
			return nil
		}

		if log != nil {
			log.Info("topic registered",
				slog.String("name", ch.Name),
				slog.Int64("chat_id", ch.ChatID),
				slog.Int("thread_id", ch.ThreadID))
		}

		return nil
	}
}
