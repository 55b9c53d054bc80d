package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/account"
	"github.com/ticketforge/foreman-bot/internal/amount"
	"github.com/ticketforge/foreman-bot/internal/i18n"
)

// NewDailyHandler returns a handler for the /daily command.
func NewDailyHandler(accounts *account.Service, t i18n.Translator, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		actor := ActorFromUser(c.Sender())

		result, err := accounts.ClaimDaily(context.Background(), actor.ID)
		if err != nil {
			if log != nil {
				log.Error("daily claim failed", slog.String("user_id", actor.ID), slog.Any("error", err))
			}
			return err
		}

		if !result.Claimed {
			return c.Send(fmt.Sprintf(t.T("daily.wait"), result.Remaining.Round(time.Second)))
		}

		return c.Send(fmt.Sprintf(t.T("daily.claimed"), amount.Format(result.Amount)))
	}
}
