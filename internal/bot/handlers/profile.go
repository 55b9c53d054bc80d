package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/account"
	"github.com/ticketforge/foreman-bot/internal/amount"
	"github.com/ticketforge/foreman-bot/internal/i18n"
)

// NewProfileHandler returns a handler for the /profile command. Replying to
// another member's message shows their ledger instead of the sender's.
func NewProfileHandler(accounts *account.Service, t i18n.Translator, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		sender := c.Sender()
		if sender == nil {
			return nil
		}

		ctx := context.Background()
		actor := ActorFromUser(sender)
		if msg := c.Message(); msg != nil && msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
			actor = ActorFromUser(msg.ReplyTo.Sender)
		}

		record, err := accounts.EnsureAndFetch(ctx, actor.ID)
		if err != nil {
			if log != nil {
				log.Error("profile handler failed to fetch account", slog.String("user_id", actor.ID), slog.Any("error", err))
			}
			return err
		}

		lastRedeem := record.LastRedeem
		if lastRedeem == "" {
			lastRedeem = t.T("profile.never_redeemed")
		}

		lines := []string{
			t.T("profile.header"),
			fmt.Sprintf(t.T("profile.spent"), amount.Format(record.Spent)),
			fmt.Sprintf(t.T("profile.loyalty"), amount.Format(record.LoyaltyPoints)),
			fmt.Sprintf(t.T("profile.bank"), amount.Format(record.Bank)),
			fmt.Sprintf(t.T("profile.last_redeem"), lastRedeem),
		}

		return c.Send(strings.Join(lines, "\n"))
	}
}
