package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/account"
	"github.com/ticketforge/foreman-bot/internal/amount"
	"github.com/ticketforge/foreman-bot/internal/i18n"
	"github.com/ticketforge/foreman-bot/internal/platform"
)

// NewLoyaltyHandler returns an admin handler that adds or subtracts loyalty
// points. Usage: <command> <user> <amount>. The sign selects the direction.
func NewLoyaltyHandler(accounts *account.Service, ent platform.Entitlements, t i18n.Translator, log *slog.Logger, commandName string, sign int64) Handler {
	return func(c telebot.Context) error {
		userID, amountText, ok, err := adjustArgs(c, ent, t, commandName)
		if err != nil || !ok {
			return err
		}

		delta, err := amount.Parse(amountText)
		if err != nil {
			return c.Send(t.T("errors.invalid_amount"))
		}

		newBalance, err := accounts.AdjustLoyalty(context.Background(), userID, sign*delta)
		if err != nil {
			if log != nil {
				log.Error("loyalty adjustment failed", slog.String("user_id", userID), slog.Any("error", err))
			}
			return err
		}

		return c.Send(fmt.Sprintf(t.T("loyalty.adjusted"), userID, amount.Format(newBalance)))
	}
}

// NewBankHandler returns an admin handler that adds or subtracts bank funds.
func NewBankHandler(accounts *account.Service, ent platform.Entitlements, t i18n.Translator, log *slog.Logger, commandName string, subtract bool) Handler {
	return func(c telebot.Context) error {
		userID, amountText, ok, err := adjustArgs(c, ent, t, commandName)
		if err != nil || !ok {
			return err
		}

		ctx := context.Background()

		var newBalance int64
		if subtract {
			newBalance, err = accounts.SubtractBank(ctx, userID, amountText)
		} else {
			newBalance, err = accounts.AddBank(ctx, userID, amountText)
		}
		if err != nil {
			if log != nil {
				log.Error("bank adjustment failed", slog.String("user_id", userID), slog.Any("error", err))
			}
			return err
		}

		return c.Send(fmt.Sprintf(t.T("bank.adjusted"), userID, amount.Format(newBalance)))
	}
}

// adjustArgs validates the admin entitlement and extracts the target user and
// amount. The target is the replied-to sender when present, otherwise the
// first argument, which must be a numeric user id so ledger keys stay
// consistent with the ids the rest of the bot writes.
func adjustArgs(c telebot.Context, ent platform.Entitlements, t i18n.Translator, commandName string) (userID, amountText string, ok bool, err error) {
	if c == nil || c.Sender() == nil {
		return "", "", false, nil
	}

	allowed, err := requireEntitlement(context.Background(), ent, c, platform.RoleAdmin)
	if err != nil {
		return "", "", false, err
	}
	if !allowed {
		return "", "", false, nil
	}

	args := c.Args()

	if msg := c.Message(); msg != nil && msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
		if len(args) < 1 {
			return "", "", false, c.Send(fmt.Sprintf(t.T("usage.adjust"), commandName, commandName))
		}
		return ActorFromUser(msg.ReplyTo.Sender).ID, args[0], true, nil
	}

	if len(args) < 2 {
		return "", "", false, c.Send(fmt.Sprintf(t.T("usage.adjust"), commandName, commandName))
	}

	if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
		return "", "", false, c.Send(fmt.Sprintf(t.T("usage.adjust"), commandName, commandName))
	}

	return args[0], args[1], true, nil
}
