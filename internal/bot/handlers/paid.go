package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/amount"
	"github.com/ticketforge/foreman-bot/internal/i18n"
	"github.com/ticketforge/foreman-bot/internal/order"
	"github.com/ticketforge/foreman-bot/internal/platform"
)

// NewPaidHandler returns a handler for the /paid command. It must be issued
// inside a ticket topic by an admin. The payer is the sender of the replied-to
// message when the command is a reply, otherwise the command sender.
func NewPaidHandler(wf *order.Workflow, ent platform.Entitlements, resolver ChannelResolver, t i18n.Translator, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()

		ok, err := requireEntitlement(ctx, ent, c, platform.RoleAdmin)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		args := c.Args()
		if len(args) == 0 {
			return c.Send(t.T("usage.paid"))
		}

		channel, err := channelFromContext(ctx, resolver, c)
		if err != nil {
			return err
		}

		payer := ActorFromUser(c.Sender())
		if msg := c.Message(); msg != nil && msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
			payer = ActorFromUser(msg.ReplyTo.Sender)
		}

		req := order.PaidRequest{
			Channel:    *channel,
			Payer:      payer,
			AmountText: args[0],
			Note:       strings.Join(args[1:], " "),
		}

		result, err := wf.MarkPaid(ctx, req)
		if err != nil {
			if log != nil {
				log.Error("paid transition failed",
					slog.String("channel", channel.Name),
					slog.String("payer_id", payer.ID),
					slog.Any("error", err))
			}
			return err
		}

		reply := fmt.Sprintf(t.T("paid.done"), result.TicketID)
		if result.LoyaltyGained != 0 {
			reply += "\n" + fmt.Sprintf(t.T("paid.loyalty_gained"), amount.Format(result.LoyaltyGained))
		}
		if len(result.Warnings) > 0 {
			reply += "\n" + fmt.Sprintf(t.T("paid.warnings"), strings.Join(result.Warnings, "; "))
		}

		return c.Send(reply)
	}
}
