package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/i18n"
	"github.com/ticketforge/foreman-bot/internal/order"
	"github.com/ticketforge/foreman-bot/internal/platform"
)

// NewWorkerHandler returns a handler for the /worker command, issued inside a
// coordination thread. A worker claims the order for themselves; an admin can
// nominate someone else by replying to their message.
func NewWorkerHandler(wf *order.Workflow, ent platform.Entitlements, resolver ChannelResolver, t i18n.Translator, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()

		thread, err := channelFromContext(ctx, resolver, c)
		if err != nil {
			return c.Send(t.T("worker.not_thread"))
		}

		nominee := ActorFromUser(c.Sender())
		if msg := c.Message(); msg != nil && msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
			isAdmin, err := requireEntitlement(ctx, ent, c, platform.RoleAdmin)
			if err != nil {
				return err
			}
			if !isAdmin {
				return nil
			}
			nominee = ActorFromUser(msg.ReplyTo.Sender)
		}

		req := order.AssignRequest{
			Thread:  *thread,
			Nominee: nominee,
		}

		result, err := wf.AssignWorker(ctx, req)
		switch {
		case err == nil:
			return c.Send(fmt.Sprintf(t.T("worker.claimed"), result.TicketID))
		case errors.Is(err, order.ErrNotAThread), errors.Is(err, order.ErrMalformedThreadName):
			return c.Send(t.T("worker.not_thread"))
		case errors.Is(err, order.ErrNotAWorker):
			return c.Send(t.T("worker.not_worker"))
		case errors.Is(err, order.ErrOrderChannelNotFound):
			return c.Send(t.T("worker.channel_missing"))
		default:
			if log != nil {
				log.Error("worker assignment failed",
					slog.String("thread", thread.Name),
					slog.String("nominee_id", nominee.ID),
					slog.Any("error", err))
			}
			return err
		}
	}
}
