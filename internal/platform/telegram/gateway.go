// Package telegram adapts a forum-enabled Telegram supergroup to the
// platform contracts. Ticket channels are forum topics, coordination
// threads are topics in the workers group, and entitlements live in
// Postgres because Telegram has no native role system.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/platform"
)

// Gateway implements platform.Gateway on top of telebot.
type Gateway struct {
	bot    *telebot.Bot
	roles  *RoleStore
	topics *TopicRegistry
	log    *slog.Logger
}

var _ platform.Gateway = (*Gateway)(nil)

func NewGateway(bot *telebot.Bot, roles *RoleStore, topics *TopicRegistry, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}

	return &Gateway{
		bot:    bot,
		roles:  roles,
		topics: topics,
		log:    log,
	}
}

func (g *Gateway) Has(ctx context.Context, actor platform.Actor, label string) (bool, error) {
	return g.roles.Has(ctx, actor, label)
}

func (g *Gateway) Grant(ctx context.Context, actor platform.Actor, label string) error {
	return g.roles.Grant(ctx, actor, label)
}

// Move retags the topic under the named grouping. The display name changes
// but the canonical name in the registry does not, so later lookups still
// resolve.
func (g *Gateway) Move(ctx context.Context, ch platform.Channel, group string) error {
	topic := &telebot.Topic{
		ThreadID: ch.ThreadID,
		Name:     fmt.Sprintf("[%s] %s", group, ch.Name),
	}

	if err := g.bot.EditTopic(chat(ch.ChatID), topic); err != nil {
		return platform.NewTransportError("move channel", err)
	}

	if err := g.topics.SetGroup(ctx, ch, group); err != nil {
		g.log.Warn("topic group not recorded",
			slog.String("channel", ch.Name),
			slog.String("group", group),
			slog.Any("error", err))
	}

	return nil
}

func (g *Gateway) Find(ctx context.Context, name string) (*platform.Channel, error) {
	return g.topics.Find(ctx, name)
}

// GrantAccess lifts any ban or restriction keeping the actor out of the
// chat. Telegram topics have no per-user permissions beyond the chat, so
// this is the closest available primitive.
func (g *Gateway) GrantAccess(ctx context.Context, ch platform.Channel, actor platform.Actor) error {
	userID, err := strconv.ParseInt(actor.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse actor id %q: %w", actor.ID, err)
	}

	if err := g.bot.Unban(chat(ch.ChatID), &telebot.User{ID: userID}, true); err != nil {
		return platform.NewTransportError("grant channel access", err)
	}

	return nil
}

func (g *Gateway) Send(ctx context.Context, ch platform.Channel, content string) (*platform.Message, error) {
	opts := &telebot.SendOptions{
		ThreadID:  ch.ThreadID,
		ParseMode: telebot.ModeMarkdown,
	}

	sent, err := g.bot.Send(telebot.ChatID(ch.ChatID), content, opts)
	if err != nil {
		return nil, platform.NewTransportError("send message", err)
	}

	return &platform.Message{Channel: ch, MessageID: sent.ID}, nil
}

func (g *Gateway) Pin(ctx context.Context, msg *platform.Message) error {
	stored := telebot.StoredMessage{
		MessageID: strconv.Itoa(msg.MessageID),
		ChatID:    msg.Channel.ChatID,
	}

	if err := g.bot.Pin(stored); err != nil {
		return platform.NewTransportError("pin message", err)
	}

	return nil
}

func (g *Gateway) OpenThread(ctx context.Context, parent platform.Channel, name string) (*platform.Channel, error) {
	topic, err := g.bot.CreateTopic(chat(parent.ChatID), &telebot.Topic{Name: name})
	if err != nil {
		return nil, platform.NewTransportError("open thread", err)
	}

	thread := platform.Channel{
		ChatID:   parent.ChatID,
		ThreadID: topic.ThreadID,
		Name:     name,
	}

	if err := g.topics.Register(ctx, thread); err != nil {
		g.log.Warn("thread not registered", slog.String("name", name), slog.Any("error", err))
	}

	return &thread, nil
}

func (g *Gateway) CloseThread(ctx context.Context, thread platform.Channel) error {
	if err := g.bot.CloseTopic(chat(thread.ChatID), &telebot.Topic{ThreadID: thread.ThreadID}); err != nil {
		return platform.NewTransportError("close thread", err)
	}

	if err := g.topics.Remove(ctx, thread); err != nil {
		g.log.Warn("closed thread not removed from registry",
			slog.String("name", thread.Name),
			slog.Any("error", err))
	}

	return nil
}

func (g *Gateway) MentionActor(actor platform.Actor) string {
	name := actor.DisplayName
	if name == "" {
		name = actor.ID
	}

	return fmt.Sprintf("[%s](tg://user?id=%s)", name, actor.ID)
}

// MentionRole renders a plain-text role callout. Telegram cannot notify a
// role, so workers are expected to follow the coordination group.
func (g *Gateway) MentionRole(label string) string {
	return "@" + label
}

func chat(id int64) *telebot.Chat {
	return &telebot.Chat{ID: id}
}
