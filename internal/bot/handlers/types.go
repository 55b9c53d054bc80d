package handlers

import (
	"context"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/platform"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// ChannelResolver maps a forum topic back to its canonical channel.
// Incoming Telegram messages only carry the numeric thread id.
type ChannelResolver interface {
	ResolveThread(ctx context.Context, chatID int64, threadID int) (*platform.Channel, error)
}

// TopicRegistrar records a channel under its canonical name so later
// lookups resolve even after the display name changes.
type TopicRegistrar interface {
	Register(ctx context.Context, ch platform.Channel) error
}

// ActorFromUser converts a Telegram user into a platform actor.
func ActorFromUser(u *telebot.User) platform.Actor {
	if u == nil {
		return platform.Actor{}
	}

	name := strings.TrimSpace(u.Username)
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}

	return platform.Actor{
		ID:          strconv.FormatInt(u.ID, 10),
		DisplayName: name,
	}
}

// channelFromContext resolves the canonical channel the update arrived in.
func channelFromContext(ctx context.Context, resolver ChannelResolver, c telebot.Context) (*platform.Channel, error) {
	chat := c.Chat()
	if chat == nil {
		return nil, platform.ErrChannelNotFound
	}

	threadID := 0
	if msg := c.Message(); msg != nil {
		threadID = msg.ThreadID
	}

	if resolver == nil || threadID == 0 {
		return &platform.Channel{ChatID: chat.ID, ThreadID: threadID}, nil
	}

	return resolver.ResolveThread(ctx, chat.ID, threadID)
}

// requireEntitlement checks the sender holds the label, tolerating a nil
// checker for tests.
func requireEntitlement(ctx context.Context, ent platform.Entitlements, c telebot.Context, label string) (bool, error) {
	if ent == nil {
		return true, nil
	}

	sender := c.Sender()
	if sender == nil {
		return false, nil
	}

	return ent.Has(ctx, ActorFromUser(sender), label)
}
