// Package bot wires the Telegram transport to the command handlers.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/account"
	"github.com/ticketforge/foreman-bot/internal/bot/handlers"
	errors "github.com/ticketforge/foreman-bot/internal/errors"
	"github.com/ticketforge/foreman-bot/internal/i18n"
	"github.com/ticketforge/foreman-bot/internal/idempotency"
	"github.com/ticketforge/foreman-bot/internal/middleware"
	"github.com/ticketforge/foreman-bot/internal/order"
	"github.com/ticketforge/foreman-bot/internal/platform"
	"github.com/ticketforge/foreman-bot/pkg/config"
)

// Deps carries everything the bot needs beyond its own transport.
type Deps struct {
	Accounts           *account.Service
	Workflow           *order.Workflow
	Entitlements       platform.Entitlements
	Resolver           handlers.ChannelResolver
	Registrar          handlers.TopicRegistrar
	Translator         i18n.Translator
	IdempotencyManager idempotency.Manager
	RateLimitMw        *middleware.RateLimitMiddleware
	// Shutdown stops the whole process; invoked by the owner command.
	Shutdown func()
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	router     *Router
	errHandler *errors.Handler
	deps       Deps
}

// NewTelebot builds the raw transport so other components that need it,
// like the platform gateway, can share the instance.
func NewTelebot(cfg config.Config) (*telebot.Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return tb, nil
}

// New wires an existing telebot instance to the command router.
func New(tb *telebot.Bot, cfg config.Config, log *slog.Logger, deps Deps) *Bot {
	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		router:     NewRouter(log),
		errHandler: errors.NewHandler(log, cfg.Sentry.Enabled),
		deps:       deps,
	}

	b.setupRouter()

	if tb != nil {
		if deps.RateLimitMw != nil {
			tb.Use(deps.RateLimitMw.Handle)
		}
		tb.Handle(telebot.OnText, b.router.Route)

		if deps.Registrar != nil {
			tb.Handle(telebot.OnTopicCreated,
				telebot.HandlerFunc(handlers.NewTopicCreatedHandler(deps.Registrar, log)))
		}
	}

	return b
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Router exposes the command router, used by tests.
func (b *Bot) Router() *Router {
	return b.router
}

func (b *Bot) setupRouter() {
	t := b.deps.Translator

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler, t))
	b.router.Use(middleware.Idempotency(b.deps.IdempotencyManager, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler, t))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(AuthMiddleware(b.deps.Accounts, b.log))
	b.router.Use(middleware.Metrics)

	accounts := b.deps.Accounts
	ent := b.deps.Entitlements
	resolver := b.deps.Resolver

	b.router.RegisterCommand(CommandProfile, handlers.NewProfileHandler(accounts, t, b.log))
	b.router.RegisterCommand(CommandDaily, handlers.NewDailyHandler(accounts, t, b.log))
	b.router.RegisterCommand(CommandAddLP, handlers.NewLoyaltyHandler(accounts, ent, t, b.log, CommandAddLP, 1))
	b.router.RegisterCommand(CommandSubLP, handlers.NewLoyaltyHandler(accounts, ent, t, b.log, CommandSubLP, -1))
	b.router.RegisterCommand(CommandBankAdd, handlers.NewBankHandler(accounts, ent, t, b.log, CommandBankAdd, false))
	b.router.RegisterCommand(CommandBankSub, handlers.NewBankHandler(accounts, ent, t, b.log, CommandBankSub, true))
	b.router.RegisterCommand(CommandShutdown, handlers.NewShutdownHandler(b.cfg.Bot.OwnerID, b.deps.Shutdown, t, b.log))

	if b.deps.Workflow != nil {
		b.router.RegisterCommand(CommandPaid, handlers.NewPaidHandler(b.deps.Workflow, ent, resolver, t, b.log))
		b.router.RegisterCommand(CommandWorker, handlers.NewWorkerHandler(b.deps.Workflow, ent, resolver, t, b.log))
	}
}
