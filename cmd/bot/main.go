package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/lib/pq"

	"github.com/ticketforge/foreman-bot/internal/account"
	"github.com/ticketforge/foreman-bot/internal/accountcache"
	"github.com/ticketforge/foreman-bot/internal/bot"
	"github.com/ticketforge/foreman-bot/internal/database"
	apperrors "github.com/ticketforge/foreman-bot/internal/errors"
	"github.com/ticketforge/foreman-bot/internal/health"
	"github.com/ticketforge/foreman-bot/internal/i18n"
	"github.com/ticketforge/foreman-bot/internal/idempotency"
	"github.com/ticketforge/foreman-bot/internal/jobs"
	jobhandlers "github.com/ticketforge/foreman-bot/internal/jobs/handlers"
	"github.com/ticketforge/foreman-bot/internal/ledger"
	"github.com/ticketforge/foreman-bot/internal/lifecycle"
	"github.com/ticketforge/foreman-bot/internal/middleware"
	"github.com/ticketforge/foreman-bot/internal/order"
	"github.com/ticketforge/foreman-bot/internal/platform"
	"github.com/ticketforge/foreman-bot/internal/platform/telegram"
	"github.com/ticketforge/foreman-bot/internal/ratelimit"
	"github.com/ticketforge/foreman-bot/pkg/config"
	"github.com/ticketforge/foreman-bot/pkg/graceful"
	"github.com/ticketforge/foreman-bot/pkg/logger"
	"github.com/ticketforge/foreman-bot/pkg/metrics"
	appredis "github.com/ticketforge/foreman-bot/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(*cfg)

	if cfg.Sentry.Enabled {
		env := cfg.Sentry.Environment
		if env == "" {
			env = cfg.AppEnv
		}

		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: env}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	config.Watch(v, log, func(updated *config.Config) {
		logger.SetLevel(updated.Logger.Level)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting foreman bot",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.Server.Port),
		slog.String("log_level", cfg.Logger.Level))

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	redisClient, err := openRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			log.Error("error closing redis", slog.Any("error", cerr))
		}
	}()

	translations, err := i18n.Load("en")
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	translator := translations.Translator("en")

	store := ledger.NewPostgresStore(db, log)
	cache := accountcache.NewCache(appredis.NewMetricsClient(redisClient))
	accounts := account.NewService(store, redisClient.Client, log, account.WithCache(cache))

	order.RegisterTransitionRecorder(metrics.RecordOrderTransition)

	tracker := order.NewRedisTracker(redisClient.Client, log, cfg.Workflow.StatusTTL)

	tb, err := bot.NewTelebot(*cfg)
	if err != nil {
		return err
	}

	roles := telegram.NewRoleStore(db)
	topics := telegram.NewTopicRegistry(db)
	gateway := telegram.NewGateway(tb, roles, topics, log)

	workflow := order.NewWorkflow(gateway, accounts, tracker, order.Config{
		WorkersChannel: platform.Channel{
			ChatID: cfg.Workflow.WorkersChatID,
			Name:   "workers",
		},
		PaidGroup: cfg.Workflow.PaidGroup,
	}, log)

	idemStore := idempotency.NewRedisStore(redisClient.Client, log)
	idemManager := idempotency.NewManager(idemStore, log)

	var rateLimitMw *middleware.RateLimitMiddleware
	rules := ratelimit.NewRules(cfg.RateLimit)
	if rules.Enabled() {
		limiter := ratelimit.NewRedisLimiter(redisClient.Client, log)
		rateLimitMw = middleware.NewRateLimitMiddleware(limiter, rules, log)
	}

	b := bot.New(tb, *cfg, log, bot.Deps{
		Accounts:           accounts,
		Workflow:           workflow,
		Entitlements:       roles,
		Resolver:           topics,
		Registrar:          topics,
		Translator:         translator,
		IdempotencyManager: idemManager,
		RateLimitMw:        rateLimitMw,
		Shutdown:           stop,
	})

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	checker.AddCheck("telegram", health.NewTelegramChecker(tb))

	probes := lifecycle.NewProbes(log, func(ctx context.Context) error {
		for name, status := range checker.Check(ctx) {
			if status != "OK" {
				return fmt.Errorf("%s: %s", name, status)
			}
		}
		return nil
	})

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram bot", func(context.Context) error {
		b.Stop()
		return nil
	})

	go ratelimit.NewCleaner(redisClient.Client, log, 10*time.Minute).Run(ctx)
	go idempotency.NewCleaner(redisClient.Client, log, time.Hour).Run(ctx)

	if cfg.Jobs.Enabled {
		startJobs(cfg, log, db, store, redisClient, shutdown)
	}

	go func() {
		srv := newHTTPServer(cfg, log, probes)
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("http server stopped with error", slog.Any("error", err))
		}
	}()

	go b.Start()
	log.Info("foreman bot is running")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return shutdown.Execute(shutdownCtx)
}

func openDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := apperrors.WithRetry(ctx, func() error {
		return db.PingContext(ctx)
	}); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connection established", slog.String("host", cfg.Database.Host))
	return db, nil
}

func openRedis(ctx context.Context, cfg *config.Config, log *slog.Logger) (*appredis.Client, error) {
	var client *appredis.Client

	if err := apperrors.WithRetry(ctx, func() error {
		var err error
		client, err = appredis.New(ctx, appredis.Config{
			Addr:            cfg.Redis.Addr,
			Password:        cfg.Redis.Password,
			DB:              cfg.Redis.DB,
			PoolSize:        cfg.Redis.PoolSize,
			MinIdleConns:    cfg.Redis.MinIdleConns,
			PoolTimeout:     cfg.Redis.PoolTimeout,
			IdleTimeout:     cfg.Redis.IdleTimeout,
			MaxRetries:      cfg.Redis.MaxRetries,
			MinRetryBackoff: cfg.Redis.MinRetryBackoff,
			MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		})
		return err
	}); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	log.Info("redis connection established", slog.String("addr", cfg.Redis.Addr))
	return client, nil
}

func startJobs(cfg *config.Config, log *slog.Logger, db *sql.DB, store *ledger.PostgresStore, redisClient *appredis.Client, shutdown *lifecycle.Shutdown) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	worker := jobs.NewWorker(redisOpt, map[string]int{
		jobs.QueueCritical: 6,
		jobs.QueueDefault:  3,
		jobs.QueueLow:      1,
	}, log)
	worker.RegisterHandler(jobs.TaskTypeLedgerStats, jobhandlers.NewLedgerStatsHandler(store, log))
	worker.RegisterHandler(jobs.TaskTypeTopicSweep, jobhandlers.NewTopicSweepHandler(db, log))

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped with error", slog.Any("error", err))
		}
	}()

	scheduler := jobs.NewScheduler(redisOpt, cfg.Jobs.LedgerStatsCron, log)
	if err := scheduler.RegisterTasks(); err != nil {
		log.Error("failed to register scheduled tasks", slog.Any("error", err))
	} else {
		scheduler.Run()
	}

	shutdown.Register("jobs worker", func(context.Context) error {
		scheduler.Shutdown()
		worker.Shutdown()
		return nil
	})
}

func newHTTPServer(cfg *config.Config, log *slog.Logger, probes *lifecycle.Probes) *graceful.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := probes.Liveness(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := probes.Readiness(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	handler := logger.Middleware(middleware.New(log)(mux))

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return graceful.NewServer(log, srv, cfg.Server.ShutdownTimeout)
}
