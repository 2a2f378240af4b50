package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fondos-co/fondos-bot/internal/bot"
	"github.com/fondos-co/fondos-bot/internal/fundapi"
	"github.com/fondos-co/fondos-bot/internal/health"
	"github.com/fondos-co/fondos-bot/internal/i18n"
	"github.com/fondos-co/fondos-bot/internal/idempotency"
	"github.com/fondos-co/fondos-bot/internal/lifecycle"
	"github.com/fondos-co/fondos-bot/internal/middleware"
	"github.com/fondos-co/fondos-bot/internal/portfolio"
	"github.com/fondos-co/fondos-bot/internal/ratelimit"
	"github.com/fondos-co/fondos-bot/internal/state"
	"github.com/fondos-co/fondos-bot/pkg/config"
	"github.com/fondos-co/fondos-bot/pkg/graceful"
	"github.com/fondos-co/fondos-bot/pkg/logger"
	"github.com/fondos-co/fondos-bot/pkg/metrics"
	redisx "github.com/fondos-co/fondos-bot/pkg/redis"
)

const cleanerInterval = time.Hour

func main() {
	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Log, cfg.Sentry.Enabled)
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("failed to initialize sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.Watch(v, log, func(updated *config.Config) {
		log.Info("configuration file changed, restart to apply",
			slog.String("env", updated.AppEnv),
		)
	})

	redisClient, err := redisx.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}

	apiClient := fundapi.New(cfg.FundAPI.BaseURL, cfg.FundAPI.Timeout, log)

	loader := portfolio.NewLoader(apiClient, log)
	snapshotStore := portfolio.NewStore(redisx.NewMetricsClient(redisClient))
	portfolioSvc := portfolio.NewService(loader, snapshotStore, log)

	stateStorage := state.NewRedisStorage(redisClient.Client, log)
	fsm := state.NewStateMachine(stateStorage, log, redisClient.Client)
	state.RegisterTransitionRecorder(metrics.RecordStateTransition)

	stateCleaner := state.NewCleaner(redisClient.Client, stateStorage, log, cfg.State.TTL, cfg.State.CleanupInterval)
	go stateCleaner.Run(ctx)

	idemManager := idempotency.NewManager(idempotency.NewRedisStore(redisClient.Client, log), log)
	idemCleaner := idempotency.NewCleaner(redisClient.Client, log, cleanerInterval)
	go idemCleaner.Run(ctx)

	limiter := ratelimit.NewAdaptiveLimiter(
		ratelimit.NewRedisLimiter(redisClient.Client, log),
		ratelimit.NewMemoryLimiter(log),
		log,
	)
	rateLimitMw := middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), log)
	rateLimitCleaner := ratelimit.NewCleaner(redisClient.Client, log, cleanerInterval)
	go rateLimitCleaner.Run(ctx)

	translations, err := i18n.Load("es")
	if err != nil {
		log.Error("failed to load translations", slog.Any("error", err))
		os.Exit(1)
	}

	b, err := bot.New(*cfg, log, apiClient, portfolioSvc, fsm, translations.Translator("es"), idemManager, rateLimitMw)
	if err != nil {
		log.Error("failed to initialize bot", slog.Any("error", err))
		os.Exit(1)
	}

	checker := health.NewChecker(log)
	checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	checker.AddCheck("fund_api", health.NewFundAPIChecker(apiClient))
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))

	stateCollector := metrics.NewStateCollector(state.NewLabelSource(fsm))
	go stateCollector.Run(ctx)

	opsServer := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: middleware.New(log)(opsMux(checker)),
	}, cfg.Server.ShutdownTimeout)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- opsServer.ListenAndServe(ctx)
	}()

	go b.Start()
	log.Info("fondos bot started",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("fund_api", cfg.FundAPI.BaseURL),
	)

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram_bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	shutdown.Register("redis", func(context.Context) error {
		return redisClient.Close()
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	if err := <-serverErr; err != nil && err != http.ErrServerClosed {
		log.Error("ops server terminated abnormally", slog.Any("error", err))
	}

	log.Info("fondos bot stopped")
}

func opsMux(checker *health.Checker) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())

		status := http.StatusOK
		for _, result := range results {
			if result != "OK" {
				status = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(results)
	})

	return mux
}
