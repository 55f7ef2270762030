package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mhttp "github.com/Kondo2021/redmine-messenger/internal/adapter/http"
	"github.com/Kondo2021/redmine-messenger/internal/adapter/inproc"
	mnats "github.com/Kondo2021/redmine-messenger/internal/adapter/nats"
	otelx "github.com/Kondo2021/redmine-messenger/internal/adapter/otel"
	"github.com/Kondo2021/redmine-messenger/internal/adapter/postgres"
	"github.com/Kondo2021/redmine-messenger/internal/adapter/ristretto"
	"github.com/Kondo2021/redmine-messenger/internal/adapter/webhook"
	"github.com/Kondo2021/redmine-messenger/internal/config"
	"github.com/Kondo2021/redmine-messenger/internal/domain/classify"
	"github.com/Kondo2021/redmine-messenger/internal/domain/locale"
	"github.com/Kondo2021/redmine-messenger/internal/logger"
	"github.com/Kondo2021/redmine-messenger/internal/port/dispatch"
	"github.com/Kondo2021/redmine-messenger/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"dispatch_mode", cfg.Dispatch.Mode,
		"locale", cfg.Locale.Tag,
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownTelemetry, err := otelx.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := otelx.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	store := postgres.NewStore(pool, cfg.Tracker.BaseURL)

	dir, err := ristretto.New(store, cfg.Cache.MaxEntries, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("directory cache: %w", err)
	}
	defer dir.Close()

	transport := webhook.NewTransport(cfg.Webhook.Timeout, cfg.Webhook.VerifySSL, log, metrics)

	// --- Dispatcher ---
	var dispatcher dispatch.Dispatcher
	switch cfg.Dispatch.Mode {
	case "nats":
		nd, err := mnats.Connect(ctx, cfg.NATS.URL, log)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer nd.Close()
		cc, err := nd.StartWorker(ctx, transport)
		if err != nil {
			return fmt.Errorf("nats worker: %w", err)
		}
		defer cc.Stop()
		dispatcher = nd
	default:
		id := inproc.New(transport, cfg.Dispatch.MaxInFlight, log)
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := id.Close(drainCtx); err != nil {
				slog.Warn("dispatcher drain failed", "error", err)
			}
		}()
		dispatcher = id
	}

	// --- Services ---
	labels := locale.ByTag(cfg.Locale.Tag)
	composer := &service.Composer{Dir: dir, Labels: labels}
	classifier := classify.Classifier{Issues: dir}

	notifier := service.NewNotificationService(
		store, dir, composer, classifier, dispatcher,
		webhook.Options{Username: cfg.Webhook.Username, AvatarURL: cfg.Webhook.IconURL},
		log, metrics,
	)

	// --- HTTP ---
	handlers := mhttp.NewHandlers(notifier, log)

	r := chi.NewRouter()
	r.Use(mhttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(otelx.HTTPMiddleware(cfg.Logging.Service))

	mhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
