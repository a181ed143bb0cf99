package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/evdms-platform/evdms-backend/api/routes"
	"github.com/evdms-platform/evdms-backend/internal/auth"
	"github.com/evdms-platform/evdms-backend/internal/dealers"
	"github.com/evdms-platform/evdms-backend/internal/passwordreset"
	"github.com/evdms-platform/evdms-backend/internal/preferences"
	"github.com/evdms-platform/evdms-backend/internal/revocation"
	"github.com/evdms-platform/evdms-backend/internal/users"
	"github.com/evdms-platform/evdms-backend/pkg/auth/session"
	"github.com/evdms-platform/evdms-backend/pkg/config"
	"github.com/evdms-platform/evdms-backend/pkg/db"
	"github.com/evdms-platform/evdms-backend/pkg/env"
	"github.com/evdms-platform/evdms-backend/pkg/instance"
	"github.com/evdms-platform/evdms-backend/pkg/logger"
	"github.com/evdms-platform/evdms-backend/pkg/metrics"
	"github.com/evdms-platform/evdms-backend/pkg/migrate"
	"github.com/evdms-platform/evdms-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	dealersRepo := dealers.NewRepository(dbClient.DB())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	authMetrics := metrics.NewAuthMetrics(registry)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Metrics:        authMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	resetService, err := passwordreset.NewService(passwordreset.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		Store:          redisClient,
		Keyer:          redisClient,
		ResetConfig:    cfg.Reset,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create password reset service", err)
		os.Exit(1)
	}

	prefsService, err := preferences.NewService(redisClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create preferences service", err)
		os.Exit(1)
	}

	listener, err := revocation.NewListener(redisClient, prefsService, logg, authMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create revocation listener", err)
		os.Exit(1)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		if err := listener.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(rootCtx, "revocation listener stopped", err)
		}
	}()

	addr := ":" + env.Get("PORT", cfg.App.Port)

	ctx := logg.WithFields(rootCtx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Sessions:     sessionManager,
			AuthService:  authService,
			ResetService: resetService,
			Preferences:  prefsService,
			UsersRepo:    usersRepo,
			DealersRepo:  dealersRepo,
			Metrics:      authMetrics,
			Registry:     registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-rootCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "server shutdown incomplete", err)
	}

	stop()
	select {
	case <-listenerDone:
	case <-time.After(time.Second):
	}

	if err := multierr.Append(redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "error closing backing stores", err)
	}

	logg.Info(ctx, "api server stopped")
}
