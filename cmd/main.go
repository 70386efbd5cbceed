// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/auth"
	"github.com/Shivanand-hulikatti/supper-club/internal/config"
	"github.com/Shivanand-hulikatti/supper-club/internal/database"
	"github.com/Shivanand-hulikatti/supper-club/internal/handler"
	"github.com/Shivanand-hulikatti/supper-club/internal/logging"
	"github.com/Shivanand-hulikatti/supper-club/internal/notify"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository/memory"
	"github.com/Shivanand-hulikatti/supper-club/internal/service"
	"github.com/Shivanand-hulikatti/supper-club/internal/telemetry"
	"go.uber.org/zap"
)

const serviceName = "supper-club"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// ── 1. Configuration, logging, tracing ───────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	// ── 2. Storage ───────────────────────────────────────────────────────
	health := map[string]handler.Pinger{}
	var store service.Store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		store = memory.New()
		log.Warn("using in-memory store; data is lost on restart")
	default:
		pool, err := database.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))
		store = repository.NewPGStore(pool)
		health["postgres"] = pool
	}

	// ── 3. Notifications ─────────────────────────────────────────────────
	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.Redis.Addr != "" {
		redisPool := notify.NewRedisPool(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.TLS)
		defer redisPool.Close()
		queue := notify.NewRedisQueue(redisPool, cfg.Redis.Queue)
		sender = queue
		health["redis"] = queue
		log.Info("notifications queued to redis", zap.String("addr", cfg.Redis.Addr), zap.String("queue", cfg.Redis.Queue))
	}
	dispatcher := notify.NewDispatcher(sender, log, cfg.NotifyTimeout)

	// ── 4. Wire up layers ────────────────────────────────────────────────
	deps := service.Deps{
		Store:        store,
		Notifier:     dispatcher,
		Log:          log,
		Location:     loc,
		CancelCutoff: cfg.CancelCutoff,
	}
	h := handler.NewHandler(
		service.NewEventService(deps),
		service.NewReservationService(deps),
		service.NewPollService(deps),
		log,
	)
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty; every session token will be rejected")
	}
	router := handler.NewRouter(h, handler.RouterConfig{
		Verifier:       auth.NewVerifier(cfg.JWTSecret),
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		Health:         health,
	})

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	dispatcher.Wait()
	log.Info("server stopped")
	return nil
}
