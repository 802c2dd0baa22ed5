// Package main is the entry point for the RealtyHub notification API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/realtyhub/backend/config"
	"github.com/realtyhub/backend/internal/infra/db"
	"github.com/realtyhub/backend/internal/infra/dependency"
	"github.com/realtyhub/backend/internal/integration/cache"
	"github.com/realtyhub/backend/internal/integration/entrypoint/controller"
)

func main() {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting RealtyHub API",
		zap.String("environment", cfg.Server.Environment),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("email_provider", cfg.Email.Provider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewConnection(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if err := database.AutoMigrate(); err != nil {
		return err
	}
	logger.Info("database migrations completed successfully")

	healthChecks := map[string]controller.HealthChecker{"database": database.HealthCheck}

	var redisClient *redis.Client
	if cfg.RateLimit.Backend == "redis" {
		redisClient, err = cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		healthChecks["redis"] = func() bool {
			return redisClient.Ping(context.Background()).Err() == nil
		}
	}

	inj, err := dependency.NewInjector(cfg, database.DB(), redisClient, logger, healthChecks)
	if err != nil {
		return err
	}

	if cfg.Dispatcher.SchedulerOn {
		go inj.Scheduler.Start(ctx)
	} else {
		logger.Info("in-process email scheduler disabled; expecting an external trigger")
	}

	engine := inj.Router.Setup(cfg.Server.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := inj.Close(shutdownCtx); err != nil {
		logger.Error("failed to release resources", zap.Error(err))
	}

	logger.Info("server exited properly")
	return nil
}
