// Package main runs a single email dispatcher invocation, for use from cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/realtyhub/backend/config"
	"github.com/realtyhub/backend/internal/infra/db"
	"github.com/realtyhub/backend/internal/infra/dependency"
	"github.com/realtyhub/backend/internal/integration/email"
	"github.com/realtyhub/backend/internal/integration/email/templates"
	"github.com/realtyhub/backend/internal/integration/persistence"
)

func main() {
	cleanupDays := flag.Int("cleanup-days", -1, "delete sent and failed jobs older than this many days (0 disables, -1 uses EMAIL_RETENTION_DAYS)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *cleanupDays < 0 {
		*cleanupDays = cfg.Dispatcher.RetentionDays
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *cleanupDays); err != nil {
		logger.Error("dispatcher invocation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, cleanupDays int) error {
	database, err := db.NewConnection(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if err := database.AutoMigrate(); err != nil {
		return err
	}

	transport, err := dependency.NewMailTransport(&cfg.Email, logger)
	if err != nil {
		return err
	}
	renderer, err := templates.NewRenderer(cfg.Email.FromName, logger)
	if err != nil {
		return err
	}

	queue := persistence.NewEmailQueueRepository(database.DB())
	dispatcher := email.NewDispatcher(queue, transport, renderer, nil, logger, nil, dependency.DispatcherConfig(&cfg.Dispatcher))

	summary, err := dispatcher.RunOnce(ctx)
	if err != nil {
		return err
	}
	logger.Info("dispatcher invocation finished",
		zap.Int64("released", summary.Released),
		zap.Int("claimed", summary.Claimed),
		zap.Int("sent", summary.Sent),
		zap.Int("retried", summary.Retried),
		zap.Int("dead_lettered", summary.DeadLettered),
		zap.Int("unprocessed", summary.Unprocessed),
	)

	if cleanupDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -cleanupDays)
		deleted, err := queue.DeleteTerminalBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete old jobs: %w", err)
		}
		logger.Info("deleted terminal email jobs", zap.Int64("deleted", deleted), zap.Time("before", cutoff))
	}

	return nil
}
