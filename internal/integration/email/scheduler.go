package email

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BatchRunner is anything that can run one dispatcher invocation.
type BatchRunner interface {
	RunOnce(ctx context.Context) (*RunSummary, error)
}

// Scheduler triggers a BatchRunner at a fixed interval. It is one of several
// possible triggers; the dispatcher does not depend on it.
type Scheduler struct {
	runner       BatchRunner
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler.
func NewScheduler(runner BatchRunner, pollInterval time.Duration, logger *zap.Logger) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &Scheduler{
		runner:       runner,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Start runs the loop. It blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("email scheduler started", zap.Duration("poll_interval", s.pollInterval))

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// Run immediately on start, then on ticker
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("email scheduler shutting down")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.runner.RunOnce(ctx); err != nil {
		s.logger.Error("email dispatch invocation failed", zap.Error(err))
	}
}
