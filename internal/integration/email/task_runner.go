package email

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/infra/metrics"
)

// TaskRunner runs producer side effects after the response has been written.
// Every task gets its own timeout, is protected from panics and always logs how it ended.
type TaskRunner struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewTaskRunner creates a new task runner. metrics may be nil.
func NewTaskRunner(timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *TaskRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TaskRunner{
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Go starts task in the background.
func (r *TaskRunner) Go(name string, task func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		started := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		err := r.run(ctx, task)
		fields := []zap.Field{
			zap.String("task", name),
			zap.Duration("elapsed", time.Since(started)),
		}

		outcome := "success"
		if err != nil {
			outcome = "failure"
			r.logger.Warn("detached task failed", append(fields, zap.Error(err))...)
		} else {
			r.logger.Info("detached task finished", fields...)
		}

		if r.metrics != nil {
			r.metrics.DetachedTasks.WithLabelValues(name, outcome).Inc()
		}
	}()
}

// Wait blocks until every started task returned or ctx is done.
func (r *TaskRunner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *TaskRunner) run(ctx context.Context, task func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return task(ctx)
}

var _ adapter.TaskRunner = (*TaskRunner)(nil)
