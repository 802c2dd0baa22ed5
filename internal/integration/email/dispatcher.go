// Package email provides the outbound email pipeline: producers, dispatcher and transports.
package email

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/infra/metrics"
	"github.com/realtyhub/backend/internal/integration/email/templates"
)

// resolveTimeout bounds the store write that records a job outcome. It runs on a
// context detached from the invocation budget so a finished send is never lost.
const resolveTimeout = 5 * time.Second

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	BatchSize   int
	Concurrency int
	PacingDelay time.Duration
	Lease       time.Duration
	Budget      time.Duration
	// SendRate caps transport calls per second within one invocation. Zero disables it.
	SendRate float64
	// DirectTries is how many times Deliver calls the transport before handing the job to the queue.
	// All of them together count as one attempt against the job's max_attempts.
	DirectTries int
}

// DefaultDispatcherConfig returns the default dispatcher configuration.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		BatchSize:   50,
		Concurrency: 5,
		PacingDelay: 250 * time.Millisecond,
		Lease:       5 * time.Minute,
		Budget:      50 * time.Second,
		SendRate:    0,
		DirectTries: 3,
	}
}

// RunSummary reports what a single invocation did.
type RunSummary struct {
	Released     int64         `json:"released"`
	Claimed      int           `json:"claimed"`
	Sent         int           `json:"sent"`
	Retried      int           `json:"retried"`
	DeadLettered int           `json:"dead_lettered"`
	LeaseLost    int           `json:"lease_lost"`
	Unresolved   int           `json:"unresolved"`
	Unprocessed  int           `json:"unprocessed"`
	Duration     time.Duration `json:"duration_ns"`
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeRetried
	outcomeDeadLettered
	outcomeLeaseLost
	outcomeUnresolved
)

func (s *RunSummary) add(o outcome) {
	switch o {
	case outcomeSent:
		s.Sent++
	case outcomeRetried:
		s.Retried++
	case outcomeDeadLettered:
		s.DeadLettered++
	case outcomeLeaseLost:
		s.LeaseLost++
	default:
		s.Unresolved++
	}
}

// Dispatcher claims due jobs, renders them and hands them to the mail transport.
// Each RunOnce call is a bounded batch that keeps no state between invocations.
type Dispatcher struct {
	queue     adapter.EmailQueueRepository
	transport adapter.MailTransport
	renderer  *templates.Renderer
	clock     entity.Clock
	logger    *zap.Logger
	metrics   *metrics.Metrics
	config    DispatcherConfig
}

// NewDispatcher creates a new dispatcher. metrics may be nil.
func NewDispatcher(
	queue adapter.EmailQueueRepository,
	transport adapter.MailTransport,
	renderer *templates.Renderer,
	clock entity.Clock,
	logger *zap.Logger,
	m *metrics.Metrics,
	config DispatcherConfig,
) *Dispatcher {
	defaults := DefaultDispatcherConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.Lease <= 0 {
		config.Lease = defaults.Lease
	}
	if config.Budget <= 0 {
		config.Budget = defaults.Budget
	}
	if config.DirectTries <= 0 {
		config.DirectTries = defaults.DirectTries
	}
	if clock == nil {
		clock = entity.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		queue:     queue,
		transport: transport,
		renderer:  renderer,
		clock:     clock,
		logger:    logger,
		metrics:   m,
		config:    config,
	}
}

// RunOnce releases lapsed leases, claims one batch and drains it.
// A claim failure aborts the invocation before any job is touched.
func (d *Dispatcher) RunOnce(ctx context.Context) (*RunSummary, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.config.Budget)
	defer cancel()

	summary := &RunSummary{}
	defer func() {
		summary.Duration = time.Since(started)
		if d.metrics != nil {
			d.metrics.DispatchDuration.Observe(summary.Duration.Seconds())
		}
	}()

	released, err := d.queue.ReleaseExpiredLeases(ctx, d.clock.Now())
	if err != nil {
		d.logger.Warn("failed to release expired leases", zap.Error(err))
	} else if released > 0 {
		summary.Released = released
		d.logger.Info("returned expired email jobs to the queue", zap.Int64("count", released))
		if d.metrics != nil {
			d.metrics.LeasesReleased.Add(float64(released))
		}
	}

	jobs, err := d.queue.Claim(ctx, d.config.BatchSize, d.config.Lease, d.clock.Now())
	if err != nil {
		return summary, fmt.Errorf("failed to claim email jobs: %w", err)
	}
	summary.Claimed = len(jobs)
	if d.metrics != nil {
		d.metrics.EmailsClaimed.Add(float64(len(jobs)))
	}
	if len(jobs) == 0 {
		return summary, nil
	}

	d.logger.Debug("processing email batch", zap.Int("count", len(jobs)))

	limiter := d.newSendLimiter()

	var mu sync.Mutex
	processed := 0
	for start := 0; start < len(jobs); start += d.config.Concurrency {
		if start > 0 && !sleepContext(ctx, d.config.PacingDelay) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		end := start + d.config.Concurrency
		if end > len(jobs) {
			end = len(jobs)
		}

		var wg sync.WaitGroup
		for _, job := range jobs[start:end] {
			wg.Add(1)
			go func(job *entity.EmailJob) {
				defer wg.Done()
				o := d.process(ctx, job, limiter)
				mu.Lock()
				summary.add(o)
				mu.Unlock()
			}(job)
		}
		wg.Wait()
		processed = end
	}

	summary.Unprocessed = len(jobs) - processed
	if summary.Unprocessed > 0 {
		d.logger.Warn("execution budget exhausted, remaining jobs stay claimed until their lease expires",
			zap.Int("unprocessed", summary.Unprocessed),
		)
	}

	d.logger.Info("email dispatch finished",
		zap.Int("claimed", summary.Claimed),
		zap.Int("sent", summary.Sent),
		zap.Int("retried", summary.Retried),
		zap.Int("dead_lettered", summary.DeadLettered),
	)
	return summary, nil
}

// Deliver sends a payload right away. The job is persisted first so the outcome
// lands in the event log; transient failures are retried in-process a few times
// and then left to the queue's scheduled retry.
func (d *Dispatcher) Deliver(ctx context.Context, payload entity.EmailPayload, maxAttempts int) (*entity.EmailJob, error) {
	if payload.Provider == "" {
		payload.Provider = d.transport.Name()
	}

	job := entity.NewEmailJob(payload, d.clock.Now(), maxAttempts)
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
	err := d.queue.Enqueue(writeCtx, job)
	cancel()
	if err != nil {
		return nil, err
	}

	claimed, err := d.sendQueued(ctx, job)
	if claimed == nil {
		return job, err
	}
	return claimed, err
}

// SendQueued claims a stored job by id and sends it with the same in-process
// retries as Deliver. Once ctx is done nothing is claimed, so the job waits for
// the next dispatcher run.
func (d *Dispatcher) SendQueued(ctx context.Context, job *entity.EmailJob) error {
	_, err := d.sendQueued(ctx, job)
	return err
}

func (d *Dispatcher) sendQueued(ctx context.Context, job *entity.EmailJob) (*entity.EmailJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	claimed, err := d.queue.ClaimByID(ctx, job.ID, d.config.Lease, d.clock.Now())
	if err != nil {
		// Someone else picked it up, or it is left for the dispatcher.
		return nil, err
	}
	token := *claimed.ClaimToken

	email, sendErr := d.prepare(claimed)
	var result *adapter.SendEmailResult
	if sendErr == nil {
		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = 200 * time.Millisecond
		policy.MaxElapsedTime = 10 * time.Second

		sendErr = backoff.Retry(func() error {
			res, err := d.transport.Send(ctx, email.OutboundEmail)
			if err != nil {
				if domainerror.IsPermanentEmailError(err) {
					return backoff.Permanent(err)
				}
				return err
			}
			result = res
			return nil
		}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(d.config.DirectTries-1)), ctx))
	}

	d.resolve(ctx, claimed, token, email, result, sendErr)
	return claimed, sendErr
}

func (d *Dispatcher) process(ctx context.Context, job *entity.EmailJob, limiter *rate.Limiter) outcome {
	if job.ClaimToken == nil {
		d.logger.Error("claimed email job has no claim token", zap.String("job_id", job.ID.String()))
		return outcomeUnresolved
	}
	token := *job.ClaimToken

	email, err := d.prepare(job)
	if err == nil && limiter != nil {
		if waitErr := limiter.Wait(ctx); waitErr != nil {
			err = domainerror.NewEmailError(
				domainerror.ErrCodeTemporaryEmailFailure,
				"send throttle interrupted",
				waitErr,
			)
		}
	}

	var result *adapter.SendEmailResult
	if err == nil {
		result, err = d.transport.Send(ctx, email.OutboundEmail)
	}

	return d.resolve(ctx, job, token, email, result, err)
}

// preparedEmail is a rendered message plus the recipient entries that were skipped.
type preparedEmail struct {
	adapter.OutboundEmail
	rejected []string
}

// prepare normalizes recipients and renders the body.
func (d *Dispatcher) prepare(job *entity.EmailJob) (preparedEmail, error) {
	recipients, rejected, err := NormalizeRecipients(job.Payload.To)
	if err != nil {
		return preparedEmail{rejected: rejected}, err
	}

	vars := make(map[string]interface{}, len(job.Payload.Variables)+2)
	for k, v := range job.Payload.Variables {
		vars[k] = v
	}
	if job.Payload.HTML != "" {
		vars["html"] = job.Payload.HTML
	}
	if _, ok := vars["subject"]; !ok {
		vars["subject"] = job.Payload.Subject
	}

	return preparedEmail{
		OutboundEmail: adapter.OutboundEmail{
			To:      recipients,
			Subject: job.Payload.Subject,
			HTML:    d.renderer.Render(string(job.Payload.Template), vars),
			ReplyTo: job.Payload.ReplyTo,
		},
		rejected: rejected,
	}, nil
}

// resolve applies the state machine transition for a processed job and stores it.
func (d *Dispatcher) resolve(
	ctx context.Context,
	job *entity.EmailJob,
	token uuid.UUID,
	email preparedEmail,
	result *adapter.SendEmailResult,
	sendErr error,
) outcome {
	logger := d.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("template", string(job.Payload.Template)),
	)
	now := d.clock.Now()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
	defer cancel()

	var (
		o        outcome
		storeErr error
	)

	switch {
	case sendErr == nil:
		messageID := ""
		if result != nil {
			messageID = result.MessageID
		}
		job.MarkSent(messageID, now)
		detail := map[string]interface{}{
			"recipients":          email.To,
			"template":            string(job.Payload.Template),
			"provider":            d.transport.Name(),
			"provider_message_id": messageID,
		}
		if len(email.rejected) > 0 {
			detail["rejected_recipients"] = email.rejected
		}
		event := entity.NewEmailEvent(job.ID, entity.EmailEventSent, detail, now)
		storeErr = d.queue.MarkSent(writeCtx, job, token, event)
		o = outcomeSent
		if storeErr == nil {
			logger.Info("email sent successfully", zap.String("provider_message_id", messageID))
			if len(email.rejected) > 0 {
				logger.Warn("skipped invalid recipient addresses", zap.Strings("rejected", email.rejected))
			}
		}

	case domainerror.IsPermanentEmailError(sendErr) || !job.CanRetry():
		job.MarkDeadLettered(sendErr, now)
		detail := map[string]interface{}{
			"error":     sendErr.Error(),
			"attempts":  job.Attempts,
			"permanent": domainerror.IsPermanentEmailError(sendErr),
		}
		if len(email.rejected) > 0 {
			detail["rejected_recipients"] = email.rejected
		}
		event := entity.NewEmailEvent(job.ID, entity.EmailEventFailed, detail, now)
		storeErr = d.queue.MarkDeadLettered(writeCtx, job, token, event)
		o = outcomeDeadLettered
		if storeErr == nil {
			logger.Warn("email job permanently failed",
				zap.Int("attempts", job.Attempts),
				zap.String("last_error", job.LastError),
			)
		}

	default:
		delay := Backoff(job.Attempts)
		job.ScheduleRetry(sendErr, delay, now)
		event := entity.NewEmailEvent(job.ID, entity.EmailEventRetryScheduled, map[string]interface{}{
			"attempt":       job.Attempts,
			"delay_seconds": int(delay / time.Second),
			"next_run_at":   job.RunAfter.Format(time.RFC3339),
			"error":         sendErr.Error(),
		}, now)
		storeErr = d.queue.ScheduleRetry(writeCtx, job, token, event)
		o = outcomeRetried
		if storeErr == nil {
			logger.Info("email job scheduled for retry",
				zap.Int("attempts", job.Attempts),
				zap.Time("run_after", job.RunAfter),
				zap.Error(sendErr),
			)
		}
	}

	if storeErr != nil {
		if errors.Is(storeErr, domainerror.ErrLeaseLost) {
			logger.Warn("email job was reclaimed before it could be resolved")
			return outcomeLeaseLost
		}
		logger.Error("failed to record email job outcome", zap.Error(storeErr))
		return outcomeUnresolved
	}

	if d.metrics != nil {
		switch o {
		case outcomeSent:
			d.metrics.EmailsSent.Inc()
		case outcomeRetried:
			d.metrics.EmailsRetried.Inc()
		case outcomeDeadLettered:
			d.metrics.EmailsDeadLettered.Inc()
		}
	}
	return o
}

func (d *Dispatcher) newSendLimiter() *rate.Limiter {
	if d.config.SendRate <= 0 {
		return nil
	}
	burst := int(d.config.SendRate)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(d.config.SendRate), burst)
}

// sleepContext waits for d or until ctx is done. It reports whether the full delay elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var _ adapter.EmailDeliverer = (*Dispatcher)(nil)
