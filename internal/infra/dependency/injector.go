// Package dependency provides dependency injection for the application.
package dependency

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/realtyhub/backend/config"
	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/application/usecase/auth"
	"github.com/realtyhub/backend/internal/application/usecase/campaign"
	"github.com/realtyhub/backend/internal/application/usecase/notification"
	"github.com/realtyhub/backend/internal/application/usecase/ratelimit"
	"github.com/realtyhub/backend/internal/domain/entity"
	"github.com/realtyhub/backend/internal/infra/metrics"
	"github.com/realtyhub/backend/internal/infra/server/router"
	"github.com/realtyhub/backend/internal/integration/adapters"
	"github.com/realtyhub/backend/internal/integration/cache"
	"github.com/realtyhub/backend/internal/integration/email"
	"github.com/realtyhub/backend/internal/integration/email/templates"
	"github.com/realtyhub/backend/internal/integration/entrypoint/controller"
	"github.com/realtyhub/backend/internal/integration/entrypoint/middleware"
	"github.com/realtyhub/backend/internal/integration/persistence"
)

// Injector holds all application dependencies.
type Injector struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *redis.Client
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Queue      adapter.EmailQueueRepository
	Dispatcher *email.Dispatcher
	Scheduler  *email.Scheduler
	Tasks      *email.TaskRunner
	Router     *router.Router
}

// Option customises how NewInjector builds its components.
type Option func(*options)

type options struct {
	clock     entity.Clock
	transport adapter.MailTransport
}

// WithClock replaces the system clock used by the queue, dispatcher and limiter.
func WithClock(clock entity.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithTransport bypasses the configured mail provider.
func WithTransport(transport adapter.MailTransport) Option {
	return func(o *options) { o.transport = transport }
}

// NewInjector creates a new dependency injector with all dependencies wired.
// redisClient is only required when the rate limiter uses the redis backend.
// healthChecks are reported by GET /health.
func NewInjector(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	logger *zap.Logger,
	healthChecks map[string]controller.HealthChecker,
	opts ...Option,
) (*Injector, error) {
	o := options{clock: entity.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	// Create repositories
	accounts := persistence.NewAccountRepository(db)
	grantRepo := persistence.NewResetGrantRepository(db)
	campaignRepo := persistence.NewCampaignRepository(db)
	queue := persistence.NewEmailQueueRepository(db)

	rateLimitStore, err := newRateLimitStore(cfg, db, redisClient)
	if err != nil {
		return nil, err
	}

	// Create adapters/services
	hasher := adapters.NewPasswordHasher(adapters.DefaultBcryptCost)
	accessTokens := adapters.NewAccessTokens(cfg.JWT.Secret)
	resetGrants := adapters.NewResetGrants(grantRepo, cfg.JWT.ResetTokenTTL, o.clock)

	// Email pipeline
	transport := o.transport
	if transport == nil {
		transport, err = NewMailTransport(&cfg.Email, logger)
		if err != nil {
			return nil, err
		}
	}
	renderer, err := templates.NewRenderer(cfg.Email.FromName, logger)
	if err != nil {
		return nil, err
	}

	dispatcher := email.NewDispatcher(queue, transport, renderer, o.clock, logger, m, DispatcherConfig(&cfg.Dispatcher))
	emailService := email.NewService(queue, o.clock, logger, transport.Name(), cfg.Dispatcher.MaxAttempts)
	tasks := email.NewTaskRunner(cfg.Dispatcher.TaskTimeout, logger, m)
	scheduler := email.NewScheduler(dispatcher, cfg.Dispatcher.PollInterval, logger)
	limiter := ratelimit.NewLimiter(rateLimitStore, o.clock, logger, m)

	// Create use cases
	forgotPasswordUseCase := auth.NewForgotPasswordUseCase(accounts, resetGrants, emailService, cfg.Email.AppBaseURL, cfg.JWT.ResetTokenTTL, logger)
	resetPasswordUseCase := auth.NewResetPasswordUseCase(accounts, hasher, resetGrants, o.clock, logger)
	createCampaignUseCase := campaign.NewCreateCampaignUseCase(campaignRepo, emailService, logger)
	showingRequestUseCase := notification.NewShowingRequestUseCase(dispatcher, tasks, cfg.Dispatcher.MaxAttempts, logger)
	reverseProspectingUseCase := notification.NewReverseProspectingUseCase(emailService, dispatcher, tasks, cfg.Dispatcher.MaxAttempts, logger)
	hotSheetAlertUseCase := notification.NewHotSheetAlertUseCase(emailService, logger)

	// Create router
	routerOpts := router.Options{
		Limiter:        limiter,
		AuthMiddleware: middleware.NewAuthMiddleware(accessTokens),
		DispatchSecret: cfg.Dispatcher.TriggerSecret,
		MetricsPath:    cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled {
		routerOpts.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}
	if routerOpts.DispatchSecret == "" {
		logger.Warn("DISPATCH_SECRET is empty; internal endpoints will reject every request")
	}

	r := router.NewRouter(router.Controllers{
		Health:   controller.NewHealthController(healthChecks),
		Auth:     controller.NewAuthController(forgotPasswordUseCase, resetPasswordUseCase),
		Campaign: controller.NewCampaignController(createCampaignUseCase),
		Notification: controller.NewNotificationController(
			showingRequestUseCase,
			reverseProspectingUseCase,
			hotSheetAlertUseCase,
		),
		Dispatch: controller.NewDispatchController(dispatcher, queue, logger),
	}, routerOpts)

	return &Injector{
		Config:     cfg,
		DB:         db,
		Redis:      redisClient,
		Logger:     logger,
		Metrics:    m,
		Queue:      queue,
		Dispatcher: dispatcher,
		Scheduler:  scheduler,
		Tasks:      tasks,
		Router:     r,
	}, nil
}

// NewMailTransport returns the transport named by cfg.Provider.
func NewMailTransport(cfg *config.EmailConfig, logger *zap.Logger) (adapter.MailTransport, error) {
	switch cfg.Provider {
	case "resend":
		transport, err := email.NewResendTransport(cfg.ResendAPIKey, cfg.FromName, cfg.FromEmail, cfg.ResendURL)
		if err != nil {
			return nil, err
		}
		return transport, nil
	case "smtp":
		return email.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromName, cfg.FromEmail), nil
	case "log", "":
		return email.NewLogTransport(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// DispatcherConfig maps environment configuration onto the dispatcher's settings.
func DispatcherConfig(cfg *config.DispatcherConfig) email.DispatcherConfig {
	return email.DispatcherConfig{
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
		PacingDelay: cfg.PacingDelay,
		Lease:       cfg.Lease,
		Budget:      cfg.Budget,
		SendRate:    cfg.SendRate,
		DirectTries: cfg.DirectTries,
	}
}

// Close releases connections the injector owns.
func (i *Injector) Close(ctx context.Context) error {
	if err := i.Tasks.Wait(ctx); err != nil {
		i.Logger.Warn("detached tasks still running at shutdown", zap.Error(err))
	}
	if i.Redis != nil {
		return i.Redis.Close()
	}
	return nil
}

func newRateLimitStore(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (adapter.RateLimitStore, error) {
	switch cfg.RateLimit.Backend {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("RATE_LIMIT_BACKEND=redis requires a redis connection")
		}
		return cache.NewRedisRateLimitStore(redisClient), nil
	default:
		return persistence.NewRateLimitRepository(db), nil
	}
}
