// Package router sets up the HTTP routing for the application.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realtyhub/backend/internal/application/usecase/ratelimit"
	"github.com/realtyhub/backend/internal/integration/entrypoint/controller"
	"github.com/realtyhub/backend/internal/integration/entrypoint/middleware"
)

// Controllers groups the HTTP handlers the router mounts.
type Controllers struct {
	Health       *controller.HealthController
	Auth         *controller.AuthController
	Campaign     *controller.CampaignController
	Notification *controller.NotificationController
	Dispatch     *controller.DispatchController
}

// Options holds the router's non-controller dependencies.
type Options struct {
	Limiter        *ratelimit.Limiter
	AuthMiddleware *middleware.AuthMiddleware
	DispatchSecret string
	// MetricsHandler is mounted at MetricsPath when non-nil.
	MetricsHandler http.Handler
	MetricsPath    string
}

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine      *gin.Engine
	controllers Controllers
	opts        Options
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(controllers Controllers, opts Options) *Router {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &Router{
		controllers: controllers,
		opts:        opts,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	switch environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r.engine = gin.Default()

	r.setupHealthRoutes()
	r.setupAPIRoutes()
	r.setupInternalRoutes()

	return r.engine
}

// setupHealthRoutes configures health check and metrics endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.controllers.Health.Check)
	if r.opts.MetricsHandler != nil {
		r.engine.GET(r.opts.MetricsPath, gin.WrapH(r.opts.MetricsHandler))
	}
}

// setupAPIRoutes configures the public API routes.
func (r *Router) setupAPIRoutes() {
	limit := func(policy ratelimit.Policy, identity middleware.IdentityFunc) gin.HandlerFunc {
		return middleware.RateLimit(r.opts.Limiter, policy, identity)
	}

	v1 := r.engine.Group("/api/v1")
	{
		if r.controllers.Auth != nil {
			auth := v1.Group("/auth")
			{
				auth.POST("/forgot-password", limit(ratelimit.PasswordResetPolicy, middleware.ByClientIP), r.controllers.Auth.ForgotPassword)
				auth.POST("/reset-password", r.controllers.Auth.ResetPassword)
			}
		}

		// Campaigns are rate limited per user, so authentication runs first.
		if r.controllers.Campaign != nil && r.opts.AuthMiddleware != nil {
			campaigns := v1.Group("/campaigns")
			campaigns.Use(r.opts.AuthMiddleware.Authenticate())
			{
				campaigns.POST("", limit(ratelimit.EmailCampaignPolicy, middleware.ByUser), r.controllers.Campaign.Create)
			}
		}

		if r.controllers.Notification != nil {
			v1.POST("/listings/:id/showing-requests",
				limit(ratelimit.ShowingRequestPolicy, middleware.ByClientIP),
				r.controllers.Notification.ShowingRequest,
			)
			v1.POST("/reverse-prospecting",
				limit(ratelimit.ReverseProspectingPolicy, middleware.ByClientIP),
				r.controllers.Notification.ReverseProspecting,
			)
		}
	}
}

// setupInternalRoutes configures trigger endpoints guarded by the dispatch secret.
func (r *Router) setupInternalRoutes() {
	internal := r.engine.Group("/internal")
	internal.Use(middleware.RequireDispatchSecret(r.opts.DispatchSecret))
	{
		if r.controllers.Dispatch != nil {
			internal.POST("/email/dispatch", r.controllers.Dispatch.Run)
			internal.GET("/email/jobs/:id", r.controllers.Dispatch.GetJob)
		}
		if r.controllers.Notification != nil {
			internal.POST("/hot-sheets/alerts", r.controllers.Notification.HotSheetAlert)
		}
	}
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
