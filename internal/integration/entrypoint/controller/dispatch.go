package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/email"
	"github.com/realtyhub/backend/internal/integration/entrypoint/dto"
)

// DispatchController exposes the dispatcher to external schedulers.
type DispatchController struct {
	runner email.BatchRunner
	queue  adapter.EmailQueueRepository
	logger *zap.Logger
}

// NewDispatchController creates a new dispatch controller instance.
func NewDispatchController(runner email.BatchRunner, queue adapter.EmailQueueRepository, logger *zap.Logger) *DispatchController {
	return &DispatchController{
		runner: runner,
		queue:  queue,
		logger: logger,
	}
}

// Run handles POST /internal/email/dispatch requests. It runs one bounded batch.
func (c *DispatchController) Run(ctx *gin.Context) {
	summary, err := c.runner.RunOnce(ctx.Request.Context())
	if err != nil {
		c.logger.Error("dispatch trigger failed", zap.Error(err))
		ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error: "Dispatch failed",
			Code:  string(domainerror.ErrCodeEmailClaimFailed),
		})
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

// GetJob handles GET /internal/email/jobs/:id requests.
func (c *DispatchController) GetJob(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid job ID",
		})
		return
	}

	job, err := c.queue.GetByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domainerror.ErrEmailJobNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error: "Email job not found",
				Code:  string(domainerror.ErrCodeEmailJobNotFound),
			})
			return
		}
		c.logger.Error("failed to load email job", zap.String("job_id", id.String()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "An internal error occurred",
		})
		return
	}

	events, err := c.queue.ListEvents(ctx.Request.Context(), id)
	if err != nil {
		c.logger.Error("failed to load email events", zap.String("job_id", id.String()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "An internal error occurred",
		})
		return
	}

	ctx.JSON(http.StatusOK, dto.ToEmailJobResponse(job, events))
}
