package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/entrypoint/dto"
)

// handleNotificationError maps producer validation errors to 400 and anything else to 500.
func handleNotificationError(ctx *gin.Context, err error) {
	var notifyErr *domainerror.NotificationError
	if errors.As(err, &notifyErr) {
		status := http.StatusBadRequest
		if notifyErr.Code == domainerror.ErrCodeCampaignNotFound {
			status = http.StatusNotFound
		}
		ctx.JSON(status, dto.ErrorResponse{
			Error: notifyErr.Message,
			Code:  string(notifyErr.Code),
		})
		return
	}

	var emailErr *domainerror.EmailError
	if errors.As(err, &emailErr) {
		ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error: "Email queue is unavailable",
			Code:  string(emailErr.Code),
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

func invalidBody(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "Invalid request body",
		Details: err.Error(),
	})
}
