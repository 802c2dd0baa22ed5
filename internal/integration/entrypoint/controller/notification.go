package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realtyhub/backend/internal/application/usecase/notification"
	"github.com/realtyhub/backend/internal/domain/entity"
	"github.com/realtyhub/backend/internal/integration/entrypoint/dto"
)

// NotificationController handles listing-driven email endpoints.
type NotificationController struct {
	showingRequestUseCase     *notification.ShowingRequestUseCase
	reverseProspectingUseCase *notification.ReverseProspectingUseCase
	hotSheetAlertUseCase      *notification.HotSheetAlertUseCase
}

// NewNotificationController creates a new notification controller instance.
func NewNotificationController(
	showingRequestUseCase *notification.ShowingRequestUseCase,
	reverseProspectingUseCase *notification.ReverseProspectingUseCase,
	hotSheetAlertUseCase *notification.HotSheetAlertUseCase,
) *NotificationController {
	return &NotificationController{
		showingRequestUseCase:     showingRequestUseCase,
		reverseProspectingUseCase: reverseProspectingUseCase,
		hotSheetAlertUseCase:      hotSheetAlertUseCase,
	}
}

// ShowingRequest handles POST /listings/:id/showing-requests requests.
func (c *NotificationController) ShowingRequest(ctx *gin.Context) {
	var req dto.ShowingRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidBody(ctx, err)
		return
	}

	output, err := c.showingRequestUseCase.Execute(ctx.Request.Context(), notification.ShowingRequestInput{
		ListingID:      ctx.Param("id"),
		ListingAddress: req.ListingAddress,
		ListingURL:     req.ListingURL,
		AgentEmail:     req.AgentEmail,
		AgentName:      req.AgentName,
		RequesterName:  req.Name,
		RequesterEmail: req.Email,
		RequesterPhone: req.Phone,
		PreferredTime:  req.PreferredTime,
		Message:        req.Message,
	})
	if err != nil {
		handleNotificationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.MessageResponse{Message: output.Message})
}

// ReverseProspecting handles POST /reverse-prospecting requests.
func (c *NotificationController) ReverseProspecting(ctx *gin.Context) {
	var req dto.ReverseProspectingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidBody(ctx, err)
		return
	}

	output, err := c.reverseProspectingUseCase.Execute(ctx.Request.Context(), notification.ReverseProspectingInput{
		AgentName:  req.AgentName,
		AgentEmail: req.AgentEmail,
		Recipients: req.Recipients,
		Listing:    req.Listing.ToEntity(),
		Message:    req.Message,
	})
	if err != nil {
		handleNotificationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.ReverseProspectingResponse{
		Message:    output.Message,
		Recipients: output.Recipients,
	})
}

// HotSheetAlert handles POST /internal/hot-sheets/alerts requests.
func (c *NotificationController) HotSheetAlert(ctx *gin.Context) {
	var req dto.HotSheetAlertRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidBody(ctx, err)
		return
	}

	listings := make([]entity.Listing, 0, len(req.Listings))
	for _, l := range req.Listings {
		listings = append(listings, l.ToEntity())
	}

	output, err := c.hotSheetAlertUseCase.Execute(ctx.Request.Context(), notification.HotSheetAlertInput{
		HotSheetName:    req.HotSheetName,
		SubscriberEmail: req.SubscriberEmail,
		SubscriberName:  req.SubscriberName,
		Listings:        listings,
		ManageURL:       req.ManageURL,
	})
	if err != nil {
		handleNotificationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.HotSheetAlertResponse{JobID: output.JobID.String()})
}
