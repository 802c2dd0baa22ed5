package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realtyhub/backend/internal/application/usecase/campaign"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/entrypoint/dto"
	"github.com/realtyhub/backend/internal/integration/entrypoint/middleware"
)

// CampaignController handles bulk email campaign endpoints.
type CampaignController struct {
	createUseCase *campaign.CreateCampaignUseCase
}

// NewCampaignController creates a new campaign controller instance.
func NewCampaignController(createUseCase *campaign.CreateCampaignUseCase) *CampaignController {
	return &CampaignController{
		createUseCase: createUseCase,
	}
}

// Create handles POST /campaigns requests.
func (c *CampaignController) Create(ctx *gin.Context) {
	caller, ok := middleware.Caller(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "Authentication required",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return
	}

	var req dto.CreateCampaignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidBody(ctx, err)
		return
	}

	output, err := c.createUseCase.Execute(ctx.Request.Context(), campaign.CreateCampaignInput{
		UserID:     caller.UserID,
		Subject:    req.Subject,
		HTML:       req.HTML,
		ReplyTo:    req.ReplyTo,
		Recipients: req.Recipients,
	})
	if err != nil {
		handleNotificationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.ToCampaignResponse(output.Campaign, output.Queued, output.Failed))
}
