package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/middleware"
	"github.com/edulink-id/parent-portal-api/internal/store"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/response"
)

type dashboardService interface {
	Load(ctx context.Context, identity string) (*dto.Dashboard, bool, error)
}

// DashboardHandler serves the combined home-screen payload.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Load godoc
// @Summary Combined dashboard for the signed-in parent
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Load(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dashboard, cacheHit, err := h.service.Load(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no student linked to this account"))
			return
		}
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dashboard, middleware.ExtractMeta(c))
}
