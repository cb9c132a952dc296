package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/service"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context, onToday service.TodayCounter) []models.Announcement
	Events(ctx context.Context) []models.EventItem
}

// AnnouncementHandler serves the announcements and events screens.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(service announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: service}
}

// List godoc
// @Summary School announcements, newest first
// @Tags Announcements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var today int
	items := h.service.List(c.Request.Context(), func(count int) { today = count })
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"today_count": today})
}

// Events godoc
// @Summary School calendar events, newest first
// @Tags Announcements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *AnnouncementHandler) Events(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, h.service.Events(c.Request.Context()))
}
