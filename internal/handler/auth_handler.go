package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/middleware"
	"github.com/edulink-id/parent-portal-api/internal/models"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/response"
)

type authService interface {
	SignIn(ctx context.Context, req dto.SignInRequest) (*dto.SessionResponse, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (*models.Session, error)
}

// AuthHandler exposes sign-in and session endpoints.
type AuthHandler struct {
	service authService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{service: service}
}

// SignIn godoc
// @Summary Sign in with parent credentials
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.SignInRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	session, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// SignOut godoc
// @Summary Revoke the current session token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	token := middleware.CurrentToken(c)
	if err := h.service.SignOut(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Current session details
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	token := middleware.CurrentToken(c)
	session, err := h.service.Session(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}
