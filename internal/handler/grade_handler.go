package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/response"
)

type gradeService interface {
	List(ctx context.Context, identity string) []dto.GradeReport
}

// GradeHandler serves the exam results screen.
type GradeHandler struct {
	grades gradeService
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(grades gradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List godoc
// @Summary Exam results for the signed-in parent's child
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, h.grades.List(c.Request.Context(), claims.UserID))
}
