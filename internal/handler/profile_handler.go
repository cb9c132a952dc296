package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/pkg/response"
)

// ProfileHandler serves the child profile screen.
type ProfileHandler struct {
	students studentResolver
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(students studentResolver) *ProfileHandler {
	return &ProfileHandler{students: students}
}

// Get godoc
// @Summary Enrolled child profile for the signed-in parent
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	student, ok := resolveStudent(c, h.students)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, student)
}
