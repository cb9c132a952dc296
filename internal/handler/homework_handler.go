package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/service"
	"github.com/edulink-id/parent-portal-api/pkg/response"
)

type homeworkService interface {
	Recent(ctx context.Context, className string, onToday service.TodayCounter) []models.Homework
}

// HomeworkHandler serves the homework screen.
type HomeworkHandler struct {
	students studentResolver
	homework homeworkService
}

// NewHomeworkHandler constructs the handler.
func NewHomeworkHandler(students studentResolver, homework homeworkService) *HomeworkHandler {
	return &HomeworkHandler{students: students, homework: homework}
}

// Recent godoc
// @Summary Recent homework for the child's class
// @Tags Homework
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /homework [get]
func (h *HomeworkHandler) Recent(c *gin.Context) {
	student, ok := resolveStudent(c, h.students)
	if !ok {
		return
	}
	var today int
	items := h.homework.Recent(c.Request.Context(), student.ClassName, func(count int) { today = count })
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"today_count": today})
}
