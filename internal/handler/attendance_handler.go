package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/models"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/response"
)

type attendanceService interface {
	History(ctx context.Context, className, studentID string) []models.AttendanceRecord
	Week(ctx context.Context, className, studentID string, weekStart time.Time) []dto.AttendanceDay
	CurrentWeek(ctx context.Context, className, studentID string) []dto.AttendanceDay
}

// AttendanceHandler serves attendance history and the weekly strip.
type AttendanceHandler struct {
	students   studentResolver
	attendance attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(students studentResolver, attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{students: students, attendance: attendance}
}

// History godoc
// @Summary Attendance history for the signed-in parent's child
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	student, ok := resolveStudent(c, h.students)
	if !ok {
		return
	}
	records := h.attendance.History(c.Request.Context(), student.ClassName, student.ID)
	response.JSON(c, http.StatusOK, records)
}

// Week godoc
// @Summary Seven-day attendance strip
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param start query string false "Week start (YYYY-MM-DD), defaults to the current week's Monday"
// @Success 200 {object} response.Envelope
// @Router /attendance/week [get]
func (h *AttendanceHandler) Week(c *gin.Context) {
	student, ok := resolveStudent(c, h.students)
	if !ok {
		return
	}
	raw := strings.TrimSpace(c.Query("start"))
	if raw == "" {
		response.JSON(c, http.StatusOK, h.attendance.CurrentWeek(c.Request.Context(), student.ClassName, student.ID))
		return
	}
	start, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid start date, expected YYYY-MM-DD"))
		return
	}
	response.JSON(c, http.StatusOK, h.attendance.Week(c.Request.Context(), student.ClassName, student.ID, start))
}
