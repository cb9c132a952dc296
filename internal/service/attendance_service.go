package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/models"
)

type attendanceRepository interface {
	ListForStudent(ctx context.Context, className, studentID string) ([]models.AttendanceRecord, error)
}

// AttendanceService assembles attendance screens. Read failures degrade to an
// empty history rather than erroring the screen.
type AttendanceService struct {
	repo   attendanceRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceRepository, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, logger: logger, now: time.Now}
}

// History returns the student's full attendance history, oldest first.
func (s *AttendanceService) History(ctx context.Context, className, studentID string) []models.AttendanceRecord {
	records, err := s.repo.ListForStudent(ctx, className, studentID)
	if err != nil {
		s.logger.Warn("attendance history fetch failed",
			zap.String("class", className),
			zap.String("student", studentID),
			zap.Error(err))
		return []models.AttendanceRecord{}
	}
	return records
}

// Week renders seven presentation slots starting at weekStart. Days without
// a stored record are filled with the "Not Marked" status; that status never
// leaves the presentation layer.
func (s *AttendanceService) Week(ctx context.Context, className, studentID string, weekStart time.Time) []dto.AttendanceDay {
	return BuildAttendanceWeek(s.History(ctx, className, studentID), weekStart)
}

// BuildAttendanceWeek fills seven slots from weekStart using the given
// records, marking uncovered days "Not Marked".
func BuildAttendanceWeek(records []models.AttendanceRecord, weekStart time.Time) []dto.AttendanceDay {
	byDay := make(map[string]models.AttendanceStatus)
	for _, rec := range records {
		byDay[rec.Date.Format("2006-01-02")] = rec.Status
	}

	start := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, time.UTC)
	days := make([]dto.AttendanceDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		status, ok := byDay[date]
		if !ok {
			status = models.AttendanceStatusNotMarked
		}
		days = append(days, dto.AttendanceDay{Date: date, Status: status})
	}
	return days
}

// CurrentWeek is Week anchored to the Monday of the service clock's week.
func (s *AttendanceService) CurrentWeek(ctx context.Context, className, studentID string) []dto.AttendanceDay {
	now := s.now().UTC()
	offset := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -offset)
	return s.Week(ctx, className, studentID, monday)
}
