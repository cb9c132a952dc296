package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/models"
)

type mockAttendanceRepo struct {
	records []models.AttendanceRecord
	err     error
}

func (m *mockAttendanceRepo) ListForStudent(ctx context.Context, className, studentID string) ([]models.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", raw)
	require.NoError(t, err)
	return parsed
}

func TestWeekFillsMissingDays(t *testing.T) {
	repo := &mockAttendanceRepo{records: []models.AttendanceRecord{
		{Date: day(t, "2026-03-02"), Status: models.AttendanceStatusPresent},
		{Date: day(t, "2026-03-03"), Status: models.AttendanceStatusPresent},
		{Date: day(t, "2026-03-04"), Status: models.AttendanceStatusHalfday},
		{Date: day(t, "2026-03-05"), Status: models.AttendanceStatusAbsent},
		{Date: day(t, "2026-03-06"), Status: models.AttendanceStatusPresent},
	}}
	svc := NewAttendanceService(repo, zap.NewNop())

	week := svc.Week(context.Background(), "5A", "student-1", day(t, "2026-03-02"))
	require.Len(t, week, 7)

	assert.Equal(t, models.AttendanceStatusPresent, week[0].Status)
	assert.Equal(t, models.AttendanceStatusHalfday, week[2].Status)
	assert.Equal(t, models.AttendanceStatusAbsent, week[3].Status)
	assert.Equal(t, models.AttendanceStatusNotMarked, week[5].Status)
	assert.Equal(t, models.AttendanceStatusNotMarked, week[6].Status)
	assert.Equal(t, "2026-03-08", week[6].Date)
}

func TestWeekAllNotMarkedWhenEmpty(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, zap.NewNop())

	week := svc.Week(context.Background(), "5A", "student-1", day(t, "2026-03-02"))
	require.Len(t, week, 7)
	for _, slot := range week {
		assert.Equal(t, models.AttendanceStatusNotMarked, slot.Status)
	}
}

func TestHistoryDegradesToEmptyOnError(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{err: errors.New("store down")}, zap.NewNop())

	records := svc.History(context.Background(), "5A", "student-1")
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestCurrentWeekStartsOnMonday(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, zap.NewNop())
	svc.now = func() time.Time { return day(t, "2026-03-05") } // a Thursday

	week := svc.CurrentWeek(context.Background(), "5A", "student-1")
	require.Len(t, week, 7)
	assert.Equal(t, "2026-03-02", week[0].Date)
	assert.Equal(t, "2026-03-08", week[6].Date)
}
