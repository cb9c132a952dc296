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

type mockStudentRepo struct {
	student *models.Student
	err     error
}

func (m *mockStudentRepo) FindByIdentity(ctx context.Context, identity string) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.student, nil
}

func (m *mockStudentRepo) Classes(ctx context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []string{m.student.ClassName}, nil
}

func newDashboardFixture(students studentRepository, attendance attendanceRepository, announcements announcementRepository, homework homeworkRepository) *DashboardService {
	return NewDashboardService(DashboardServiceParams{
		Students:      students,
		Attendance:    attendance,
		Announcements: announcements,
		Homework:      homework,
		Logger:        zap.NewNop(),
	})
}

func TestLoadAssemblesAllSections(t *testing.T) {
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	students := &mockStudentRepo{student: &models.Student{
		ID:        "s1",
		Name:      "Adi",
		ClassName: "5A",
		Grades: []models.Grade{{
			ExamName: "Midterm",
			Date:     "2026-02-10",
			Subjects: map[string]string{"Math": "92", "Science": "78"},
		}},
	}}
	attendance := &mockAttendanceRepo{records: []models.AttendanceRecord{
		{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusPresent},
	}}
	announcements := &mockAnnouncementRepo{announcements: []models.Announcement{
		{ID: "a1", CreatedAt: now.Add(-time.Hour)},
		{ID: "a2", CreatedAt: now.AddDate(0, 0, -1)},
	}}
	homework := &mockHomeworkRepo{items: []models.Homework{
		{ID: "h1", EffectiveDate: now},
	}}

	svc := newDashboardFixture(students, attendance, announcements, homework)
	svc.now = func() time.Time { return now }

	dashboard, cacheHit, err := svc.Load(context.Background(), "parent-1")
	require.NoError(t, err)
	assert.False(t, cacheHit)

	assert.Equal(t, "Adi", dashboard.Student.Name)
	require.Len(t, dashboard.AttendanceWeek, 7)
	assert.Equal(t, models.AttendanceStatusPresent, dashboard.AttendanceWeek[0].Status)
	assert.Equal(t, 1, dashboard.AnnouncementsToday)
	assert.Equal(t, 1, dashboard.HomeworkToday)
	require.Len(t, dashboard.Grades, 1)
	require.NotNil(t, dashboard.Grades[0].Average)
	assert.InDelta(t, 85.0, *dashboard.Grades[0].Average, 0.001)
}

func TestLoadFailsWhenAnySubFetchFails(t *testing.T) {
	students := &mockStudentRepo{student: &models.Student{ID: "s1", ClassName: "5A"}}
	attendance := &mockAttendanceRepo{}
	announcements := &mockAnnouncementRepo{err: errors.New("store down")}
	homework := &mockHomeworkRepo{}

	svc := newDashboardFixture(students, attendance, announcements, homework)

	dashboard, _, err := svc.Load(context.Background(), "parent-1")
	require.Error(t, err)
	assert.Nil(t, dashboard)
}

func TestLoadFailsWhenStudentUnresolved(t *testing.T) {
	svc := newDashboardFixture(
		&mockStudentRepo{err: errors.New("no partition")},
		&mockAttendanceRepo{},
		&mockAnnouncementRepo{},
		&mockHomeworkRepo{},
	)

	_, _, err := svc.Load(context.Background(), "parent-1")
	assert.Error(t, err)
}
