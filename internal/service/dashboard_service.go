package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/models"
)

// DashboardServiceConfig tunes dashboard assembly.
type DashboardServiceConfig struct {
	CacheTTL           time.Duration
	AnnouncementLimit  int
	HomeworkContainers int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students      studentRepository
	Attendance    attendanceRepository
	Announcements announcementRepository
	Homework      homeworkRepository
	Cache         *CacheService
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// DashboardService assembles the home screen with one concurrent joint
// fetch. Unlike the per-screen services, a failure in any sub-fetch fails
// the whole load: the combined payload is all or nothing.
type DashboardService struct {
	students      studentRepository
	attendance    attendanceRepository
	announcements announcementRepository
	homework      homeworkRepository
	cache         *CacheService
	logger        *zap.Logger
	now           func() time.Time
	cfg           DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	if cfg.AnnouncementLimit <= 0 {
		cfg.AnnouncementLimit = 50
	}
	if cfg.HomeworkContainers <= 0 {
		cfg.HomeworkContainers = 7
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:      params.Students,
		attendance:    params.Attendance,
		announcements: params.Announcements,
		homework:      params.Homework,
		cache:         params.Cache,
		logger:        logger,
		now:           time.Now,
		cfg:           cfg,
	}
}

// Load builds the combined dashboard for the given parent identity. The
// second return value reports whether the payload came from cache.
func (s *DashboardService) Load(ctx context.Context, identity string) (*dto.Dashboard, bool, error) {
	key := fmt.Sprintf("dashboard:%s", identity)
	var cached dto.Dashboard
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	student, err := s.students.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, false, err
	}

	var (
		records       []models.AttendanceRecord
		announcements []models.Announcement
		homework      []models.Homework
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.attendance.ListForStudent(gctx, student.ClassName, student.ID)
		return err
	})
	g.Go(func() error {
		var err error
		announcements, err = s.announcements.List(gctx, s.cfg.AnnouncementLimit)
		return err
	})
	g.Go(func() error {
		var err error
		homework, err = s.homework.ListRecent(gctx, student.ClassName, s.cfg.HomeworkContainers)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("dashboard joint fetch failed", zap.String("identity", identity), zap.Error(err))
		return nil, false, err
	}

	now := s.now().UTC()
	offset := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -offset)

	dashboard := &dto.Dashboard{
		Student:            *student,
		AttendanceWeek:     BuildAttendanceWeek(records, monday),
		Announcements:      announcements,
		AnnouncementsToday: countCreatedOn(announcements, now),
		Homework:           homework,
		HomeworkToday:      countEffectiveOn(homework, now),
		Grades:             BuildGradeReports(student.Grades),
		GeneratedAt:        now,
	}
	_ = s.cache.Set(ctx, key, dashboard, s.cfg.CacheTTL)
	return dashboard, false, nil
}

func countCreatedOn(items []models.Announcement, day time.Time) int {
	want := day.UTC().Format("2006-01-02")
	count := 0
	for _, item := range items {
		if item.CreatedAt.UTC().Format("2006-01-02") == want {
			count++
		}
	}
	return count
}

func countEffectiveOn(items []models.Homework, day time.Time) int {
	want := day.UTC().Format("2006-01-02")
	count := 0
	for _, item := range items {
		if item.EffectiveDate.UTC().Format("2006-01-02") == want {
			count++
		}
	}
	return count
}
