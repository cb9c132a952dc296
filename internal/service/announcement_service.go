package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/models"
)

type announcementRepository interface {
	List(ctx context.Context, limit int) ([]models.Announcement, error)
	ListEvents(ctx context.Context, limit int) ([]models.EventItem, error)
}

// TodayCounter receives how many of the returned items were created on the
// current calendar day. It is the badge side channel for the home screen and
// fires on every fetch, including degraded ones.
type TodayCounter func(count int)

// AnnouncementService serves the announcements and events screens.
type AnnouncementService struct {
	repo   announcementRepository
	logger *zap.Logger
	now    func() time.Time
	limit  int
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, limit int, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 50
	}
	return &AnnouncementService{repo: repo, logger: logger, now: time.Now, limit: limit}
}

// List returns announcements newest first. Fetch failures degrade to an
// empty list and a zero badge count.
func (s *AnnouncementService) List(ctx context.Context, onToday TodayCounter) []models.Announcement {
	items, err := s.repo.List(ctx, s.limit)
	if err != nil {
		s.logger.Warn("announcement fetch failed", zap.Error(err))
		if onToday != nil {
			onToday(0)
		}
		return []models.Announcement{}
	}
	if onToday != nil {
		onToday(countCreatedOn(items, s.now()))
	}
	return items
}

// Events returns calendar events newest first, degrading to empty on error.
func (s *AnnouncementService) Events(ctx context.Context) []models.EventItem {
	items, err := s.repo.ListEvents(ctx, s.limit)
	if err != nil {
		s.logger.Warn("event fetch failed", zap.Error(err))
		return []models.EventItem{}
	}
	return items
}
