package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/models"
)

type homeworkRepository interface {
	ListRecent(ctx context.Context, className string, containers int) ([]models.Homework, error)
}

// HomeworkService serves the homework screen for one class.
type HomeworkService struct {
	repo       homeworkRepository
	logger     *zap.Logger
	now        func() time.Time
	containers int
}

// NewHomeworkService constructs the service. containers bounds how many
// per-day batch documents are flattened per fetch.
func NewHomeworkService(repo homeworkRepository, containers int, logger *zap.Logger) *HomeworkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if containers <= 0 {
		containers = 7
	}
	return &HomeworkService{repo: repo, logger: logger, now: time.Now, containers: containers}
}

// Recent returns the class's flattened homework items newest first by
// effective date. Fetch failures degrade to an empty list and a zero badge
// count.
func (s *HomeworkService) Recent(ctx context.Context, className string, onToday TodayCounter) []models.Homework {
	items, err := s.repo.ListRecent(ctx, className, s.containers)
	if err != nil {
		s.logger.Warn("homework fetch failed", zap.String("class", className), zap.Error(err))
		if onToday != nil {
			onToday(0)
		}
		return []models.Homework{}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].EffectiveDate.Equal(items[j].EffectiveDate) {
			return items[i].EffectiveDate.After(items[j].EffectiveDate)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if onToday != nil {
		onToday(countEffectiveOn(items, s.now()))
	}
	return items
}
