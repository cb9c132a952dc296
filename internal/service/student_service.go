package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/models"
)

type studentRepository interface {
	FindByIdentity(ctx context.Context, identity string) (*models.Student, error)
	Classes(ctx context.Context) ([]string, error)
}

// StudentService resolves the signed-in parent's child record.
type StudentService struct {
	repo     studentRepository
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewStudentService constructs the service.
func NewStudentService(repo studentRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &StudentService{repo: repo, cache: cache, logger: logger, cacheTTL: cacheTTL}
}

// Resolve finds the child linked to the given parent identity. Unlike list
// reads, a resolution failure is surfaced to the caller: nothing else on any
// screen can render without the student.
func (s *StudentService) Resolve(ctx context.Context, identity string) (*models.Student, error) {
	key := fmt.Sprintf("student:%s", identity)
	var cached models.Student
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	student, err := s.repo.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, student, s.cacheTTL)
	return student, nil
}

// Invalidate drops the cached resolution for an identity.
func (s *StudentService) Invalidate(ctx context.Context, identity string) {
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("student:%s", identity))
}
