package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
)

type postRepository interface {
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) error
	AddComment(ctx context.Context, postID, authorID, text string) (string, error)
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}

type teacherDirectory interface {
	Get(ctx context.Context, id string) (*models.Teacher, error)
}

// PostService serves the gallery feed screens. Reads degrade; writes
// propagate their errors so the caller can show failure.
type PostService struct {
	repo      postRepository
	teachers  teacherDirectory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPostService constructs the service.
func NewPostService(repo postRepository, teachers teacherDirectory, validate *validator.Validate, logger *zap.Logger) *PostService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns all gallery posts newest first, degrading to empty on error.
func (s *PostService) List(ctx context.Context) []models.Post {
	posts, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("post fetch failed", zap.Error(err))
		return []models.Post{}
	}
	return posts
}

// Comments returns a post's thread oldest first, degrading to empty.
func (s *PostService) Comments(ctx context.Context, postID string) []models.Comment {
	comments, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		s.logger.Warn("comment fetch failed", zap.String("post", postID), zap.Error(err))
		return []models.Comment{}
	}
	return comments
}

// Author resolves a post's teacher. A missing or unreadable teacher record
// yields nil so the caller can fall back to an anonymous author.
func (s *PostService) Author(ctx context.Context, teacherID string) *models.Teacher {
	if teacherID == "" {
		return nil
	}
	teacher, err := s.teachers.Get(ctx, teacherID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("teacher lookup failed", zap.String("teacher", teacherID), zap.Error(err))
		}
		return nil
	}
	return teacher
}

// ToggleLike atomically flips the user's membership in the post's like set.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) error {
	if postID == "" || userID == "" {
		return appErrors.ErrValidation
	}
	if err := s.repo.ToggleLike(ctx, postID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrWriteFailed.Code, appErrors.ErrWriteFailed.Status, "failed to toggle like")
	}
	return nil
}

// AddComment appends a comment to the post's thread.
func (s *PostService) AddComment(ctx context.Context, postID, authorID, text string) (string, error) {
	text = strings.TrimSpace(text)
	if postID == "" || authorID == "" {
		return "", appErrors.ErrValidation
	}
	if err := s.validator.Var(text, "required,max=2000"); err != nil {
		return "", appErrors.ErrValidation
	}
	id, err := s.repo.AddComment(ctx, postID, authorID, text)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrWriteFailed.Code, appErrors.ErrWriteFailed.Status, "failed to add comment")
	}
	return id, nil
}
