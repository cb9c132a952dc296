package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
)

type mockPostRepo struct {
	posts      []models.Post
	comments   []models.Comment
	toggleErr  error
	commentErr error
	listErr    error

	toggled   []string
	commented []string
}

func (m *mockPostRepo) List(ctx context.Context) ([]models.Post, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.posts, nil
}

func (m *mockPostRepo) Get(ctx context.Context, id string) (*models.Post, error) {
	for _, p := range m.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockPostRepo) ToggleLike(ctx context.Context, postID, userID string) error {
	if m.toggleErr != nil {
		return m.toggleErr
	}
	m.toggled = append(m.toggled, postID+":"+userID)
	return nil
}

func (m *mockPostRepo) AddComment(ctx context.Context, postID, authorID, text string) (string, error) {
	if m.commentErr != nil {
		return "", m.commentErr
	}
	m.commented = append(m.commented, text)
	return "comment-1", nil
}

func (m *mockPostRepo) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.comments, nil
}

type mockTeacherDir struct {
	teachers map[string]*models.Teacher
	err      error
}

func (m *mockTeacherDir) Get(ctx context.Context, id string) (*models.Teacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, store.ErrNotFound
}

func TestListPostsDegradesToEmpty(t *testing.T) {
	svc := NewPostService(&mockPostRepo{listErr: errors.New("store down")}, &mockTeacherDir{}, nil, zap.NewNop())

	posts := svc.List(context.Background())
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestAuthorNilWhenMissing(t *testing.T) {
	dir := &mockTeacherDir{teachers: map[string]*models.Teacher{
		"t1": {ID: "t1", Name: "Bu Sari"},
	}}
	svc := NewPostService(&mockPostRepo{}, dir, nil, zap.NewNop())

	require.NotNil(t, svc.Author(context.Background(), "t1"))
	assert.Nil(t, svc.Author(context.Background(), "t2"))
	assert.Nil(t, svc.Author(context.Background(), ""))
}

func TestToggleLikePropagatesWriteErrors(t *testing.T) {
	repo := &mockPostRepo{toggleErr: errors.New("conflict")}
	svc := NewPostService(repo, &mockTeacherDir{}, nil, zap.NewNop())

	err := svc.ToggleLike(context.Background(), "post-1", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWriteFailed.Code, appErrors.FromError(err).Code)
}

func TestToggleLikeMissingPost(t *testing.T) {
	repo := &mockPostRepo{toggleErr: store.ErrNotFound}
	svc := NewPostService(repo, &mockTeacherDir{}, nil, zap.NewNop())

	err := svc.ToggleLike(context.Background(), "post-404", "user-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestToggleLikeRequiresIdentity(t *testing.T) {
	svc := NewPostService(&mockPostRepo{}, &mockTeacherDir{}, nil, zap.NewNop())

	assert.ErrorIs(t, svc.ToggleLike(context.Background(), "post-1", ""), appErrors.ErrValidation)
	assert.ErrorIs(t, svc.ToggleLike(context.Background(), "", "user-1"), appErrors.ErrValidation)
}

func TestAddCommentTrimsAndValidates(t *testing.T) {
	repo := &mockPostRepo{}
	svc := NewPostService(repo, &mockTeacherDir{}, nil, zap.NewNop())

	id, err := svc.AddComment(context.Background(), "post-1", "user-1", "  great work!  ")
	require.NoError(t, err)
	assert.Equal(t, "comment-1", id)
	require.Len(t, repo.commented, 1)
	assert.Equal(t, "great work!", repo.commented[0])

	_, err = svc.AddComment(context.Background(), "post-1", "user-1", "   ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
