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

type mockAnnouncementRepo struct {
	announcements []models.Announcement
	events        []models.EventItem
	err           error
}

func (m *mockAnnouncementRepo) List(ctx context.Context, limit int) ([]models.Announcement, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.announcements, nil
}

func (m *mockAnnouncementRepo) ListEvents(ctx context.Context, limit int) ([]models.EventItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

func TestListCountsTodayOnly(t *testing.T) {
	now := time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	repo := &mockAnnouncementRepo{announcements: []models.Announcement{
		{ID: "a1", Title: "Sports day", CreatedAt: now.Add(-time.Hour)},
		{ID: "a2", Title: "Library closed", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "a3", Title: "Exam schedule", CreatedAt: yesterday},
		{ID: "a4", Title: "Bus route", CreatedAt: yesterday.Add(-time.Hour)},
		{ID: "a5", Title: "Uniform notice", CreatedAt: yesterday.Add(-2 * time.Hour)},
	}}
	svc := NewAnnouncementService(repo, 50, zap.NewNop())
	svc.now = func() time.Time { return now }

	var badge int
	items := svc.List(context.Background(), func(count int) { badge = count })

	require.Len(t, items, 5)
	assert.Equal(t, 2, badge)
}

func TestListDegradesWithZeroBadge(t *testing.T) {
	svc := NewAnnouncementService(&mockAnnouncementRepo{err: errors.New("store down")}, 50, zap.NewNop())

	badge := -1
	items := svc.List(context.Background(), func(count int) { badge = count })

	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, 0, badge)
}

func TestListWithoutCounterCallback(t *testing.T) {
	repo := &mockAnnouncementRepo{announcements: []models.Announcement{{ID: "a1"}}}
	svc := NewAnnouncementService(repo, 50, zap.NewNop())

	items := svc.List(context.Background(), nil)
	assert.Len(t, items, 1)
}

func TestEventsDegradeToEmpty(t *testing.T) {
	svc := NewAnnouncementService(&mockAnnouncementRepo{err: errors.New("store down")}, 50, zap.NewNop())

	events := svc.Events(context.Background())
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
