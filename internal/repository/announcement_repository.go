package repository

import (
	"context"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
)

const (
	announcementsCollection = "announcements"
	eventsCollection        = "events"
)

// AnnouncementRepository reads school notices and calendar events. Both are
// immutable from this client and ordered newest first.
type AnnouncementRepository struct {
	store store.Store
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(s store.Store) *AnnouncementRepository {
	return &AnnouncementRepository{store: s}
}

// List returns announcements ordered by creation descending. A limit of zero
// returns everything.
func (r *AnnouncementRepository) List(ctx context.Context, limit int) ([]models.Announcement, error) {
	docs, err := r.store.Query(ctx, announcementsCollection, store.Query{
		OrderBy: "createdAt",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	announcements := make([]models.Announcement, 0, len(docs))
	for _, doc := range docs {
		announcements = append(announcements, parseAnnouncement(doc))
	}
	return announcements, nil
}

// ListEvents returns calendar events, newest first.
func (r *AnnouncementRepository) ListEvents(ctx context.Context, limit int) ([]models.EventItem, error) {
	docs, err := r.store.Query(ctx, eventsCollection, store.Query{
		OrderBy: "createdAt",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	events := make([]models.EventItem, 0, len(docs))
	for _, doc := range docs {
		events = append(events, models.EventItem{
			ID:          doc.ID,
			Title:       doc.String("title"),
			EventType:   doc.String("eventType"),
			StartDate:   doc.String("startDate"),
			EndDate:     doc.String("endDate"),
			StartTime:   doc.String("startTime"),
			EndTime:     doc.String("endTime"),
			Venue:       doc.String("venue"),
			Description: doc.String("description"),
			CreatedAt:   doc.CreatedAt,
		})
	}
	return events, nil
}

func parseAnnouncement(doc store.Document) models.Announcement {
	return models.Announcement{
		ID:          doc.ID,
		Title:       doc.String("title"),
		Description: doc.String("description"),
		Sender:      doc.String("sender"),
		CreatedAt:   doc.CreatedAt,
		EventType:   doc.String("eventType"),
		Venue:       doc.String("venue"),
		StartDate:   doc.String("startDate"),
		EndDate:     doc.String("endDate"),
		StartTime:   doc.String("startTime"),
		EndTime:     doc.String("endTime"),
	}
}
