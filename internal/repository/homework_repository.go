package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
)

// HomeworkRepository reads the per-day homework containers of a class and
// normalizes them at the store boundary. Containers arrive in two shapes: a
// flat per-day document holding one homework, or a batch document with a
// nested homeworks array. Downstream consumers only ever see the flattened
// models.Homework form.
type HomeworkRepository struct {
	store store.Store
	now   func() time.Time
}

// NewHomeworkRepository creates the repository.
func NewHomeworkRepository(s store.Store) *HomeworkRepository {
	return &HomeworkRepository{store: s, now: time.Now}
}

// ListRecent fetches the most recent container documents for the class and
// flattens them into individual homework items.
func (r *HomeworkRepository) ListRecent(ctx context.Context, className string, containers int) ([]models.Homework, error) {
	docs, err := r.store.Query(ctx, homeworksCollection(className), store.Query{
		OrderBy: "date",
		Desc:    true,
		Limit:   containers,
	})
	if err != nil {
		return nil, err
	}

	items := make([]models.Homework, 0, len(docs))
	for _, doc := range docs {
		items = append(items, r.flattenContainer(className, doc)...)
	}
	return items, nil
}

func homeworksCollection(className string) string {
	return store.ChildCollection(classesCollection, className, "homeworks")
}

// flattenContainer normalizes one container document. A nested batch of N
// items yields exactly N homework entries.
func (r *HomeworkRepository) flattenContainer(className string, doc store.Document) []models.Homework {
	containerDate, hasContainerDate := parseFlexibleDate(doc.String("date"))

	nested, isBatch := doc.Data["homeworks"].([]interface{})
	if !isBatch {
		item := r.parseItem(className, doc.ID, doc.ID, doc.Data, doc.CreatedAt, doc.UpdatedAt, containerDate, hasContainerDate)
		return []models.Homework{item}
	}

	items := make([]models.Homework, 0, len(nested))
	for _, raw := range nested {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		items = append(items, r.parseItem(className, "", doc.ID, entry, doc.CreatedAt, doc.UpdatedAt, containerDate, hasContainerDate))
	}
	return items
}

func (r *HomeworkRepository) parseItem(className, id, dateID string, data map[string]interface{}, containerCreated, containerUpdated time.Time, containerDate time.Time, hasContainerDate bool) models.Homework {
	created := parseTimestamp(data["createdAt"])
	if created.IsZero() {
		created = containerCreated
	}
	updated := parseTimestamp(data["updatedAt"])
	if updated.IsZero() {
		updated = containerUpdated
	}

	// Effective date precedence: item date, item createdAt, container date,
	// current time.
	var effective time.Time
	itemCreated := parseTimestamp(data["createdAt"])
	switch {
	case hasItemDate(data):
		effective, _ = parseFlexibleDate(fmt.Sprint(data["date"]))
	case !itemCreated.IsZero():
		effective = itemCreated
	case hasContainerDate:
		effective = containerDate
	default:
		effective = r.now().UTC()
	}

	if raw, ok := data["id"].(string); ok && raw != "" {
		id = raw
	}
	if id == "" {
		// nested items without an id are keyed by their creation moment
		id = fmt.Sprintf("%d", created.UnixMilli())
	}

	return models.Homework{
		ID:            id,
		ClassName:     className,
		Subject:       stringField(data, "subject"),
		Details:       parseDetails(data["details"]),
		EffectiveDate: effective,
		CreatedAt:     created,
		UpdatedAt:     updated,
		DateID:        dateID,
	}
}

func hasItemDate(data map[string]interface{}) bool {
	raw, ok := data["date"].(string)
	if !ok || raw == "" {
		return false
	}
	_, ok = parseFlexibleDate(raw)
	return ok
}

// parseDetails accepts a single string or an ordered list of strings.
func parseDetails(raw interface{}) []string {
	switch typed := raw.(type) {
	case string:
		if typed == "" {
			return nil
		}
		return []string{typed}
	case []interface{}:
		details := make([]string, 0, len(typed))
		for _, item := range typed {
			details = append(details, fmt.Sprint(item))
		}
		return details
	default:
		return nil
	}
}

func parseFlexibleDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseTimestamp(raw interface{}) time.Time {
	switch typed := raw.(type) {
	case time.Time:
		return typed
	case string:
		if ts, err := time.Parse(time.RFC3339, typed); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func stringField(data map[string]interface{}, field string) string {
	if v, ok := data[field].(string); ok {
		return v
	}
	return ""
}
