package repository

import (
	"context"
	"time"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
)

const attendanceCollection = "attendance"

// AttendanceRepository reads the per-day attendance documents. Each document
// covers one class-day and embeds an entry per student; the student match
// happens client-side because the store cannot filter inside the array.
type AttendanceRepository struct {
	store store.Store
}

// NewAttendanceRepository creates the repository.
func NewAttendanceRepository(s store.Store) *AttendanceRepository {
	return &AttendanceRepository{store: s}
}

// ListForStudent returns every record for the student in that class. The
// whole class history is fetched in one response; granularity is whatever the
// enrollment system writes, typically a month.
func (r *AttendanceRepository) ListForStudent(ctx context.Context, className, studentID string) ([]models.AttendanceRecord, error) {
	docs, err := r.store.Query(ctx, attendanceCollection, store.Query{
		Filters: []store.Filter{{Field: "className", Value: className}},
		OrderBy: "date",
	})
	if err != nil {
		return nil, err
	}

	records := make([]models.AttendanceRecord, 0, len(docs))
	for _, doc := range docs {
		date, ok := parseDay(doc.String("date"))
		if !ok {
			continue
		}
		entries, _ := doc.Data["students"].([]interface{})
		for _, raw := range entries {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if id, _ := entry["studentId"].(string); id != studentID {
				continue
			}
			explicit, _ := entry["status"].(string)
			morning, _ := entry["morning"].(bool)
			afternoon, _ := entry["afternoon"].(bool)
			records = append(records, models.AttendanceRecord{
				StudentID: studentID,
				ClassName: className,
				Date:      date,
				Status:    models.DeriveAttendanceStatus(explicit, morning, afternoon),
				Morning:   morning,
				Afternoon: afternoon,
			})
		}
	}
	return records, nil
}

func parseDay(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
