package repository

import (
	"context"
	"time"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/store"
)

const reportJobsCollection = "reportJobs"

// UpdateReportJobParams carries the mutable report job fields. Nil fields
// are left untouched.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	ResultPath   *string
	DownloadURL  *string
	ErrorMessage *string
	ExpiresAt    *time.Time
	FinishedAt   *time.Time
}

// ReportRepository persists report card jobs in the document store.
type ReportRepository struct {
	store store.Store
}

// NewReportRepository creates the repository.
func NewReportRepository(s store.Store) *ReportRepository {
	return &ReportRepository{store: s}
}

// Create persists a new job and fills in its generated ID.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	id, err := r.store.Add(ctx, reportJobsCollection, map[string]interface{}{
		"studentId": job.StudentID,
		"className": job.ClassName,
		"format":    string(job.Format),
		"status":    string(job.Status),
		"createdBy": job.CreatedBy,
	})
	if err != nil {
		return err
	}
	job.ID = id
	return nil
}

// GetByID loads one job.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	doc, err := r.store.Get(ctx, reportJobsCollection, id)
	if err != nil {
		return nil, err
	}
	return parseReportJob(*doc), nil
}

// Update applies the non-nil fields to the stored job.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	partial := map[string]interface{}{}
	if params.Status != nil {
		partial["status"] = string(*params.Status)
	}
	if params.ResultPath != nil {
		partial["resultPath"] = *params.ResultPath
	}
	if params.DownloadURL != nil {
		partial["downloadUrl"] = *params.DownloadURL
	}
	if params.ErrorMessage != nil {
		partial["errorMessage"] = *params.ErrorMessage
	}
	if params.ExpiresAt != nil {
		partial["expiresAt"] = params.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if params.FinishedAt != nil {
		partial["finishedAt"] = params.FinishedAt.UTC().Format(time.RFC3339)
	}
	if len(partial) == 0 {
		return nil
	}
	return r.store.Update(ctx, reportJobsCollection, id, partial)
}

// ListQueued returns jobs still waiting for a worker, oldest first.
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	docs, err := r.store.Query(ctx, reportJobsCollection, store.Query{
		Filters: []store.Filter{{Field: "status", Value: string(models.ReportStatusQueued)}},
		OrderBy: "createdAt",
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	jobs := make([]models.ReportJob, 0, len(docs))
	for _, doc := range docs {
		jobs = append(jobs, *parseReportJob(doc))
	}
	return jobs, nil
}

// ListFinishedBefore returns completed or failed jobs whose finish time is
// older than the cutoff.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]models.ReportJob, error) {
	docs, err := r.store.List(ctx, reportJobsCollection)
	if err != nil {
		return nil, err
	}
	var jobs []models.ReportJob
	for _, doc := range docs {
		job := parseReportJob(doc)
		if job.Status != models.ReportStatusCompleted && job.Status != models.ReportStatusFailed {
			continue
		}
		if job.FinishedAt == nil || job.FinishedAt.After(cutoff) {
			continue
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// MarkExpired flags a finished job whose artifact has been cleaned up.
func (r *ReportRepository) MarkExpired(ctx context.Context, id string) error {
	return r.store.Update(ctx, reportJobsCollection, id, map[string]interface{}{
		"resultPath":  "",
		"downloadUrl": "",
	})
}

func parseReportJob(doc store.Document) *models.ReportJob {
	job := &models.ReportJob{
		ID:           doc.ID,
		StudentID:    doc.String("studentId"),
		ClassName:    doc.String("className"),
		Format:       models.ReportFormat(doc.String("format")),
		Status:       models.ReportStatus(doc.String("status")),
		CreatedBy:    doc.String("createdBy"),
		ResultPath:   doc.String("resultPath"),
		DownloadURL:  doc.String("downloadUrl"),
		ErrorMessage: doc.String("errorMessage"),
		CreatedAt:    doc.CreatedAt,
	}
	if t, ok := parseRFC3339(doc.String("expiresAt")); ok {
		job.ExpiresAt = &t
	}
	if t, ok := parseRFC3339(doc.String("finishedAt")); ok {
		job.FinishedAt = &t
	}
	return job
}

func parseRFC3339(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
