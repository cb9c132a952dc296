package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/repository"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/jobs"
	"github.com/edulink-id/parent-portal-api/pkg/storage"
)

type memoryJobStore struct {
	jobs   map[string]*models.ReportJob
	nextID int
}

func newMemoryJobStore() *memoryJobStore {
	return &memoryJobStore{jobs: map[string]*models.ReportJob{}}
}

func (m *memoryJobStore) Create(ctx context.Context, job *models.ReportJob) error {
	m.nextID++
	job.ID = fmt.Sprintf("job-%d", m.nextID)
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *memoryJobStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *job
	return &copied, nil
}

func (m *memoryJobStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := m.jobs[id]
	if !ok {
		return errors.New("not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultPath != nil {
		job.ResultPath = *params.ResultPath
	}
	if params.DownloadURL != nil {
		job.DownloadURL = *params.DownloadURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = *params.ErrorMessage
	}
	if params.ExpiresAt != nil {
		job.ExpiresAt = params.ExpiresAt
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *memoryJobStore) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var queued []models.ReportJob
	for _, job := range m.jobs {
		if job.Status == models.ReportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (m *memoryJobStore) ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]models.ReportJob, error) {
	var finished []models.ReportJob
	for _, job := range m.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			finished = append(finished, *job)
		}
	}
	return finished, nil
}

func (m *memoryJobStore) MarkExpired(ctx context.Context, id string) error {
	if job, ok := m.jobs[id]; ok {
		job.ResultPath = ""
		job.DownloadURL = ""
	}
	return nil
}

type captureQueue struct {
	enqueued []jobs.Job
	err      error
}

func (q *captureQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

type mockStudentGetter struct {
	student *models.Student
}

func (m *mockStudentGetter) Get(ctx context.Context, className, id string) (*models.Student, error) {
	if m.student == nil {
		return nil, errors.New("not found")
	}
	return m.student, nil
}

func newExportFixture(t *testing.T, student *models.Student) *ExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(
		&mockStudentGetter{student: student},
		&mockAttendanceRepo{records: []models.AttendanceRecord{
			{Status: models.AttendanceStatusPresent},
			{Status: models.AttendanceStatusPresent},
			{Status: models.AttendanceStatusAbsent},
		}},
		files, signer, ExportConfig{}, zap.NewNop(), nil, nil,
	)
}

func TestGenerateRendersCSVReportCard(t *testing.T) {
	student := &models.Student{
		ID:        "s1",
		Name:      "Adi",
		ClassName: "5A",
		Grades: []models.Grade{{
			ExamName: "Midterm",
			Date:     "2026-02-10",
			Subjects: map[string]string{"Math": "92", "Science": "78"},
		}},
	}
	exporter := newExportFixture(t, student)

	job := &models.ReportJob{ID: "job-1", StudentID: "s1", ClassName: "5A", Format: models.ReportFormatCSV}
	result, err := exporter.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.NotEmpty(t, result.Token)

	file, err := exporter.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()

	raw, err := os.ReadFile(file.Name())
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "Midterm")
	assert.Contains(t, content, "85.0")
	assert.Contains(t, content, "Present 2 / Halfday 0 / Absent 1")
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	exporter := newExportFixture(t, &models.Student{ID: "s1", ClassName: "5A"})

	_, err := exporter.Generate(context.Background(), &models.ReportJob{ID: "j", StudentID: "s1", ClassName: "5A", Format: "DOCX"})
	assert.Error(t, err)
}

func TestCreateJobEnqueuesForOwnChild(t *testing.T) {
	repo := newMemoryJobStore()
	queue := &captureQueue{}
	students := &mockStudentFinder{student: &models.Student{ID: "s1", ClassName: "5A"}}
	svc := NewReportService(repo, students, queue, newExportFixture(t, nil), zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ReportCardRequest{Format: "pdf"}, "parent-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
}

func TestCreateJobRejectsBadFormat(t *testing.T) {
	svc := NewReportService(newMemoryJobStore(), &mockStudentFinder{}, &captureQueue{}, newExportFixture(t, nil), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportCardRequest{Format: "docx"}, "parent-1")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGetStatusEnforcesOwnership(t *testing.T) {
	repo := newMemoryJobStore()
	job := &models.ReportJob{StudentID: "s1", ClassName: "5A", Format: models.ReportFormatPDF, Status: models.ReportStatusQueued, CreatedBy: "parent-1"}
	require.NoError(t, repo.Create(context.Background(), job))

	svc := NewReportService(repo, &mockStudentFinder{}, &captureQueue{}, newExportFixture(t, nil), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.GetStatus(context.Background(), job.ID, "parent-2")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	status, err := svc.GetStatus(context.Background(), job.ID, "parent-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, status.Status)
}

func TestWorkerCompletesJob(t *testing.T) {
	repo := newMemoryJobStore()
	student := &models.Student{
		ID:        "s1",
		Name:      "Adi",
		ClassName: "5A",
		Grades:    []models.Grade{{ExamName: "Midterm", Date: "2026-02-10", Subjects: map[string]string{"Math": "90"}}},
	}
	job := &models.ReportJob{StudentID: "s1", ClassName: "5A", Format: models.ReportFormatCSV, Status: models.ReportStatusQueued, CreatedBy: "parent-1"}
	require.NoError(t, repo.Create(context.Background(), job))

	exporter := newExportFixture(t, student)
	worker := NewReportWorker(repo, exporter, func(token string) string { return "/dl?token=" + token }, zap.NewNop())

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Type: "report-card"}))

	stored, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusCompleted, stored.Status)
	assert.NotEmpty(t, stored.ResultPath)
	assert.True(t, strings.HasPrefix(stored.DownloadURL, "/dl?token="))
	require.NotNil(t, stored.FinishedAt)
}

func TestWorkerRecordsFailure(t *testing.T) {
	repo := newMemoryJobStore()
	job := &models.ReportJob{StudentID: "missing", ClassName: "5A", Format: models.ReportFormatCSV, Status: models.ReportStatusQueued}
	require.NoError(t, repo.Create(context.Background(), job))

	exporter := newExportFixture(t, nil)
	worker := NewReportWorker(repo, exporter, func(token string) string { return token }, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: job.ID})
	require.Error(t, err)

	stored, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFailed, stored.Status)
	assert.NotEmpty(t, stored.ErrorMessage)
}
