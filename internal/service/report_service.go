package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/internal/repository"
	"github.com/edulink-id/parent-portal-api/internal/store"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/jobs"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]models.ReportJob, error)
	MarkExpired(ctx context.Context, id string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

type identityResolver interface {
	FindByIdentity(ctx context.Context, identity string) (*models.Student, error)
}

// ReportServiceConfig governs queue recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	DownloadPath    string
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// ReportService orchestrates report card job lifecycle.
type ReportService struct {
	repo     reportJobStore
	students identityResolver
	queue    jobDispatcher
	exporter *ExportService
	logger   *zap.Logger
	cfg      ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(repo reportJobStore, students identityResolver, queue jobDispatcher, exporter *ExportService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = "/api/v1/reports/download"
	}
	return &ReportService{
		repo:     repo,
		students: students,
		queue:    queue,
		exporter: exporter,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateJob resolves the caller's child, persists the job, and enqueues
// rendering. The child resolution doubles as the authorization check: a
// parent can only export their own child's report card.
func (s *ReportService) CreateJob(ctx context.Context, req dto.ReportCardRequest, identity string) (*dto.ReportJobResponse, error) {
	format := models.ReportFormat(strings.ToUpper(req.Format))
	if format != models.ReportFormatPDF && format != models.ReportFormatCSV {
		return nil, appErrors.ErrValidation
	}
	student, err := s.students.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}

	job := &models.ReportJob{
		StudentID: student.ID,
		ClassName: student.ClassName,
		Format:    format,
		Status:    models.ReportStatusQueued,
		CreatedBy: identity,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "report-card"}); err != nil {
		status := models.ReportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
			Status:       &status,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status}, nil
}

// GetStatus exposes job metadata to its creator.
func (s *ReportService) GetStatus(ctx context.Context, id, identity string) (*dto.ReportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.CreatedBy != identity {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.ReportStatusResponse{
		ID:           job.ID,
		Status:       job.Status,
		ErrorMessage: job.ErrorMessage,
		ExpiresAt:    job.ExpiresAt,
	}
	if job.Status == models.ReportStatusCompleted && job.DownloadURL != "" {
		resp.DownloadURL = job.DownloadURL
	}
	return resp, nil
}

// ResolveDownload validates a signed token and opens the stored artifact.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.ErrLinkExpired
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if job.Status != models.ReportStatusCompleted || job.ResultPath != relPath {
		return nil, appErrors.ErrNotFound
	}
	file, err := s.exporter.Open(relPath)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	return &ReportDownload{
		File:      file,
		Filename:  relPath,
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs re-enqueues jobs left queued by a previous run.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	queued, err := s.repo.ListQueued(ctx, 100)
	if err != nil {
		s.logger.Warn("report job recovery failed", zap.Error(err))
		return
	}
	for _, job := range queued {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "report-card"}); err != nil {
			s.logger.Warn("report job re-enqueue failed", zap.String("job", job.ID), zap.Error(err))
		}
	}
}

// StartCleanup periodically removes expired artifacts until ctx ends.
func (s *ReportService) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ReportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.ResultTTL)
	finished, err := s.repo.ListFinishedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Warn("report cleanup listing failed", zap.Error(err))
		return
	}
	for _, job := range finished {
		if job.ResultPath == "" {
			continue
		}
		if err := s.exporter.Remove(job.ResultPath); err != nil {
			s.logger.Warn("report artifact removal failed", zap.String("job", job.ID), zap.Error(err))
			continue
		}
		if err := s.repo.MarkExpired(ctx, job.ID); err != nil {
			s.logger.Warn("report job expiry mark failed", zap.String("job", job.ID), zap.Error(err))
		}
	}
}

// DownloadURL renders the public download link for a signed token.
func (s *ReportService) DownloadURL(token string) string {
	return fmt.Sprintf("%s?token=%s", s.cfg.DownloadPath, token)
}

// ReportWorker consumes queued report jobs.
type ReportWorker struct {
	repo     reportJobStore
	exporter exportGenerator
	urls     func(token string) string
	logger   *zap.Logger
}

// NewReportWorker constructs the queue handler.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, urls func(token string) string, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportWorker{repo: repo, exporter: exporter, urls: urls, logger: logger}
}

// Handle renders one job and records the outcome.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	stored, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", job.ID, err)
	}
	processing := models.ReportStatusProcessing
	_ = w.repo.Update(ctx, stored.ID, repository.UpdateReportJobParams{Status: &processing})

	result, err := w.exporter.Generate(ctx, stored)
	now := time.Now().UTC()
	if err != nil {
		failed := models.ReportStatusFailed
		msg := err.Error()
		_ = w.repo.Update(ctx, stored.ID, repository.UpdateReportJobParams{
			Status:       &failed,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return err
	}

	completed := models.ReportStatusCompleted
	url := w.urls(result.Token)
	_ = w.repo.Update(ctx, stored.ID, repository.UpdateReportJobParams{
		Status:      &completed,
		ResultPath:  &result.RelativePath,
		DownloadURL: &url,
		ExpiresAt:   &result.ExpiresAt,
		FinishedAt:  &now,
	})
	w.logger.Info("report job completed", zap.String("job", stored.ID), zap.String("path", result.RelativePath))
	return nil
}
