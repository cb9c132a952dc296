package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/models"
)

type studentFinder interface {
	FindByIdentity(ctx context.Context, identity string) (*models.Student, error)
}

// GradeService shapes the exam results embedded in the student record.
type GradeService struct {
	students studentFinder
	logger   *zap.Logger
}

// NewGradeService constructs the service.
func NewGradeService(students studentFinder, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{students: students, logger: logger}
}

// List fetches the identity's child and returns its exam reports newest
// first. Fetch failures degrade to an empty list.
func (s *GradeService) List(ctx context.Context, identity string) []dto.GradeReport {
	student, err := s.students.FindByIdentity(ctx, identity)
	if err != nil {
		s.logger.Warn("grade fetch failed", zap.String("identity", identity), zap.Error(err))
		return []dto.GradeReport{}
	}
	return BuildGradeReports(student.Grades)
}

// BuildGradeReports sorts grades newest first and attaches the computed
// average. Non-parseable scores are excluded from the average but stay in
// Subjects for display; an exam with no parseable score gets a nil average.
func BuildGradeReports(grades []models.Grade) []dto.GradeReport {
	sorted := make([]models.Grade, len(grades))
	copy(sorted, grades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return gradeSortKey(sorted[i]).After(gradeSortKey(sorted[j]))
	})

	reports := make([]dto.GradeReport, 0, len(sorted))
	for _, g := range sorted {
		report := dto.GradeReport{ExamName: g.ExamName, Date: g.Date, Subjects: g.Subjects}
		if avg, ok := g.Average(); ok {
			v := avg
			report.Average = &v
		}
		reports = append(reports, report)
	}
	return reports
}

func gradeSortKey(g models.Grade) time.Time {
	if t, err := time.Parse("2006-01-02", g.Date); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, g.Date); err == nil {
		return t
	}
	return time.Time{}
}
