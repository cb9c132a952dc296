package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edulink-id/parent-portal-api/internal/models"
	"github.com/edulink-id/parent-portal-api/pkg/export"
	"github.com/edulink-id/parent-portal-api/pkg/storage"
)

type studentGetter interface {
	Get(ctx context.Context, className, id string) (*models.Student, error)
}

type attendanceLister interface {
	ListForStudent(ctx context.Context, className, studentID string) ([]models.AttendanceRecord, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report card datasets and persists rendered files.
type ExportService struct {
	students   studentGetter
	attendance attendanceLister
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(students studentGetter, attendance attendanceLister, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		students:   students,
		attendance: attendance,
		storage:    files,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate builds the report card dataset for the job's student and stores
// the rendered file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	student, err := s.students.Get(ctx, job.ClassName, job.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load student %s: %w", job.StudentID, err)
	}
	records, err := s.attendance.ListForStudent(ctx, job.ClassName, job.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	dataset := buildReportCardDataset(student, records)
	title := fmt.Sprintf("Report Card - %s (%s)", student.Name, student.ClassName)

	var payload []byte
	switch job.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("report-%s-%s.%s", job.StudentID, time.Now().UTC().Format("20060102T150405"), strings.ToLower(string(job.Format)))
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// Open returns the stored artifact for download handlers.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Remove deletes a stored artifact. Missing files are not an error.
func (s *ExportService) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	if err := s.storage.Delete(relPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// buildReportCardDataset renders exams as rows with one column per subject
// seen across the exams, plus the computed average and an attendance
// summary block.
func buildReportCardDataset(student *models.Student, records []models.AttendanceRecord) export.Dataset {
	subjectSet := map[string]bool{}
	for _, g := range student.Grades {
		for name := range g.Subjects {
			subjectSet[name] = true
		}
	}
	subjects := make([]string, 0, len(subjectSet))
	for name := range subjectSet {
		subjects = append(subjects, name)
	}
	sort.Strings(subjects)

	headers := append([]string{"Exam", "Date"}, subjects...)
	headers = append(headers, "Average")

	reports := BuildGradeReports(student.Grades)
	rows := make([]map[string]string, 0, len(reports)+2)
	for _, report := range reports {
		row := map[string]string{"Exam": report.ExamName, "Date": report.Date}
		for _, subject := range subjects {
			row[subject] = report.Subjects[subject]
		}
		if report.Average != nil {
			row["Average"] = fmt.Sprintf("%.1f", *report.Average)
		} else {
			row["Average"] = "-"
		}
		rows = append(rows, row)
	}

	var present, halfday, absent int
	for _, rec := range records {
		switch rec.Status {
		case models.AttendanceStatusPresent:
			present++
		case models.AttendanceStatusHalfday:
			halfday++
		case models.AttendanceStatusAbsent:
			absent++
		}
	}
	rows = append(rows, map[string]string{
		"Exam": "Attendance",
		"Date": fmt.Sprintf("Present %d / Halfday %d / Absent %d", present, halfday, absent),
	})

	return export.Dataset{Headers: headers, Rows: rows}
}
