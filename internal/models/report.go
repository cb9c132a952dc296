package models

import "time"

// ReportFormat enumerates supported report card render formats.
type ReportFormat string

const (
	ReportFormatPDF ReportFormat = "PDF"
	ReportFormatCSV ReportFormat = "CSV"
)

// ReportStatus tracks report job lifecycle.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusCompleted  ReportStatus = "COMPLETED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob is a queued report card generation task.
type ReportJob struct {
	ID           string       `json:"id"`
	StudentID    string       `json:"studentId"`
	ClassName    string       `json:"className"`
	Format       ReportFormat `json:"format"`
	Status       ReportStatus `json:"status"`
	CreatedBy    string       `json:"createdBy"`
	ResultPath   string       `json:"resultPath,omitempty"`
	DownloadURL  string       `json:"downloadUrl,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	ExpiresAt    *time.Time   `json:"expiresAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	FinishedAt   *time.Time   `json:"finishedAt,omitempty"`
}
