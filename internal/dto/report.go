package dto

import (
	"time"

	"github.com/edulink-id/parent-portal-api/internal/models"
)

// ReportCardRequest asks for a rendered report card of the caller's child.
type ReportCardRequest struct {
	Format string `json:"format" validate:"required,oneof=PDF CSV pdf csv"`
}

// ReportJobResponse acknowledges a queued report job.
type ReportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ReportStatus `json:"status"`
}

// ReportStatusResponse exposes job progress and, once completed, the signed
// download URL.
type ReportStatusResponse struct {
	ID           string              `json:"id"`
	Status       models.ReportStatus `json:"status"`
	DownloadURL  string              `json:"downloadUrl,omitempty"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
	ExpiresAt    *time.Time          `json:"expiresAt,omitempty"`
}
