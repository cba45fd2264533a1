package dto

import "github.com/seatwise/exam-seating-api/internal/models"

// ExportRequest captures POST /exports payload.
type ExportRequest struct {
	RunID  string              `json:"runId" validate:"required"`
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf classlist_pdf xlsx"`
	Date   string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
