package dto

import (
	"time"

	"github.com/seatwise/exam-seating-api/internal/models"
)

// SubjectScheduleRequest binds one subject to an exam slot.
type SubjectScheduleRequest struct {
	Subject string `json:"subject" validate:"required"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Session string `json:"session" validate:"required,oneof=Morning Afternoon Both"`
}

// RoomConfigRequest describes one examination room.
type RoomConfigRequest struct {
	Label    string `json:"label" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

// AllocateRequest captures POST /allocations payload.
type AllocateRequest struct {
	RosterID string                   `json:"rosterId" validate:"required"`
	Subjects []SubjectScheduleRequest `json:"subjects" validate:"required,min=1,dive"`
	Rooms    []RoomConfigRequest      `json:"rooms" validate:"required,min=1,dive"`
}

// AllocationRunResponse is returned for a completed allocation run.
type AllocationRunResponse struct {
	ID               string                     `json:"id"`
	RosterID         string                     `json:"rosterId"`
	Status           models.RunStatus           `json:"status"`
	TotalAssignments int                        `json:"totalAssignments"`
	TotalSeats       int                        `json:"totalSeats"`
	Assignments      []models.Assignment        `json:"assignments,omitempty"`
	Stats            map[string]models.SlotStats `json:"stats,omitempty"`
	Diagnostics      *models.Diagnostics        `json:"diagnostics,omitempty"`
	CreatedAt        time.Time                  `json:"createdAt"`
}

// AllocationRunSummary is the list-view projection of a run.
type AllocationRunSummary struct {
	ID               string           `json:"id"`
	RosterID         string           `json:"rosterId"`
	Status           models.RunStatus `json:"status"`
	TotalAssignments int              `json:"totalAssignments"`
	TotalSeats       int              `json:"totalSeats"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// RunStatsResponse exposes per-slot statistics for a run.
type RunStatsResponse struct {
	RunID string                     `json:"runId"`
	Stats map[string]models.SlotStats `json:"stats"`
}
