package dto

import "time"

// RosterUploadResponse is returned after a roster file is ingested.
type RosterUploadResponse struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	StudentCount int       `json:"studentCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RosterDetailResponse adds derived roster metadata.
type RosterDetailResponse struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	StudentCount int       `json:"studentCount"`
	Classes      []string  `json:"classes"`
	Subjects     []string  `json:"subjects"`
	CreatedAt    time.Time `json:"createdAt"`
}
