package models

import "time"

// Student represents one roster row as uploaded by an administrator.
// IndexNumber is kept as a raw string so zero-padded identifiers survive intact.
type Student struct {
	ID               string    `db:"id" json:"id"`
	RosterID         string    `db:"roster_id" json:"roster_id"`
	IndexNumber      string    `db:"index_number" json:"index_number"`
	FullName         string    `db:"full_name" json:"full_name"`
	Class            string    `db:"class" json:"class"`
	Gender           string    `db:"gender" json:"gender,omitempty"`
	CoreSubjects     string    `db:"core_subjects" json:"core_subjects"`
	ElectiveSubjects string    `db:"elective_subjects" json:"elective_subjects"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Roster groups the students of one uploaded file.
type Roster struct {
	ID           string    `db:"id" json:"id"`
	Filename     string    `db:"filename" json:"filename"`
	StudentCount int       `db:"student_count" json:"student_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RosterFilter captures supported filters for listing rosters.
type RosterFilter struct {
	Search   string
	Page     int
	PageSize int
}
