package models

// Enrollment is one (student, subject) pair derived from the roster. After
// session resolution it carries a concrete date and sitting.
type Enrollment struct {
	IndexNumber string  `json:"index_number"`
	FullName    string  `json:"full_name"`
	Class       string  `json:"class"`
	Subject     string  `json:"subject"`
	Date        string  `json:"date,omitempty"`
	Session     Session `json:"session,omitempty"`
}

// Slot returns the session slot the enrollment was resolved into.
func (e Enrollment) Slot() SessionSlot {
	return SessionSlot{Date: e.Date, Session: e.Session}
}

// Assignment seats one enrollment. Field values are carried through from the
// roster untouched.
type Assignment struct {
	Date        string  `db:"exam_date" json:"date"`
	Room        string  `db:"room" json:"room"`
	SeatNumber  int     `db:"seat_number" json:"seat_number"`
	IndexNumber string  `db:"index_number" json:"index_number"`
	FullName    string  `db:"full_name" json:"full_name"`
	Class       string  `db:"class" json:"class"`
	Subject     string  `db:"subject" json:"subject"`
	Session     Session `db:"session" json:"session"`
}

// SlotStats summarises occupancy for one seated slot. TotalSeats counts every
// configured seat for the run, not only rooms actually touched.
type SlotStats struct {
	TotalStudents int `json:"total_students"`
	TotalSeats    int `json:"total_seats"`
	RoomsUsed     int `json:"rooms_used"`
}

// SlotFailure reports a slot whose demand exceeded its seat pool. The slot
// contributes zero assignments; other slots are unaffected.
type SlotFailure struct {
	Date      string  `json:"date"`
	Session   Session `json:"session"`
	Required  int     `json:"required"`
	Available int     `json:"available"`
}

// Shortfall is the number of enrollments left without a seat.
func (f SlotFailure) Shortfall() int {
	return f.Required - f.Available
}

// Diagnostics collects non-fatal data quality findings from one run. Nothing is
// dropped without leaving a count here.
type Diagnostics struct {
	UnscheduledEnrollments  int           `json:"unscheduled_enrollments"`
	DuplicateEnrollments    int           `json:"duplicate_enrollments"`
	StudentsWithoutSubjects int           `json:"students_without_subjects"`
	FailedSlots             []SlotFailure `json:"failed_slots,omitempty"`
}

// AllocationResult is the full outcome of one allocation run. Assignments are
// ordered by slot (date ascending, morning first) and, within a slot, in seat
// order; Stats is keyed by SessionSlot.Key().
type AllocationResult struct {
	Assignments []Assignment         `json:"assignments"`
	Stats       map[string]SlotStats `json:"stats"`
	Diagnostics Diagnostics          `json:"diagnostics"`
}
