package seating

import (
	"strings"

	"github.com/seatwise/exam-seating-api/internal/models"
)

// ExpandStats reports what the expander dropped while flattening the roster.
type ExpandStats struct {
	// DuplicateEnrollments counts subjects listed in both a student's core and
	// elective text. The pair is seated once; the surplus row is dropped here
	// so the administrator can fix the roster.
	DuplicateEnrollments int
	// StudentsWithoutSubjects counts roster rows whose subject fields held no
	// usable token at all.
	StudentsWithoutSubjects int
}

// Expand flattens each student's comma-joined subject text into one enrollment
// per (student, subject) pair. Tokens are whitespace-trimmed; empty tokens
// contribute nothing. A subject repeated across the core and elective lists is
// deduplicated so no student is seated twice for the same paper.
func Expand(students []models.Student) ([]models.Enrollment, ExpandStats) {
	var stats ExpandStats
	enrollments := make([]models.Enrollment, 0, len(students)*4)

	for _, student := range students {
		seen := make(map[string]bool)
		count := 0
		for _, subject := range SplitSubjects(student.CoreSubjects, student.ElectiveSubjects) {
			if seen[subject] {
				stats.DuplicateEnrollments++
				continue
			}
			seen[subject] = true
			count++
			enrollments = append(enrollments, models.Enrollment{
				IndexNumber: student.IndexNumber,
				FullName:    student.FullName,
				Class:       student.Class,
				Subject:     subject,
			})
		}
		if count == 0 {
			stats.StudentsWithoutSubjects++
		}
	}
	return enrollments, stats
}

// SplitSubjects tokenizes comma-joined subject lists, trimming whitespace and
// skipping empty tokens.
func SplitSubjects(lists ...string) []string {
	var subjects []string
	for _, list := range lists {
		for _, token := range strings.Split(list, ",") {
			if trimmed := strings.TrimSpace(token); trimmed != "" {
				subjects = append(subjects, trimmed)
			}
		}
	}
	return subjects
}
