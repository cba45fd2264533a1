package seating

import "github.com/seatwise/exam-seating-api/internal/models"

// ResolveSessions attaches each enrollment's scheduled date and session.
// Enrollments whose subject is absent from the schedule are dropped and
// counted, never failed on: an unscheduled subject is a data quality finding,
// not a configuration error. Subjects scheduled for both sittings are split
// into two independent enrollments sharing the date, since the two slots never
// overlap in time and each owns a full seat pool.
func ResolveSessions(enrollments []models.Enrollment, schedule map[string]models.ExamSlot) ([]models.Enrollment, int) {
	resolved := make([]models.Enrollment, 0, len(enrollments))
	unscheduled := 0

	for _, enrollment := range enrollments {
		slot, ok := schedule[enrollment.Subject]
		if !ok {
			unscheduled++
			continue
		}
		if slot.Session == models.SessionBoth {
			morning := enrollment
			morning.Date = slot.Date
			morning.Session = models.SessionMorning
			afternoon := enrollment
			afternoon.Date = slot.Date
			afternoon.Session = models.SessionAfternoon
			resolved = append(resolved, morning, afternoon)
			continue
		}
		enrollment.Date = slot.Date
		enrollment.Session = slot.Session
		resolved = append(resolved, enrollment)
	}
	return resolved, unscheduled
}
