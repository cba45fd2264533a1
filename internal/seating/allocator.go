package seating

import (
	"fmt"
	"sort"
	"sync"

	"github.com/seatwise/exam-seating-api/internal/models"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
)

// Options tunes one allocation pass.
type Options struct {
	// Workers bounds concurrent slot allocation. Session slots own disjoint
	// seat pools and enrollment subsets, so they run without locking; results
	// are still merged in deterministic slot order. Zero or one keeps the pass
	// fully synchronous. A slot runs to completion once started.
	Workers int
}

// Allocate is the core engine: it expands the roster into enrollments, resolves
// exam sessions, and greedily seats every session slot against its own seat
// pool. Subjects fill the pool in descending popularity (ties broken by subject
// name) so each subject's students sit contiguously for supervision; within a
// subject, students are seated in ascending index number order.
//
// Configuration problems abort the whole run with zero output. A slot whose
// demand exceeds its pool fails alone: it contributes no assignments and is
// reported in the diagnostics while every other slot proceeds.
//
// Two calls with identical roster, schedule, and room order produce an
// identical assignment table.
func Allocate(students []models.Student, schedule map[string]models.ExamSlot, rooms []models.Room, opts Options) (*models.AllocationResult, error) {
	if len(schedule) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "no subjects selected for the exam")
	}
	for subject, slot := range schedule {
		if slot.Date == "" {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("subject %q has no exam date", subject))
		}
		if slot.Session != models.SessionMorning && slot.Session != models.SessionAfternoon && slot.Session != models.SessionBoth {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("subject %q has invalid session %q", subject, slot.Session))
		}
	}
	if _, err := BuildSeatPool(rooms); err != nil {
		return nil, err
	}
	for _, student := range students {
		if student.IndexNumber == "" || student.FullName == "" {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, "roster rows must carry an index number and full name")
		}
	}

	enrollments, expandStats := Expand(students)
	resolved, unscheduled := ResolveSessions(enrollments, schedule)

	result := &models.AllocationResult{
		Assignments: []models.Assignment{},
		Diagnostics: models.Diagnostics{
			UnscheduledEnrollments:  unscheduled,
			DuplicateEnrollments:    expandStats.DuplicateEnrollments,
			StudentsWithoutSubjects: expandStats.StudentsWithoutSubjects,
		},
	}

	bySlot := make(map[models.SessionSlot][]models.Enrollment)
	for _, enrollment := range resolved {
		slot := enrollment.Slot()
		bySlot[slot] = append(bySlot[slot], enrollment)
	}
	slots := make([]models.SessionSlot, 0, len(bySlot))
	for slot := range bySlot {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })

	seated := make([][]models.Assignment, len(slots))
	failures := make([]*models.SlotFailure, len(slots))
	runSlot := func(i int) {
		seated[i], failures[i] = allocateSlot(slots[i], bySlot[slots[i]], rooms)
	}

	if opts.Workers > 1 {
		indices := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < opts.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indices {
					runSlot(i)
				}
			}()
		}
		for i := range slots {
			indices <- i
		}
		close(indices)
		wg.Wait()
	} else {
		for i := range slots {
			runSlot(i)
		}
	}

	for i := range slots {
		if failures[i] != nil {
			result.Diagnostics.FailedSlots = append(result.Diagnostics.FailedSlots, *failures[i])
			continue
		}
		result.Assignments = append(result.Assignments, seated[i]...)
	}
	result.Stats = AggregateStats(result.Assignments, TotalCapacity(rooms))
	return result, nil
}

// allocateSlot seats one session slot against a fresh pool. The slot either
// seats every enrollment or none: a partial slot would strand students on exam
// day, so exhaustion discards the slot's tentative assignments entirely.
func allocateSlot(slot models.SessionSlot, enrollments []models.Enrollment, rooms []models.Room) ([]models.Assignment, *models.SlotFailure) {
	pool, err := BuildSeatPool(rooms)
	if err != nil {
		// Room configuration is validated before slots run.
		return nil, &models.SlotFailure{Date: slot.Date, Session: slot.Session, Required: len(enrollments)}
	}
	if len(enrollments) > len(pool) {
		return nil, &models.SlotFailure{
			Date:      slot.Date,
			Session:   slot.Session,
			Required:  len(enrollments),
			Available: len(pool),
		}
	}

	counts := make(map[string]int)
	bySubject := make(map[string][]models.Enrollment)
	for _, enrollment := range enrollments {
		counts[enrollment.Subject]++
		bySubject[enrollment.Subject] = append(bySubject[enrollment.Subject], enrollment)
	}
	subjects := make([]string, 0, len(counts))
	for subject := range counts {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if counts[subjects[i]] != counts[subjects[j]] {
			return counts[subjects[i]] > counts[subjects[j]]
		}
		return subjects[i] < subjects[j]
	})

	assignments := make([]models.Assignment, 0, len(enrollments))
	next := 0
	for _, subject := range subjects {
		rows := bySubject[subject]
		sort.Slice(rows, func(i, j int) bool {
			return compareIndexNumbers(rows[i].IndexNumber, rows[j].IndexNumber) < 0
		})
		for _, row := range rows {
			seat := pool[next]
			next++
			assignments = append(assignments, models.Assignment{
				Date:        slot.Date,
				Room:        seat.Room,
				SeatNumber:  seat.Number,
				IndexNumber: row.IndexNumber,
				FullName:    row.FullName,
				Class:       row.Class,
				Subject:     row.Subject,
				Session:     slot.Session,
			})
		}
	}
	return assignments, nil
}
