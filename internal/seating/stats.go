package seating

import "github.com/seatwise/exam-seating-api/internal/models"

// AggregateStats summarises occupancy per seated slot. totalSeats is the full
// configured capacity of the run, not only rooms the slot actually touched, so
// administrators can read headroom directly. Failed slots produced no
// assignments and therefore have no entry.
func AggregateStats(assignments []models.Assignment, totalSeats int) map[string]models.SlotStats {
	stats := make(map[string]models.SlotStats)
	roomsSeen := make(map[string]map[string]bool)

	for _, assignment := range assignments {
		key := models.SessionSlot{Date: assignment.Date, Session: assignment.Session}.Key()
		entry := stats[key]
		entry.TotalStudents++
		entry.TotalSeats = totalSeats
		if roomsSeen[key] == nil {
			roomsSeen[key] = make(map[string]bool)
		}
		if !roomsSeen[key][assignment.Room] {
			roomsSeen[key][assignment.Room] = true
			entry.RoomsUsed++
		}
		stats[key] = entry
	}
	return stats
}
