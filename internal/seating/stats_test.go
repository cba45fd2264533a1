package seating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/exam-seating-api/internal/models"
)

func TestAggregateStatsPerSlot(t *testing.T) {
	assignments := []models.Assignment{
		{Date: "2025-06-01", Session: models.SessionMorning, Room: "Room 1 (3A)", SeatNumber: 1},
		{Date: "2025-06-01", Session: models.SessionMorning, Room: "Room 1 (3A)", SeatNumber: 2},
		{Date: "2025-06-01", Session: models.SessionMorning, Room: "Room 2 (3B)", SeatNumber: 1},
		{Date: "2025-06-01", Session: models.SessionAfternoon, Room: "Room 1 (3A)", SeatNumber: 1},
	}
	stats := AggregateStats(assignments, 60)
	require.Len(t, stats, 2)

	morning := stats[models.SessionSlot{Date: "2025-06-01", Session: models.SessionMorning}.Key()]
	assert.Equal(t, 3, morning.TotalStudents)
	assert.Equal(t, 60, morning.TotalSeats)
	assert.Equal(t, 2, morning.RoomsUsed)

	afternoon := stats[models.SessionSlot{Date: "2025-06-01", Session: models.SessionAfternoon}.Key()]
	assert.Equal(t, 1, afternoon.TotalStudents)
	assert.Equal(t, 60, afternoon.TotalSeats)
	assert.Equal(t, 1, afternoon.RoomsUsed)
}

func TestAggregateStatsEmptyInput(t *testing.T) {
	stats := AggregateStats(nil, 30)
	assert.Empty(t, stats)
}
