package seating

import (
	"fmt"

	"github.com/seatwise/exam-seating-api/internal/models"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
)

// BuildSeatPool expands the ordered room configuration into a flat seat
// sequence: rooms are visited in caller order and seats numbered 1..capacity
// within each room. Room display labels carry the position ("Room 2 (3B)") so
// two rooms sharing a base label stay distinguishable on the printed plan.
// A fresh pool is built for every session slot; pools are never shared.
func BuildSeatPool(rooms []models.Room) ([]models.Seat, error) {
	if len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "at least one exam room is required")
	}
	total := 0
	for _, room := range rooms {
		if room.Capacity < 1 {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("room %q has non-positive capacity %d", room.Label, room.Capacity))
		}
		total += room.Capacity
	}

	pool := make([]models.Seat, 0, total)
	for i, room := range rooms {
		label := fmt.Sprintf("Room %d (%s)", i+1, room.Label)
		for number := 1; number <= room.Capacity; number++ {
			pool = append(pool, models.Seat{Room: label, Number: number})
		}
	}
	return pool, nil
}

// TotalCapacity sums the configured capacity across all rooms.
func TotalCapacity(rooms []models.Room) int {
	total := 0
	for _, room := range rooms {
		total += room.Capacity
	}
	return total
}
