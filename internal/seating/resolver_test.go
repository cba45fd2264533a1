package seating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/exam-seating-api/internal/models"
)

func TestResolveSessionsAttachesDateAndSession(t *testing.T) {
	rows := []models.Enrollment{
		{IndexNumber: "001", Subject: "Biology"},
	}
	schedule := map[string]models.ExamSlot{
		"Biology": {Date: "2025-06-01", Session: models.SessionAfternoon},
	}
	resolved, unscheduled := ResolveSessions(rows, schedule)
	require.Len(t, resolved, 1)
	assert.Zero(t, unscheduled)
	assert.Equal(t, "2025-06-01", resolved[0].Date)
	assert.Equal(t, models.SessionAfternoon, resolved[0].Session)
}

func TestResolveSessionsDropsAndCountsUnscheduled(t *testing.T) {
	rows := []models.Enrollment{
		{IndexNumber: "001", Subject: "Biology"},
		{IndexNumber: "001", Subject: "French"},
		{IndexNumber: "002", Subject: "French"},
	}
	schedule := map[string]models.ExamSlot{
		"Biology": {Date: "2025-06-01", Session: models.SessionMorning},
	}
	resolved, unscheduled := ResolveSessions(rows, schedule)
	assert.Len(t, resolved, 1)
	assert.Equal(t, 2, unscheduled)
}

func TestResolveSessionsSplitsBothIntoTwoRows(t *testing.T) {
	rows := []models.Enrollment{
		{IndexNumber: "001", Subject: "English"},
		{IndexNumber: "002", Subject: "English"},
		{IndexNumber: "003", Subject: "English"},
	}
	schedule := map[string]models.ExamSlot{
		"English": {Date: "2025-06-02", Session: models.SessionBoth},
	}
	resolved, _ := ResolveSessions(rows, schedule)
	require.Len(t, resolved, 6)
	morning, afternoon := 0, 0
	for _, row := range resolved {
		require.True(t, row.Session.Concrete())
		assert.Equal(t, "2025-06-02", row.Date)
		switch row.Session {
		case models.SessionMorning:
			morning++
		case models.SessionAfternoon:
			afternoon++
		}
	}
	assert.Equal(t, 3, morning)
	assert.Equal(t, 3, afternoon)
}
