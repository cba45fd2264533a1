package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/exam-seating-api/internal/dto"
	"github.com/seatwise/exam-seating-api/internal/models"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
)

type runStoreStub struct {
	runs        map[string]*models.AllocationRun
	assignments map[string][]models.Assignment
}

func newRunStoreStub() *runStoreStub {
	return &runStoreStub{
		runs:        map[string]*models.AllocationRun{},
		assignments: map[string][]models.Assignment{},
	}
}

func (r *runStoreStub) Create(ctx context.Context, run *models.AllocationRun, assignments []models.Assignment) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.TotalAssignments = len(assignments)
	r.runs[run.ID] = run
	r.assignments[run.ID] = assignments
	return nil
}

func (r *runStoreStub) FindByID(ctx context.Context, id string) (*models.AllocationRun, error) {
	run, ok := r.runs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return run, nil
}

func (r *runStoreStub) List(ctx context.Context, filter models.RunFilter) ([]models.AllocationRun, int, error) {
	var all []models.AllocationRun
	for _, run := range r.runs {
		if filter.RosterID != "" && run.RosterID != filter.RosterID {
			continue
		}
		all = append(all, *run)
	}
	return all, len(all), nil
}

func (r *runStoreStub) ListAssignments(ctx context.Context, runID string) ([]models.Assignment, error) {
	return r.assignments[runID], nil
}

type cacheStub struct {
	values map[string]interface{}
	sets   int
}

func newCacheStub() *cacheStub {
	return &cacheStub{values: map[string]interface{}{}}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if stats, ok := value.(map[string]models.SlotStats); ok {
		if target, ok := dest.(*map[string]models.SlotStats); ok {
			*target = stats
			return nil
		}
	}
	return appErrors.ErrCacheMiss
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.values[key] = value
	c.sets++
	return nil
}

type observerStub struct {
	runs        int
	assignments int
	failures    int
}

func (o *observerStub) ObserveAllocationRun(status models.RunStatus, assignments, failedSlots int) {
	o.runs++
	o.assignments += assignments
	o.failures += failedSlots
}

func seedRoster(store *rosterStoreStub, students ...models.Student) string {
	roster := &models.Roster{ID: "roster-1", Filename: "roster.csv", StudentCount: len(students)}
	store.rosters[roster.ID] = roster
	store.students[roster.ID] = students
	return roster.ID
}

func newAllocationServiceForTest(t *testing.T) (*AllocationService, *rosterStoreStub, *runStoreStub, *cacheStub, *observerStub) {
	t.Helper()
	rosters := newRosterStoreStub()
	runs := newRunStoreStub()
	cache := newCacheStub()
	observer := &observerStub{}
	svc := NewAllocationService(rosters, runs, cache, observer, nil, nil, AllocationConfig{
		SlotWorkers:   2,
		StatsCacheTTL: time.Minute,
	})
	return svc, rosters, runs, cache, observer
}

func allocateRequest(rosterID string) dto.AllocateRequest {
	return dto.AllocateRequest{
		RosterID: rosterID,
		Subjects: []dto.SubjectScheduleRequest{
			{Subject: "Biology", Date: "2025-06-02", Session: "Morning"},
			{Subject: "Chemistry", Date: "2025-06-02", Session: "Afternoon"},
		},
		Rooms: []dto.RoomConfigRequest{{Label: "3A", Capacity: 10}},
	}
}

func TestAllocationServiceRunPersistsAndCaches(t *testing.T) {
	svc, rosters, runs, cache, observer := newAllocationServiceForTest(t)
	rosterID := seedRoster(rosters,
		models.Student{IndexNumber: "001", FullName: "Ama Mensah", Class: "3A", CoreSubjects: "Biology"},
		models.Student{IndexNumber: "002", FullName: "Kofi Boateng", Class: "3A", CoreSubjects: "Biology,Chemistry"},
	)

	resp, err := svc.Run(context.Background(), allocateRequest(rosterID))
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, resp.Status)
	assert.Equal(t, 3, resp.TotalAssignments)
	assert.Equal(t, 10, resp.TotalSeats)
	require.NotNil(t, resp.Diagnostics)
	assert.Empty(t, resp.Diagnostics.FailedSlots)

	stored, ok := runs.runs[resp.ID]
	require.True(t, ok)
	assert.Equal(t, rosterID, stored.RosterID)
	assert.Len(t, runs.assignments[resp.ID], 3)

	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, observer.runs)
	assert.Equal(t, 3, observer.assignments)
}

func TestAllocationServiceRunPartialOnCapacityShortfall(t *testing.T) {
	svc, rosters, _, _, observer := newAllocationServiceForTest(t)
	rosterID := seedRoster(rosters,
		models.Student{IndexNumber: "001", FullName: "Ama Mensah", Class: "3A", CoreSubjects: "Biology,Chemistry"},
		models.Student{IndexNumber: "002", FullName: "Kofi Boateng", Class: "3A", CoreSubjects: "Biology,Chemistry"},
	)

	req := dto.AllocateRequest{
		RosterID: rosterID,
		Subjects: []dto.SubjectScheduleRequest{
			{Subject: "Biology", Date: "2025-06-02", Session: "Morning"},
			{Subject: "Chemistry", Date: "2025-06-02", Session: "Morning"},
		},
		Rooms: []dto.RoomConfigRequest{{Label: "3A", Capacity: 3}},
	}
	resp, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPartial, resp.Status)
	assert.Empty(t, resp.Assignments)
	require.Len(t, resp.Diagnostics.FailedSlots, 1)
	assert.Equal(t, 4, resp.Diagnostics.FailedSlots[0].Required)
	assert.Equal(t, 3, resp.Diagnostics.FailedSlots[0].Available)
	assert.Equal(t, 1, observer.failures)
}

func TestAllocationServiceRunRosterNotFound(t *testing.T) {
	svc, _, _, _, _ := newAllocationServiceForTest(t)

	_, err := svc.Run(context.Background(), allocateRequest("missing"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceRunEmptyRoster(t *testing.T) {
	svc, rosters, _, _, _ := newAllocationServiceForTest(t)
	rosterID := seedRoster(rosters)

	_, err := svc.Run(context.Background(), allocateRequest(rosterID))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceRunRejectsDuplicateSubject(t *testing.T) {
	svc, rosters, _, _, _ := newAllocationServiceForTest(t)
	rosterID := seedRoster(rosters, models.Student{IndexNumber: "001", FullName: "Ama Mensah", CoreSubjects: "Biology"})

	req := dto.AllocateRequest{
		RosterID: rosterID,
		Subjects: []dto.SubjectScheduleRequest{
			{Subject: "Biology", Date: "2025-06-02", Session: "Morning"},
			{Subject: "Biology", Date: "2025-06-03", Session: "Morning"},
		},
		Rooms: []dto.RoomConfigRequest{{Label: "3A", Capacity: 10}},
	}
	_, err := svc.Run(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceRunRejectsInvalidPayload(t *testing.T) {
	svc, _, _, _, _ := newAllocationServiceForTest(t)

	_, err := svc.Run(context.Background(), dto.AllocateRequest{RosterID: "roster-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceStatsPrefersCache(t *testing.T) {
	svc, _, runs, cache, _ := newAllocationServiceForTest(t)
	cached := map[string]models.SlotStats{
		"2025-06-02 Morning": {TotalStudents: 5, TotalSeats: 10, RoomsUsed: 1},
	}
	cache.values["seating:stats:run-1"] = cached

	resp, err := svc.Stats(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, cached, resp.Stats)
	assert.Empty(t, runs.runs)
}

func TestAllocationServiceStatsFallsBackToRun(t *testing.T) {
	svc, _, runs, cache, _ := newAllocationServiceForTest(t)
	stats := map[string]models.SlotStats{
		"2025-06-02 Morning": {TotalStudents: 2, TotalSeats: 10, RoomsUsed: 1},
	}
	runs.runs["run-1"] = &models.AllocationRun{
		ID:          "run-1",
		Status:      models.RunStatusCompleted,
		Diagnostics: models.RunMeta{Stats: stats},
	}

	resp, err := svc.Stats(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, stats, resp.Stats)
	assert.Equal(t, 1, cache.sets)
}

func TestAllocationServiceGetNotFound(t *testing.T) {
	svc, _, _, _, _ := newAllocationServiceForTest(t)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
