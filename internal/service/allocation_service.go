package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seatwise/exam-seating-api/internal/dto"
	"github.com/seatwise/exam-seating-api/internal/models"
	"github.com/seatwise/exam-seating-api/internal/repository"
	"github.com/seatwise/exam-seating-api/internal/seating"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
)

type rosterReader interface {
	FindByID(ctx context.Context, id string) (*models.Roster, error)
	ListStudents(ctx context.Context, rosterID string) ([]models.Student, error)
}

type runStore interface {
	Create(ctx context.Context, run *models.AllocationRun, assignments []models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.AllocationRun, error)
	List(ctx context.Context, filter models.RunFilter) ([]models.AllocationRun, int, error)
	ListAssignments(ctx context.Context, runID string) ([]models.Assignment, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type allocationObserver interface {
	ObserveAllocationRun(status models.RunStatus, assignments, failedSlots int)
}

// AllocationConfig tunes the allocation service.
type AllocationConfig struct {
	SlotWorkers   int
	StatsCacheTTL time.Duration
}

// AllocationService runs the seating engine against stored rosters and keeps
// the run history.
type AllocationService struct {
	rosters   rosterReader
	runs      runStore
	cache     statsCache
	metrics   allocationObserver
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AllocationConfig
}

// NewAllocationService constructs an AllocationService instance.
func NewAllocationService(rosters rosterReader, runs runStore, cache statsCache, metrics allocationObserver, validate *validator.Validate, logger *zap.Logger, cfg AllocationConfig) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = 15 * time.Minute
	}
	return &AllocationService{
		rosters:   rosters,
		runs:      runs,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run executes one allocation pass and persists the result.
func (s *AllocationService) Run(ctx context.Context, req dto.AllocateRequest) (*dto.AllocationRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}

	schedule := make(map[string]models.ExamSlot, len(req.Subjects))
	for _, subject := range req.Subjects {
		if _, exists := schedule[subject.Subject]; exists {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("subject %q is scheduled more than once", subject.Subject))
		}
		schedule[subject.Subject] = models.ExamSlot{
			Date:    subject.Date,
			Session: models.Session(subject.Session),
		}
	}
	rooms := make([]models.Room, len(req.Rooms))
	for i, room := range req.Rooms {
		rooms[i] = models.Room{Label: room.Label, Capacity: room.Capacity}
	}

	roster, err := s.rosters.FindByID(ctx, req.RosterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "roster not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	students, err := s.rosters.ListStudents(ctx, roster.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster students")
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "roster has no students to allocate")
	}

	result, err := seating.Allocate(students, schedule, rooms, seating.Options{Workers: s.cfg.SlotWorkers})
	if err != nil {
		return nil, err
	}

	status := models.RunStatusCompleted
	if len(result.Diagnostics.FailedSlots) > 0 {
		status = models.RunStatusPartial
	}

	run := &models.AllocationRun{
		RosterID:   roster.ID,
		Status:     status,
		TotalSeats: seating.TotalCapacity(rooms),
		Diagnostics: models.RunMeta{
			Diagnostics: result.Diagnostics,
			Stats:       result.Stats,
		},
		Rooms: rooms,
	}
	if err := s.runs.Create(ctx, run, result.Assignments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store allocation run")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, repository.StatsCacheKey(run.ID), result.Stats, s.cfg.StatsCacheTTL); err != nil {
			s.logger.Warn("failed to cache run statistics", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveAllocationRun(status, len(result.Assignments), len(result.Diagnostics.FailedSlots))
	}

	s.logger.Info("allocation run finished",
		zap.String("run_id", run.ID),
		zap.String("roster_id", roster.ID),
		zap.String("status", string(status)),
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("failed_slots", len(result.Diagnostics.FailedSlots)))

	return &dto.AllocationRunResponse{
		ID:               run.ID,
		RosterID:         run.RosterID,
		Status:           run.Status,
		TotalAssignments: run.TotalAssignments,
		TotalSeats:       run.TotalSeats,
		Assignments:      result.Assignments,
		Stats:            result.Stats,
		Diagnostics:      &result.Diagnostics,
		CreatedAt:        run.CreatedAt,
	}, nil
}

// Get returns a stored run with its full assignment table.
func (s *AllocationService) Get(ctx context.Context, id string) (*dto.AllocationRunResponse, error) {
	run, err := s.loadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	assignments, err := s.runs.ListAssignments(ctx, run.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load run assignments")
	}
	diagnostics := run.Diagnostics.Diagnostics
	return &dto.AllocationRunResponse{
		ID:               run.ID,
		RosterID:         run.RosterID,
		Status:           run.Status,
		TotalAssignments: run.TotalAssignments,
		TotalSeats:       run.TotalSeats,
		Assignments:      assignments,
		Stats:            run.Diagnostics.Stats,
		Diagnostics:      &diagnostics,
		CreatedAt:        run.CreatedAt,
	}, nil
}

// List returns run history pages.
func (s *AllocationService) List(ctx context.Context, filter models.RunFilter) ([]dto.AllocationRunSummary, *models.Pagination, error) {
	runs, total, err := s.runs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allocation runs")
	}
	summaries := make([]dto.AllocationRunSummary, len(runs))
	for i, run := range runs {
		summaries[i] = dto.AllocationRunSummary{
			ID:               run.ID,
			RosterID:         run.RosterID,
			Status:           run.Status,
			TotalAssignments: run.TotalAssignments,
			TotalSeats:       run.TotalSeats,
			CreatedAt:        run.CreatedAt,
		}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return summaries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Stats returns per-slot statistics for a run, preferring the cache.
func (s *AllocationService) Stats(ctx context.Context, runID string) (*dto.RunStatsResponse, error) {
	if s.cache != nil {
		var cached map[string]models.SlotStats
		if err := s.cache.Get(ctx, repository.StatsCacheKey(runID), &cached); err == nil {
			return &dto.RunStatsResponse{RunID: runID, Stats: cached}, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache lookup failed", zap.String("run_id", runID), zap.Error(err))
		}
	}

	run, err := s.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	stats := run.Diagnostics.Stats
	if stats == nil {
		stats = map[string]models.SlotStats{}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, repository.StatsCacheKey(runID), stats, s.cfg.StatsCacheTTL); err != nil {
			s.logger.Warn("failed to cache run statistics", zap.String("run_id", runID), zap.Error(err))
		}
	}
	return &dto.RunStatsResponse{RunID: runID, Stats: stats}, nil
}

func (s *AllocationService) loadRun(ctx context.Context, id string) (*models.AllocationRun, error) {
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation run")
	}
	return run, nil
}
