package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seatwise/exam-seating-api/internal/models"
)

// AllocationRunRepository persists allocation runs and their assignment tables.
type AllocationRunRepository struct {
	db *sqlx.DB
}

// NewAllocationRunRepository creates a new repository instance.
func NewAllocationRunRepository(db *sqlx.DB) *AllocationRunRepository {
	return &AllocationRunRepository{db: db}
}

type assignmentRow struct {
	RunID    string `db:"run_id"`
	Position int    `db:"position"`
	models.Assignment
}

// Create inserts the run and its assignments in one transaction. Assignment
// rows keep an explicit position so the deterministic engine order survives
// round-trips through the database.
func (r *AllocationRunRepository) Create(ctx context.Context, run *models.AllocationRun, assignments []models.Assignment) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.TotalAssignments = len(assignments)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const runQuery = `INSERT INTO allocation_runs (id, roster_id, status, total_assignments, total_seats, diagnostics, rooms, created_at)
VALUES (:id, :roster_id, :status, :total_assignments, :total_seats, :diagnostics, :rooms, :created_at)`
	if _, err = tx.NamedExecContext(ctx, runQuery, run); err != nil {
		return fmt.Errorf("create allocation run: %w", err)
	}

	if len(assignments) > 0 {
		rows := make([]assignmentRow, len(assignments))
		for i, assignment := range assignments {
			rows[i] = assignmentRow{RunID: run.ID, Position: i, Assignment: assignment}
		}
		const assignmentQuery = `INSERT INTO allocation_assignments (run_id, position, exam_date, room, seat_number, index_number, full_name, class, subject, session)
VALUES (:run_id, :position, :exam_date, :room, :seat_number, :index_number, :full_name, :class, :subject, :session)`
		if _, err = tx.NamedExecContext(ctx, assignmentQuery, rows); err != nil {
			return fmt.Errorf("create run assignments: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run transaction: %w", err)
	}
	return nil
}

// FindByID returns one run row.
func (r *AllocationRunRepository) FindByID(ctx context.Context, id string) (*models.AllocationRun, error) {
	const query = `SELECT id, roster_id, status, total_assignments, total_seats, diagnostics, rooms, created_at
FROM allocation_runs WHERE id = $1`
	var run models.AllocationRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, fmt.Errorf("get allocation run: %w", err)
	}
	return &run, nil
}

// List returns run history with pagination metadata, newest first.
func (r *AllocationRunRepository) List(ctx context.Context, filter models.RunFilter) ([]models.AllocationRun, int, error) {
	base := "FROM allocation_runs WHERE 1=1"
	var args []interface{}
	if filter.RosterID != "" {
		base += fmt.Sprintf(" AND roster_id = $%d", len(args)+1)
		args = append(args, filter.RosterID)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, roster_id, status, total_assignments, total_seats, diagnostics, rooms, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)
	var runs []models.AllocationRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list allocation runs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count allocation runs: %w", err)
	}
	return runs, total, nil
}

// ListAssignments returns a run's assignment table in engine output order.
func (r *AllocationRunRepository) ListAssignments(ctx context.Context, runID string) ([]models.Assignment, error) {
	const query = `SELECT exam_date, room, seat_number, index_number, full_name, class, subject, session
FROM allocation_assignments WHERE run_id = $1 ORDER BY position ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, runID); err != nil {
		return nil, fmt.Errorf("list run assignments: %w", err)
	}
	return assignments, nil
}
