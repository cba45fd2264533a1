package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seatwise/exam-seating-api/internal/models"
)

// RosterRepository persists uploaded rosters and their students.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository creates a new repository instance.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// CreateWithStudents inserts the roster and its student rows in one
// transaction, preserving upload order.
func (r *RosterRepository) CreateWithStudents(ctx context.Context, roster *models.Roster, students []models.Student) error {
	if roster.ID == "" {
		roster.ID = uuid.NewString()
	}
	if roster.CreatedAt.IsZero() {
		roster.CreatedAt = time.Now().UTC()
	}
	roster.StudentCount = len(students)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const rosterQuery = `INSERT INTO rosters (id, filename, student_count, created_at)
VALUES (:id, :filename, :student_count, :created_at)`
	if _, err = tx.NamedExecContext(ctx, rosterQuery, roster); err != nil {
		return fmt.Errorf("create roster: %w", err)
	}

	const studentQuery = `INSERT INTO students (id, roster_id, index_number, full_name, class, gender, core_subjects, elective_subjects, created_at)
VALUES (:id, :roster_id, :index_number, :full_name, :class, :gender, :core_subjects, :elective_subjects, :created_at)`
	for i := range students {
		students[i].RosterID = roster.ID
		if students[i].ID == "" {
			students[i].ID = uuid.NewString()
		}
		if students[i].CreatedAt.IsZero() {
			students[i].CreatedAt = roster.CreatedAt
		}
	}
	if len(students) > 0 {
		if _, err = tx.NamedExecContext(ctx, studentQuery, students); err != nil {
			return fmt.Errorf("create roster students: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit roster transaction: %w", err)
	}
	return nil
}

// FindByID returns one roster row.
func (r *RosterRepository) FindByID(ctx context.Context, id string) (*models.Roster, error) {
	const query = `SELECT id, filename, student_count, created_at FROM rosters WHERE id = $1`
	var roster models.Roster
	if err := r.db.GetContext(ctx, &roster, query, id); err != nil {
		return nil, fmt.Errorf("get roster: %w", err)
	}
	return &roster, nil
}

// List returns rosters with pagination metadata, newest first.
func (r *RosterRepository) List(ctx context.Context, filter models.RosterFilter) ([]models.Roster, int, error) {
	base := "FROM rosters WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(filename) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT id, filename, student_count, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)
	var rosters []models.Roster
	if err := r.db.SelectContext(ctx, &rosters, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rosters: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rosters: %w", err)
	}
	return rosters, total, nil
}

// ListStudents returns a roster's students in upload order.
func (r *RosterRepository) ListStudents(ctx context.Context, rosterID string) ([]models.Student, error) {
	const query = `SELECT id, roster_id, index_number, full_name, class, gender, core_subjects, elective_subjects, created_at
FROM students WHERE roster_id = $1 ORDER BY created_at ASC, index_number ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, rosterID); err != nil {
		return nil, fmt.Errorf("list roster students: %w", err)
	}
	return students, nil
}

// Delete removes a roster and cascades to its students.
func (r *RosterRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM rosters WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete roster: %w", err)
	}
	return nil
}
