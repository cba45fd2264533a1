package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/exam-seating-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRosterRepositoryCreateWithStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rosters").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	roster := &models.Roster{Filename: "roster.xlsx"}
	students := []models.Student{
		{IndexNumber: "001", FullName: "Ama Mensah", Class: "3A", CoreSubjects: "Biology"},
		{IndexNumber: "002", FullName: "Kofi Boateng", Class: "3B", CoreSubjects: "Chemistry"},
	}
	err := repo.CreateWithStudents(context.Background(), roster, students)
	require.NoError(t, err)
	assert.NotEmpty(t, roster.ID)
	assert.Equal(t, 2, roster.StudentCount)
	assert.Equal(t, roster.ID, students[0].RosterID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryCreateRollsBackOnStudentFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rosters").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO students").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateWithStudents(context.Background(), &models.Roster{Filename: "bad.csv"}, []models.Student{
		{IndexNumber: "001", FullName: "Ama Mensah", Class: "3A"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "filename", "student_count", "created_at"}).
		AddRow("roster-1", "roster.xlsx", 42, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, filename, student_count, created_at FROM rosters WHERE id = $1")).
		WithArgs("roster-1").
		WillReturnRows(rows)

	roster, err := repo.FindByID(context.Background(), "roster-1")
	require.NoError(t, err)
	assert.Equal(t, "roster.xlsx", roster.Filename)
	assert.Equal(t, 42, roster.StudentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryListStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "roster_id", "index_number", "full_name", "class", "gender", "core_subjects", "elective_subjects", "created_at"}).
		AddRow("s1", "roster-1", "001", "Ama Mensah", "3A", "F", "Biology,Chemistry", "Art", time.Now())
	mock.ExpectQuery("SELECT id, roster_id, index_number").
		WithArgs("roster-1").
		WillReturnRows(rows)

	students, err := repo.ListStudents(context.Background(), "roster-1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "001", students[0].IndexNumber)
	assert.Equal(t, "Biology,Chemistry", students[0].CoreSubjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}
