package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/seatwise/exam-seating-api/internal/dto"
	"github.com/seatwise/exam-seating-api/internal/models"
	"github.com/seatwise/exam-seating-api/internal/seating"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
)

type rosterStore interface {
	CreateWithStudents(ctx context.Context, roster *models.Roster, students []models.Student) error
	FindByID(ctx context.Context, id string) (*models.Roster, error)
	List(ctx context.Context, filter models.RosterFilter) ([]models.Roster, int, error)
	ListStudents(ctx context.Context, rosterID string) ([]models.Student, error)
	Delete(ctx context.Context, id string) error
}

// Column headers a roster file must carry. Matching is tolerant of case,
// spaces, and underscores.
var requiredRosterColumns = []string{"indexnumber", "fullname", "class", "coresubjects", "electivesubjects"}

var rosterColumnFields = map[string]func(*models.Student, string){
	"indexnumber":      func(s *models.Student, v string) { s.IndexNumber = v },
	"fullname":         func(s *models.Student, v string) { s.FullName = v },
	"name":             func(s *models.Student, v string) { s.FullName = v },
	"class":            func(s *models.Student, v string) { s.Class = v },
	"gender":           func(s *models.Student, v string) { s.Gender = v },
	"coresubjects":     func(s *models.Student, v string) { s.CoreSubjects = v },
	"electivesubjects": func(s *models.Student, v string) { s.ElectiveSubjects = v },
}

// RosterService ingests student roster files and serves roster metadata.
type RosterService struct {
	repo      rosterStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs a RosterService instance.
func NewRosterService(repo rosterStore, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RosterService{repo: repo, validator: validate, logger: logger}
}

// Upload parses a CSV or XLSX roster file and persists its students.
func (s *RosterService) Upload(ctx context.Context, filename string, file io.Reader) (*dto.RosterUploadResponse, error) {
	rows, err := readTable(filename, file)
	if err != nil {
		return nil, err
	}

	students, err := rowsToStudents(rows)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roster file contains no student rows")
	}

	roster := &models.Roster{Filename: filepath.Base(filename)}
	if err := s.repo.CreateWithStudents(ctx, roster, students); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store roster")
	}

	s.logger.Info("roster ingested",
		zap.String("roster_id", roster.ID),
		zap.String("filename", roster.Filename),
		zap.Int("students", roster.StudentCount))

	return &dto.RosterUploadResponse{
		ID:           roster.ID,
		Filename:     roster.Filename,
		StudentCount: roster.StudentCount,
		CreatedAt:    roster.CreatedAt,
	}, nil
}

// Get returns roster metadata with the distinct classes and subjects derived
// from its students.
func (s *RosterService) Get(ctx context.Context, id string) (*dto.RosterDetailResponse, error) {
	roster, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "roster not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	students, err := s.repo.ListStudents(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster students")
	}

	return &dto.RosterDetailResponse{
		ID:           roster.ID,
		Filename:     roster.Filename,
		StudentCount: roster.StudentCount,
		Classes:      distinctClasses(students),
		Subjects:     distinctSubjects(students),
		CreatedAt:    roster.CreatedAt,
	}, nil
}

// List returns roster history pages.
func (s *RosterService) List(ctx context.Context, filter models.RosterFilter) ([]models.Roster, *models.Pagination, error) {
	rosters, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rosters")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return rosters, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Students returns the raw student rows for a roster.
func (s *RosterService) Students(ctx context.Context, rosterID string) ([]models.Student, error) {
	if _, err := s.repo.FindByID(ctx, rosterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "roster not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	students, err := s.repo.ListStudents(ctx, rosterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster students")
	}
	return students, nil
}

// Delete removes a roster and its students.
func (s *RosterService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "roster not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete roster")
	}
	return nil
}

func readTable(filename string, file io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		reader := csv.NewReader(file)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("could not parse CSV file: %v", err))
		}
		return rows, nil
	case ".xlsx":
		workbook, err := excelize.OpenReader(file)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("could not parse XLSX file: %v", err))
		}
		defer workbook.Close()
		rows, err := workbook.GetRows(workbook.GetSheetName(0))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("could not read XLSX sheet: %v", err))
		}
		return rows, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported roster file type, expected .csv or .xlsx")
	}
}

func rowsToStudents(rows [][]string) ([]models.Student, error) {
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roster file is empty")
	}

	header := rows[0]
	columns := make(map[int]func(*models.Student, string))
	present := make(map[string]bool)
	for i, name := range header {
		key := normalizeColumn(name)
		if setter, ok := rosterColumnFields[key]; ok {
			columns[i] = setter
			if key == "name" {
				key = "fullname"
			}
			present[key] = true
		}
	}

	var missing []string
	for _, col := range requiredRosterColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConfiguration,
			fmt.Sprintf("roster file is missing required columns: %s", strings.Join(missing, ", ")))
	}

	students := make([]models.Student, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		var student models.Student
		for i, setter := range columns {
			if i < len(row) {
				setter(&student, strings.TrimSpace(row[i]))
			}
		}
		if student.IndexNumber == "" && student.FullName == "" {
			continue
		}
		if student.IndexNumber == "" || student.FullName == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("row %d is missing an index number or full name", rowNum+2))
		}
		students = append(students, student)
	}
	return students, nil
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "")
	name = strings.ReplaceAll(name, "_", "")
	return name
}

func distinctClasses(students []models.Student) []string {
	seen := make(map[string]bool)
	var classes []string
	for _, s := range students {
		if s.Class == "" || seen[s.Class] {
			continue
		}
		seen[s.Class] = true
		classes = append(classes, s.Class)
	}
	sort.Strings(classes)
	return classes
}

func distinctSubjects(students []models.Student) []string {
	seen := make(map[string]bool)
	var subjects []string
	for _, s := range students {
		for _, subject := range seating.SplitSubjects(s.CoreSubjects, s.ElectiveSubjects) {
			if seen[subject] {
				continue
			}
			seen[subject] = true
			subjects = append(subjects, subject)
		}
	}
	sort.Strings(subjects)
	return subjects
}
