package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seatwise/exam-seating-api/internal/models"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
	"github.com/seatwise/exam-seating-api/pkg/export"
	"github.com/seatwise/exam-seating-api/pkg/storage"
)

type runReader interface {
	FindByID(ctx context.Context, id string) (*models.AllocationRun, error)
	ListAssignments(ctx context.Context, runID string) ([]models.Assignment, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	RenderWithOptions(data export.Dataset, title string, opts export.PDFOptions) ([]byte, error)
	RenderClassList(groups []export.ClassListGroup, subtitle string) ([]byte, error)
}

type excelRenderer interface {
	Render(data export.Dataset, sheet, title string, columnWidths []float64) ([]byte, error)
}

// Headers and landscape column widths of the seating table exports.
var (
	seatingHeaders     = []string{"Date", "Room", "Seat Number", "Index Number", "Full Name", "Class", "Subject", "Session"}
	seatingPDFWidths   = []float64{30, 45, 25, 30, 55, 25, 40, 27}
	seatingExcelWidths = []float64{14, 24, 14, 16, 32, 12, 22, 14}
)

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds seating datasets and persists rendered files.
type ExportService struct {
	runs    runReader
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	excel   excelRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(runs runReader, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		runs:    runs,
		storage: store,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		excel:   export.NewExcelExporter(),
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders the export described by the job and stores the result.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	run, err := s.runs.FindByID(ctx, job.RunID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation run not found")
		}
		return nil, err
	}
	assignments, err := s.runs.ListAssignments(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if job.Params.Date != "" {
		assignments = filterByDate(assignments, job.Params.Date)
	}
	if len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "run has no assignments to export")
	}

	title := exportTitle(assignments, job.Params.Date)

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(buildSeatingDataset(assignments))
	case models.ExportFormatPDF:
		payload, err = s.pdf.RenderWithOptions(buildSeatingDataset(assignments), title, export.PDFOptions{
			Orientation:  "L",
			ColumnWidths: seatingPDFWidths,
		})
	case models.ExportFormatClassListPDF:
		payload, err = s.pdf.RenderClassList(buildClassListGroups(assignments), title)
	case models.ExportFormatXLSX:
		payload, err = s.excel.Render(buildSeatingDataset(assignments), "Seating Arrangement", title, seatingExcelWidths)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	runPart := job.RunID
	if len(runPart) > 8 {
		runPart = runPart[:8]
	}
	ext := string(job.Params.Format)
	if job.Params.Format == models.ExportFormatClassListPDF {
		ext = "pdf"
	}
	return fmt.Sprintf("seating_%s_%s_%s.%s", runPart, job.Params.Format, timestamp, ext)
}

func buildSeatingDataset(assignments []models.Assignment) export.Dataset {
	rows := make([]map[string]string, len(assignments))
	for i, a := range assignments {
		rows[i] = map[string]string{
			"Date":         a.Date,
			"Room":         a.Room,
			"Seat Number":  strconv.Itoa(a.SeatNumber),
			"Index Number": a.IndexNumber,
			"Full Name":    a.FullName,
			"Class":        a.Class,
			"Subject":      a.Subject,
			"Session":      string(a.Session),
		}
	}
	return export.Dataset{Headers: seatingHeaders, Rows: rows}
}

// buildClassListGroups splits assignments into one signing sheet per room,
// preserving seat order within each room.
func buildClassListGroups(assignments []models.Assignment) []export.ClassListGroup {
	byRoom := make(map[string][]export.ClassListRow)
	var order []string
	for _, a := range assignments {
		key := a.Date + "|" + string(a.Session) + "|" + a.Room
		if _, ok := byRoom[key]; !ok {
			order = append(order, key)
		}
		byRoom[key] = append(byRoom[key], export.ClassListRow{
			SeatNumber:  strconv.Itoa(a.SeatNumber),
			IndexNumber: a.IndexNumber,
			FullName:    a.FullName,
			Class:       a.Class,
		})
	}
	sort.Strings(order)

	groups := make([]export.ClassListGroup, 0, len(order))
	for _, key := range order {
		parts := strings.SplitN(key, "|", 3)
		label := parts[2]
		if len(order) > 1 {
			label = fmt.Sprintf("%s (%s %s)", parts[2], parts[0], parts[1])
		}
		rows := byRoom[key]
		sort.Slice(rows, func(i, j int) bool {
			a, _ := strconv.Atoi(rows[i].SeatNumber)
			b, _ := strconv.Atoi(rows[j].SeatNumber)
			return a < b
		})
		groups = append(groups, export.ClassListGroup{Room: label, Rows: rows})
	}
	return groups
}

func exportTitle(assignments []models.Assignment, date string) string {
	if date == "" {
		dates := make(map[string]bool)
		for _, a := range assignments {
			dates[a.Date] = true
		}
		if len(dates) != 1 {
			return "Seating Arrangement"
		}
		date = assignments[0].Date
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "Seating Arrangement"
	}
	return "Seating Arrangement for " + parsed.Format("Monday, January 2, 2006")
}

func filterByDate(assignments []models.Assignment, date string) []models.Assignment {
	filtered := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Date == date {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
