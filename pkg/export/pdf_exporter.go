package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions tunes table rendering.
type PDFOptions struct {
	// Orientation is "P" or "L"; portrait when empty.
	Orientation string
	// ColumnWidths in mm, one per header. Uniform widths when empty.
	ColumnWidths []float64
}

// ClassListRow is one line of the per-room signing sheet.
type ClassListRow struct {
	SeatNumber  string
	IndexNumber string
	FullName    string
	Class       string
}

// ClassListGroup holds one room's page of the signing sheet.
type ClassListGroup struct {
	Room string
	Rows []ClassListRow
}

// PDFExporter renders seating datasets into tabular PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	return e.RenderWithOptions(data, title, PDFOptions{})
}

// RenderWithOptions renders the dataset with explicit orientation and widths.
func (e *PDFExporter) RenderWithOptions(data Dataset, title string, opts PDFOptions) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation := opts.Orientation
	if orientation == "" {
		orientation = "P"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	widths := opts.ColumnWidths
	if len(widths) != len(data.Headers) {
		pageWidth, _ := pdf.GetPageSize()
		colWidth := (pageWidth - 20) / float64(len(data.Headers))
		widths = make([]float64, len(data.Headers))
		for i := range widths {
			widths[i] = colWidth
		}
	}

	pdf.SetFont("Arial", "B", 10)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderClassList creates the per-room signing sheet: one portrait page per
// room with seat order preserved and an empty signature column.
func (e *PDFExporter) RenderClassList(groups []ClassListGroup, subtitle string) ([]byte, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("class list requires at least one room")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	headers := []string{"Seat Number", "Index Number", "Full Name", "Class", "Signature"}
	widths := []float64{25, 30, 60, 30, 40}

	for _, group := range groups {
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, fmt.Sprintf("Class List for %s", group.Room), "", 1, "C", false, 0, "")
		if subtitle != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 10, subtitle, "", 1, "C", false, 0, "")
		}
		pdf.Ln(5)

		pdf.SetFont("Arial", "B", 10)
		for i, header := range headers {
			pdf.CellFormat(widths[i], 10, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range group.Rows {
			pdf.CellFormat(widths[0], 10, row.SeatNumber, "1", 0, "", false, 0, "")
			pdf.CellFormat(widths[1], 10, row.IndexNumber, "1", 0, "", false, 0, "")
			pdf.CellFormat(widths[2], 10, row.FullName, "1", 0, "", false, 0, "")
			pdf.CellFormat(widths[3], 10, row.Class, "1", 0, "", false, 0, "")
			pdf.CellFormat(widths[4], 10, "", "1", 0, "", false, 0, "")
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render class list pdf: %w", err)
	}
	return buf.Bytes(), nil
}
