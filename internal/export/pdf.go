package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"habita/internal/domain"
)

// PDF output is a print summary, not a data dump: wide or long reports are
// truncated to keep the page readable.
const (
	pdfMaxColumns = 8
	pdfMaxRows    = 200
)

// PDFExporter renders a landscape tabular summary of the document.
// Registered at startup when PDF export is enabled.
type PDFExporter struct{}

func (e *PDFExporter) Format() string      { return "pdf" }
func (e *PDFExporter) Extension() string   { return "pdf" }
func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Render(doc *domain.ReportDocument) ([]byte, error) {
	allFields := columns(doc)
	fields := allFields
	if len(fields) > pdfMaxColumns {
		fields = fields[:pdfMaxColumns]
	}
	rows := doc.Rows
	if len(rows) > pdfMaxRows {
		rows = rows[:pdfMaxRows]
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("Reporte: %s", doc.ReportType), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, "Generado: "+doc.GeneratedAt.Format("2006-01-02 15:04:05 UTC"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(fields))

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for _, field := range fields {
		pdf.CellFormat(colW, 7, field, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 7)
	for _, row := range rows {
		for _, field := range fields {
			pdf.CellFormat(colW, 6, truncateCell(cellString(row[field])), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(doc.Rows) > pdfMaxRows || len(allFields) > pdfMaxColumns {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Vista truncada: se muestran %d de %d filas y %d de %d columnas.",
			len(rows), len(doc.Rows), len(fields), len(allFields)), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateCell(s string) string {
	const max = 28
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
