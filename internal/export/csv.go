package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"habita/internal/domain"
)

// CSVExporter writes the document rows as UTF-8 CSV. The leading BOM keeps
// spreadsheet applications from garbling accented Spanish text.
type CSVExporter struct{}

func (e *CSVExporter) Format() string      { return "csv" }
func (e *CSVExporter) Extension() string   { return "csv" }
func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

func (e *CSVExporter) Render(doc *domain.ReportDocument) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\xEF\xBB\xBF")

	cols := columns(doc)

	w := csv.NewWriter(&buf)
	if err := w.Write(cols); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	record := make([]string, len(cols))
	for _, row := range doc.Rows {
		for i, field := range cols {
			record[i] = cellString(row[field])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}
