package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"habita/internal/domain"
)

const xlsxSheet = "Reporte"

// XLSXExporter writes the document as a single-sheet workbook with a bold
// header row. Registered at startup when spreadsheet export is enabled.
type XLSXExporter struct{}

func (e *XLSXExporter) Format() string    { return "xlsx" }
func (e *XLSXExporter) Extension() string { return "xlsx" }
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) Render(doc *domain.ReportDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", xlsxSheet)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	cols := columns(doc)
	for i, field := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
		if err := f.SetCellValue(xlsxSheet, cell, field); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
		if err := f.SetCellStyle(xlsxSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}

	for r, row := range doc.Rows {
		for c, field := range cols {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, fmt.Errorf("xlsx cell: %w", err)
			}
			if err := f.SetCellValue(xlsxSheet, cell, xlsxValue(row[field])); err != nil {
				return nil, fmt.Errorf("xlsx cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// xlsxValue passes native types through so numbers stay numbers in the
// sheet, falling back to text for anything excelize cannot take directly.
func xlsxValue(v interface{}) interface{} {
	switch v.(type) {
	case nil:
		return ""
	case string, bool, int, int64, float64:
		return v
	default:
		return cellString(v)
	}
}
