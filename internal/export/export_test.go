package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habita/internal/domain"
)

func sampleDoc() *domain.ReportDocument {
	return &domain.ReportDocument{
		ReportType: domain.ReportReservas,
		Fields:     []string{"id", "status", "monto_total"},
		Rows: []map[string]interface{}{
			{"id": "r-1", "status": "confirmada", "monto_total": 450.5},
			{"id": "r-2", "status": "completada", "monto_total": 1200.0},
		},
		GeneratedAt: time.Date(2025, 3, 15, 10, 30, 45, 0, time.UTC),
	}
}

func TestFilename(t *testing.T) {
	name := Filename(domain.ReportIngresos, time.Date(2025, 3, 15, 10, 30, 45, 0, time.UTC), "csv")
	assert.Equal(t, "reporte_ingresos_20250315_103045.csv", name)
}

func TestCSVRoundTrip(t *testing.T) {
	res, err := NewRegistry().Render(sampleDoc(), "csv")
	require.NoError(t, err)

	assert.Equal(t, "csv", res.Format)
	assert.Equal(t, "reporte_reservas_20250315_103045.csv", res.Filename)
	require.True(t, bytes.HasPrefix(res.Data, []byte("\xEF\xBB\xBF")))

	records, err := csv.NewReader(bytes.NewReader(res.Data[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "status", "monto_total"}, records[0])
	assert.Equal(t, []string{"r-1", "confirmada", "450.5"}, records[1])
	assert.Equal(t, []string{"r-2", "completada", "1200"}, records[2])
}

func TestCSVColumnOrderFollowsFields(t *testing.T) {
	doc := sampleDoc()
	doc.Fields = []string{"monto_total", "id"}

	res, err := NewRegistry().Render(doc, "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(res.Data[3:])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"monto_total", "id"}, records[0])
	assert.Equal(t, []string{"450.5", "r-1"}, records[1])
}

func TestColumnsInferredFromFirstRowWhenFieldsEmpty(t *testing.T) {
	// Aggregated documents carry no explicit field list.
	doc := &domain.ReportDocument{
		ReportType: domain.ReportIngresos,
		Rows: []map[string]interface{}{
			{"mes": "2025-01", "total": 4500.0, "count": int64(3)},
			{"mes": "2025-02", "total": 1200.0, "count": int64(1)},
		},
		GeneratedAt: time.Date(2025, 3, 15, 10, 30, 45, 0, time.UTC),
	}

	res, err := NewRegistry().Render(doc, "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(res.Data[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"count", "mes", "total"}, records[0])
	assert.Equal(t, []string{"3", "2025-01", "4500"}, records[1])
	assert.Equal(t, []string{"1", "2025-02", "1200"}, records[2])
}

func TestXLSXInfersColumnsWhenFieldsEmpty(t *testing.T) {
	doc := &domain.ReportDocument{
		ReportType: domain.ReportOcupacion,
		Rows: []map[string]interface{}{
			{"mes": "2025-01", "ocupacion": 0.5},
		},
		GeneratedAt: time.Now().UTC(),
	}

	r := NewRegistry()
	r.Register(&XLSXExporter{})
	res, err := r.Render(doc, "xlsx")

	require.NoError(t, err)
	assert.NotEmpty(t, res.Data)
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewRegistry().Render(sampleDoc(), "docx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedExportFormat)
}

func TestMissingCapabilityNamesIt(t *testing.T) {
	// A bare registry carries only CSV.
	_, err := NewRegistry().Render(sampleDoc(), "pdf")
	require.ErrorIs(t, err, domain.ErrMissingExportCapability)
	assert.Contains(t, err.Error(), "pdf")

	_, err = NewRegistry().Render(sampleDoc(), "xlsx")
	require.ErrorIs(t, err, domain.ErrMissingExportCapability)
	assert.Contains(t, err.Error(), "xlsx")
}

func TestExcelAliasNormalizes(t *testing.T) {
	r := NewRegistry()
	r.Register(&XLSXExporter{})

	res, err := r.Render(sampleDoc(), "excel")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", res.Format)
	assert.True(t, strings.HasSuffix(res.Filename, ".xlsx"))
	assert.NotEmpty(t, res.Data)
}

func TestPDFTruncatesWideAndLongReports(t *testing.T) {
	doc := &domain.ReportDocument{
		ReportType:  domain.ReportReservas,
		GeneratedAt: time.Now().UTC(),
	}
	for i := 0; i < 12; i++ {
		doc.Fields = append(doc.Fields, "campo_"+string(rune('a'+i)))
	}
	for i := 0; i < 250; i++ {
		row := map[string]interface{}{}
		for _, f := range doc.Fields {
			row[f] = i
		}
		doc.Rows = append(doc.Rows, row)
	}

	r := NewRegistry()
	r.Register(&PDFExporter{})
	res, err := r.Render(doc, "pdf")

	require.NoError(t, err)
	assert.Equal(t, "pdf", res.Format)
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF")))
}

func TestDefaultFormatIsCSV(t *testing.T) {
	res, err := NewRegistry().Render(sampleDoc(), "")
	require.NoError(t, err)
	assert.Equal(t, "csv", res.Format)
}
