package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Caller is the opaque identity a report request runs as. Non-privileged
// callers are scoped to data belonging to properties they own.
type Caller struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
}

// Claims are the validated contents of an access token.
type Claims struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
}

// Scope is the authorization boundary a report query runs inside. All
// means the unrestricted collection; otherwise rows are limited to
// properties owned by OwnerID.
type Scope struct {
	All     bool
	OwnerID uuid.UUID
}

// ReportSpec is the declarative description of a report request.
//
// Unknown field and filter names are silently dropped during execution
// (permissive by design, since NL-derived specs may carry harmless extra
// keys); pass Strict to Generate for fail-fast behavior instead.
type ReportSpec struct {
	ReportType    ReportType             `json:"tipo_reporte" binding:"required"`
	Fields        []string               `json:"campos_seleccionados,omitempty"`
	Filters       map[string]interface{} `json:"filtros,omitempty"`
	GroupBy       string                 `json:"agrupacion,omitempty"`
	OrderBy       string                 `json:"ordenamiento,omitempty"`
	Limit         int                    `json:"limite,omitempty"`
	IncludeStats  *bool                  `json:"incluir_estadisticas,omitempty"`
	IncludeCharts *bool                  `json:"incluir_graficos,omitempty"`
}

const defaultReportLimit = 100

// LimitOrDefault returns the row limit, defaulting to 100.
func (s *ReportSpec) LimitOrDefault() int {
	if s.Limit <= 0 {
		return defaultReportLimit
	}
	return s.Limit
}

// StatsEnabled reports whether statistics were requested; unset means yes.
func (s *ReportSpec) StatsEnabled() bool {
	return s.IncludeStats == nil || *s.IncludeStats
}

// ChartsEnabled reports whether chart data was requested; unset means yes.
func (s *ReportSpec) ChartsEnabled() bool {
	return s.IncludeCharts == nil || *s.IncludeCharts
}

// ChartPoint is one entry of a chart series.
type ChartPoint struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// ReportDocument is the structured result of executing a ReportSpec.
// Rows preserve the column order of Fields; monetary values are carried
// as fixed-point decimals internally and converted to float64 here, at
// the document boundary.
type ReportDocument struct {
	ReportType  ReportType               `json:"tipo_reporte"`
	Fields      []string                 `json:"campos"`
	Filters     map[string]interface{}   `json:"filtros"`
	GroupBy     string                   `json:"agrupacion,omitempty"`
	OrderBy     string                   `json:"ordenamiento,omitempty"`
	Rows        []map[string]interface{} `json:"rows"`
	Summary     map[string]float64       `json:"resumen"`
	Charts      map[string][]ChartPoint  `json:"graficos"`
	Insights    []string                 `json:"insights"`
	GeneratedAt time.Time                `json:"generado_en"`
}

// ReservationOverview is the fixed reservation statistics block: totals,
// per-status and per-property breakdowns, and the recent monthly trend.
type ReservationOverview struct {
	Summary       map[string]float64 `json:"resumen"`
	ByStatus      []ChartPoint       `json:"por_estado"`
	TopProperties []ChartPoint       `json:"top_propiedades"`
	MonthlyTrend  []ChartPoint       `json:"tendencia_mensual"`
}

// JSONMap is a JSONB column holding an arbitrary object.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("cannot scan %T into JSONMap", src)
}

// ReportHistoryRecord is the append-only audit entry written after each
// successful generation or export. The core never updates or deletes
// these; retention is an operational concern.
type ReportHistoryRecord struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"usuario_id" json:"usuario_id"`
	ReportType   string    `db:"tipo_reporte" json:"tipo_reporte"`
	Config       JSONMap   `db:"configuracion_usada" json:"configuracion_usada"`
	Filters      JSONMap   `db:"parametros_filtro" json:"parametros_filtro"`
	Prompt       string    `db:"prompt_ia" json:"prompt_ia,omitempty"`
	AIResponse   string    `db:"respuesta_ia" json:"respuesta_ia,omitempty"`
	Summary      JSONMap   `db:"resultado_resumen" json:"resultado_resumen"`
	ExportFormat string    `db:"formato_exportado" json:"formato_exportado"`
	DurationSecs float64   `db:"tiempo_generacion" json:"tiempo_generacion"`
	CreatedAt    time.Time `db:"creado_en" json:"creado_en"`
}

// MonthlyRevenueRow is one month of the revenue trend aggregation.
type MonthlyRevenueRow struct {
	Month time.Time       `db:"mes"`
	Count int             `db:"count"`
	Total decimal.Decimal `db:"total"`
}

// MonthlyNightsRow is one month of reserved nights, the numerator of the
// occupancy ratio.
type MonthlyNightsRow struct {
	Month  time.Time `db:"mes"`
	Nights int64     `db:"noches"`
}

// GroupTotalRow is a generic grouped count/total aggregation row.
type GroupTotalRow struct {
	Label string          `db:"label"`
	Count int             `db:"count"`
	Total decimal.Decimal `db:"total"`
}

// ReservationAggregates holds the reservation summary statistics.
type ReservationAggregates struct {
	Count     int             `db:"total_registros"`
	Revenue   decimal.Decimal `db:"total_ingresos"`
	AvgAmount decimal.Decimal `db:"ingreso_promedio"`
	Discounts decimal.Decimal `db:"total_descuentos"`
}

// PropertyAggregates holds the property summary statistics.
type PropertyAggregates struct {
	Count         int             `db:"total_registros"`
	AvgPriceNight decimal.Decimal `db:"precio_promedio"`
}

// InvoiceAggregates holds the invoice summary statistics.
type InvoiceAggregates struct {
	Count    int             `db:"total_registros"`
	Invoiced decimal.Decimal `db:"total_facturado"`
}
