package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"habita/internal/catalog"
	"habita/internal/domain"
	"habita/internal/export"
	"habita/internal/port"
)

const (
	defaultFieldCount     = 10
	topPropertiesLimit    = 10
	overviewTopProperties = 5
	overviewTrendMonths   = 6
	defaultHistoryLimit   = 20
	maxHistoryLimit       = 100
)

// ReportService executes report specifications: it validates them against
// the catalog, resolves the caller's scope, queries the data layer, and
// assembles the result document. Every successful run leaves a history
// record; history failures are logged and never surface to the caller.
type ReportService struct {
	catalog *catalog.Catalog
	data    port.ReportDataRepository
	history port.ReportHistoryRepository
	specGen port.SpecGenerator
	exports *export.Registry

	// strict rejects unknown fields and filter keys instead of dropping
	// them. Off by default so NL-derived specs with stray keys still run.
	strict bool
}

func NewReportService(cat *catalog.Catalog, data port.ReportDataRepository, history port.ReportHistoryRepository, specGen port.SpecGenerator, exports *export.Registry, strict bool) *ReportService {
	return &ReportService{
		catalog: cat,
		data:    data,
		history: history,
		specGen: specGen,
		exports: exports,
		strict:  strict,
	}
}

// Generate runs a report specification for the caller and records the run.
func (s *ReportService) Generate(ctx context.Context, caller domain.Caller, spec *domain.ReportSpec) (*domain.ReportDocument, error) {
	start := time.Now()
	doc, err := s.execute(ctx, caller, spec)
	if err != nil {
		return nil, err
	}
	s.recordHistory(ctx, caller, spec, doc, "", "", "", time.Since(start))
	return doc, nil
}

// GenerateFromPrompt turns a natural-language request into a specification
// and executes it. The prompt and the raw model output are kept in the
// history record for auditability.
func (s *ReportService) GenerateFromPrompt(ctx context.Context, caller domain.Caller, prompt, extra string) (*domain.ReportDocument, *domain.ReportSpec, error) {
	gen, err := s.specGen.Generate(ctx, prompt, extra)
	if err != nil {
		return nil, nil, err
	}
	start := time.Now()
	doc, err := s.execute(ctx, caller, &gen.Spec)
	if err != nil {
		return nil, nil, err
	}
	s.recordHistory(ctx, caller, &gen.Spec, doc, "", prompt, gen.Raw, time.Since(start))
	return doc, &gen.Spec, nil
}

// Export runs a report specification and renders it in the requested
// format.
func (s *ReportService) Export(ctx context.Context, caller domain.Caller, spec *domain.ReportSpec, format string) (*export.Result, error) {
	start := time.Now()
	doc, err := s.execute(ctx, caller, spec)
	if err != nil {
		return nil, err
	}
	res, err := s.exports.Render(doc, format)
	if err != nil {
		return nil, err
	}
	s.recordHistory(ctx, caller, spec, doc, res.Format, "", "", time.Since(start))
	return res, nil
}

// ReservationSummary returns the fixed reservation statistics block for
// the caller's scope: totals, breakdowns by status and by property, and
// the recent monthly trend. Filters may carry a check-in date range.
func (s *ReportService) ReservationSummary(ctx context.Context, caller domain.Caller, filters map[string]interface{}) (*domain.ReservationOverview, error) {
	scope, err := ResolveScope(caller, domain.ReportReservas)
	if err != nil {
		return nil, err
	}

	agg, err := s.data.ReservationAggregates(ctx, scope, filters)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.data.ReservationsByStatus(ctx, scope, filters)
	if err != nil {
		return nil, err
	}
	topProps, err := s.data.RevenueByProperty(ctx, scope, filters, overviewTopProperties)
	if err != nil {
		return nil, err
	}
	trend, err := s.data.MonthlyRevenue(ctx, scope, filters)
	if err != nil {
		return nil, err
	}
	if len(trend) > overviewTrendMonths {
		trend = trend[len(trend)-overviewTrendMonths:]
	}
	trendPoints := make([]domain.ChartPoint, 0, len(trend))
	for _, m := range trend {
		trendPoints = append(trendPoints, domain.ChartPoint{
			Label: m.Month.Format("2006-01"),
			Count: m.Count,
			Total: money(m.Total),
		})
	}

	return &domain.ReservationOverview{
		Summary:       reservationSummary(agg),
		ByStatus:      chartPoints(byStatus),
		TopProperties: chartPoints(topProps),
		MonthlyTrend:  trendPoints,
	}, nil
}

// History lists the caller's most recent report runs.
func (s *ReportService) History(ctx context.Context, caller domain.Caller, limit int) ([]domain.ReportHistoryRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.history.ListByUser(ctx, caller.UserID, limit)
}

func (s *ReportService) execute(ctx context.Context, caller domain.Caller, spec *domain.ReportSpec) (*domain.ReportDocument, error) {
	entry, err := s.catalog.Describe(spec.ReportType)
	if err != nil {
		return nil, err
	}
	scope, err := ResolveScope(caller, spec.ReportType)
	if err != nil {
		return nil, err
	}

	fields, err := s.resolveFields(entry, spec)
	if err != nil {
		return nil, err
	}
	if err := s.checkFilters(entry, spec); err != nil {
		return nil, err
	}
	groupBy, err := s.resolveGroupBy(entry, spec)
	if err != nil {
		return nil, err
	}

	doc := &domain.ReportDocument{
		ReportType: spec.ReportType,
		Fields:     fields,
		Filters:    spec.Filters,
		GroupBy:    groupBy,
		OrderBy:    spec.OrderBy,
		Summary:    map[string]float64{},
		Charts:     map[string][]domain.ChartPoint{},
		Insights:   []string{},
	}
	if doc.Filters == nil {
		doc.Filters = map[string]interface{}{}
	}

	switch {
	case spec.ReportType.RowBased():
		orderBy, err := s.resolveOrderBy(entry, spec, fields)
		if err != nil {
			return nil, err
		}
		cols := make([]port.SelectedColumn, len(fields))
		for i, name := range fields {
			f, _ := entry.Field(name)
			cols[i] = port.SelectedColumn{Expr: f.Column, Alias: name}
		}
		rows, err := s.data.QueryRows(ctx, port.RowQuery{
			ReportType: spec.ReportType,
			Columns:    cols,
			Scope:      scope,
			Filters:    spec.Filters,
			OrderBy:    orderBy,
			Limit:      spec.LimitOrDefault(),
		})
		if err != nil {
			return nil, err
		}
		doc.Rows = rows

	case spec.ReportType == domain.ReportIngresos:
		if err := s.buildRevenueReport(ctx, doc, scope, spec); err != nil {
			return nil, err
		}

	case spec.ReportType == domain.ReportOcupacion:
		if err := s.buildOccupancyReport(ctx, doc, scope, spec); err != nil {
			return nil, err
		}
	}
	if doc.Rows == nil {
		doc.Rows = []map[string]interface{}{}
	}

	if spec.StatsEnabled() {
		if err := s.buildSummary(ctx, doc, scope, spec); err != nil {
			return nil, err
		}
	}
	if spec.ChartsEnabled() && spec.ReportType == domain.ReportReservas {
		if err := s.buildReservationCharts(ctx, doc, scope, spec); err != nil {
			return nil, err
		}
	}

	doc.Insights = buildInsights(doc)
	doc.GeneratedAt = time.Now().UTC()
	return doc, nil
}

// resolveFields intersects the requested projection with the catalog.
// Unknown names are dropped; an empty result falls back to the first ten
// declared fields so the projection stays deterministic.
func (s *ReportService) resolveFields(entry *catalog.Entry, spec *domain.ReportSpec) ([]string, error) {
	if len(spec.Fields) == 0 {
		return entry.DefaultFields(defaultFieldCount), nil
	}
	fields := make([]string, 0, len(spec.Fields))
	seen := map[string]bool{}
	for _, name := range spec.Fields {
		if _, ok := entry.Field(name); !ok {
			if s.strict {
				return nil, fmt.Errorf("%w: campo %q", domain.ErrUnknownField, name)
			}
			continue
		}
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	if len(fields) == 0 {
		return entry.DefaultFields(defaultFieldCount), nil
	}
	return fields, nil
}

func (s *ReportService) checkFilters(entry *catalog.Entry, spec *domain.ReportSpec) error {
	if !s.strict {
		return nil
	}
	for key := range spec.Filters {
		if !entry.HasFilter(key) {
			return fmt.Errorf("%w: filtro %q", domain.ErrUnknownField, key)
		}
	}
	return nil
}

func (s *ReportService) resolveGroupBy(entry *catalog.Entry, spec *domain.ReportSpec) (string, error) {
	if spec.GroupBy == "" {
		return "", nil
	}
	for _, g := range entry.Groupings {
		if g == spec.GroupBy {
			return g, nil
		}
	}
	if s.strict {
		return "", fmt.Errorf("%w: agrupacion %q", domain.ErrUnknownField, spec.GroupBy)
	}
	return "", nil
}

// resolveOrderBy maps "campo" or "-campo" to a SQL ORDER BY fragment over
// the catalog column. Ordering applies only to fields that are part of the
// selected projection; anything else is dropped.
func (s *ReportService) resolveOrderBy(entry *catalog.Entry, spec *domain.ReportSpec, fields []string) (string, error) {
	raw := strings.TrimSpace(spec.OrderBy)
	if raw == "" {
		return "", nil
	}
	dir := "ASC"
	if strings.HasPrefix(raw, "-") {
		dir = "DESC"
		raw = raw[1:]
	}
	f, ok := entry.Field(raw)
	if !ok || f.Column == "" || !contains(fields, raw) {
		if s.strict {
			return "", fmt.Errorf("%w: ordenamiento %q", domain.ErrUnknownField, spec.OrderBy)
		}
		return "", nil
	}
	return f.Column + " " + dir, nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (s *ReportService) buildRevenueReport(ctx context.Context, doc *domain.ReportDocument, scope domain.Scope, spec *domain.ReportSpec) error {
	months, err := s.data.MonthlyRevenue(ctx, scope, spec.Filters)
	if err != nil {
		return err
	}

	doc.Rows = make([]map[string]interface{}, 0, len(months))
	for _, m := range months {
		doc.Rows = append(doc.Rows, map[string]interface{}{
			"mes":   m.Month.Format("2006-01"),
			"total": money(m.Total),
			"count": m.Count,
		})
	}

	if spec.ChartsEnabled() {
		points := make([]domain.ChartPoint, 0, len(months))
		for _, m := range months {
			points = append(points, domain.ChartPoint{
				Label: m.Month.Format("2006-01"),
				Count: m.Count,
				Total: money(m.Total),
			})
		}
		doc.Charts["tendencia_mensual"] = points
	}
	return nil
}

// buildOccupancyReport estimates per-month occupancy as reserved nights
// over possible nights, where possible nights is the scoped property count
// times the days of that month. The occupancy value is a ratio in [0, 1].
// Months with zero possible nights carry no meaningful ratio and are
// skipped.
func (s *ReportService) buildOccupancyReport(ctx context.Context, doc *domain.ReportDocument, scope domain.Scope, spec *domain.ReportSpec) error {
	months, err := s.data.MonthlyReservedNights(ctx, scope, spec.Filters)
	if err != nil {
		return err
	}
	properties, err := s.data.PropertyCount(ctx, scope)
	if err != nil {
		return err
	}

	doc.Rows = make([]map[string]interface{}, 0, len(months))
	var sum float64
	for _, m := range months {
		possible := int64(properties) * int64(daysInMonth(m.Month))
		if possible == 0 {
			continue
		}
		ratio := round4(float64(m.Nights) / float64(possible))
		doc.Rows = append(doc.Rows, map[string]interface{}{
			"mes":               m.Month.Format("2006-01"),
			"noches_reservadas": m.Nights,
			"noches_posibles":   possible,
			"ocupacion":         ratio,
		})
		sum += ratio
	}

	if spec.StatsEnabled() {
		if len(doc.Rows) > 0 {
			doc.Summary["ocupacion_promedio"] = round4(sum / float64(len(doc.Rows)))
		} else {
			doc.Summary["ocupacion_promedio"] = 0
		}
	}
	return nil
}

// buildSummary merges the type's statistics into the document summary.
// The derived types (ingresos, ocupacion) are reservation-backed and get
// the reservation aggregates; occupancy additionally keeps the
// ocupacion_promedio its row pass computed.
func (s *ReportService) buildSummary(ctx context.Context, doc *domain.ReportDocument, scope domain.Scope, spec *domain.ReportSpec) error {
	switch {
	case spec.ReportType.ReservationBacked():
		agg, err := s.data.ReservationAggregates(ctx, scope, spec.Filters)
		if err != nil {
			return err
		}
		for k, v := range reservationSummary(agg) {
			doc.Summary[k] = v
		}
	case spec.ReportType == domain.ReportPropiedades:
		agg, err := s.data.PropertyAggregates(ctx, scope, spec.Filters)
		if err != nil {
			return err
		}
		doc.Summary["total_registros"] = float64(agg.Count)
		doc.Summary["precio_promedio"] = money(agg.AvgPriceNight)
	case spec.ReportType == domain.ReportFacturas:
		agg, err := s.data.InvoiceAggregates(ctx, scope, spec.Filters)
		if err != nil {
			return err
		}
		doc.Summary["total_registros"] = float64(agg.Count)
		doc.Summary["total_facturado"] = money(agg.Invoiced)
	case spec.ReportType == domain.ReportUsuarios:
		doc.Summary["total_registros"] = float64(len(doc.Rows))
	}
	return nil
}

func (s *ReportService) buildReservationCharts(ctx context.Context, doc *domain.ReportDocument, scope domain.Scope, spec *domain.ReportSpec) error {
	byStatus, err := s.data.ReservationsByStatus(ctx, scope, spec.Filters)
	if err != nil {
		return err
	}
	doc.Charts["reservas_por_estado"] = chartPoints(byStatus)

	byProperty, err := s.data.RevenueByProperty(ctx, scope, spec.Filters, topPropertiesLimit)
	if err != nil {
		return err
	}
	doc.Charts["reservas_por_propiedad"] = chartPoints(byProperty)

	trend, err := s.data.MonthlyRevenue(ctx, scope, spec.Filters)
	if err != nil {
		return err
	}
	points := make([]domain.ChartPoint, 0, len(trend))
	for _, m := range trend {
		points = append(points, domain.ChartPoint{
			Label: m.Month.Format("2006-01"),
			Count: m.Count,
			Total: money(m.Total),
		})
	}
	doc.Charts["tendencia_mensual"] = points
	return nil
}

// recordHistory appends the audit record for a finished run. It detaches
// from the request context so a cancelled request still leaves a trail,
// and it never propagates failures.
func (s *ReportService) recordHistory(ctx context.Context, caller domain.Caller, spec *domain.ReportSpec, doc *domain.ReportDocument, format, prompt, aiRaw string, dur time.Duration) {
	if s.history == nil {
		return
	}

	summary := make(domain.JSONMap, len(doc.Summary))
	for k, v := range doc.Summary {
		summary[k] = v
	}
	rec := &domain.ReportHistoryRecord{
		UserID:       caller.UserID,
		ReportType:   string(spec.ReportType),
		Config:       specAsMap(spec),
		Filters:      domain.JSONMap(doc.Filters),
		Prompt:       prompt,
		AIResponse:   aiRaw,
		Summary:      summary,
		ExportFormat: format,
		DurationSecs: dur.Seconds(),
	}

	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.history.Insert(insertCtx, rec); err != nil {
		log.Printf("WARN: report history insert failed: %v", err)
	}
}

func specAsMap(spec *domain.ReportSpec) domain.JSONMap {
	raw, err := json.Marshal(spec)
	if err != nil {
		return domain.JSONMap{}
	}
	var m domain.JSONMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.JSONMap{}
	}
	return m
}

func reservationSummary(agg domain.ReservationAggregates) map[string]float64 {
	return map[string]float64{
		"total_registros":  float64(agg.Count),
		"total_ingresos":   money(agg.Revenue),
		"ingreso_promedio": money(agg.AvgAmount),
		"total_descuentos": money(agg.Discounts),
	}
}

func chartPoints(rows []domain.GroupTotalRow) []domain.ChartPoint {
	points := make([]domain.ChartPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, domain.ChartPoint{Label: r.Label, Count: r.Count, Total: money(r.Total)})
	}
	return points
}

func buildInsights(doc *domain.ReportDocument) []string {
	insights := []string{}

	if total, ok := doc.Summary["total_registros"]; ok && total == 0 {
		insights = append(insights, "No se encontraron registros con los criterios seleccionados.")
		return insights
	}

	switch doc.ReportType {
	case domain.ReportReservas:
		if n, ok := doc.Summary["total_registros"]; ok {
			insights = append(insights, fmt.Sprintf("Se encontraron %.0f reservas.", n))
		}
		if v, ok := doc.Summary["total_ingresos"]; ok && v > 0 {
			insights = append(insights, fmt.Sprintf("Los ingresos totales ascienden a Bs %.2f.", v))
		}
		if v, ok := doc.Summary["total_descuentos"]; ok && v > 0 {
			insights = append(insights, fmt.Sprintf("Se otorgaron Bs %.2f en descuentos.", v))
		}
	case domain.ReportIngresos:
		if best, ok := bestRevenueMonth(doc.Rows); ok {
			insights = append(insights, "El mejor mes fue "+best+".")
		}
		if v, ok := doc.Summary["ingreso_promedio"]; ok && v > 0 {
			insights = append(insights, fmt.Sprintf("El ingreso promedio por reserva es Bs %.2f.", v))
		}
	case domain.ReportOcupacion:
		// The stored value is a ratio; only the insight text scales it.
		if v, ok := doc.Summary["ocupacion_promedio"]; ok {
			insights = append(insights, fmt.Sprintf("La ocupación promedio estimada es del %.2f%%.", v*100))
		}
	case domain.ReportPropiedades:
		if v, ok := doc.Summary["precio_promedio"]; ok && v > 0 {
			insights = append(insights, fmt.Sprintf("El precio promedio por noche es Bs %.2f.", v))
		}
	case domain.ReportFacturas:
		if v, ok := doc.Summary["total_facturado"]; ok && v > 0 {
			insights = append(insights, fmt.Sprintf("El total facturado asciende a Bs %.2f.", v))
		}
	case domain.ReportUsuarios:
		if n, ok := doc.Summary["total_registros"]; ok {
			insights = append(insights, fmt.Sprintf("Se listaron %.0f usuarios.", n))
		}
	}
	return insights
}

func bestRevenueMonth(rows []map[string]interface{}) (string, bool) {
	best := ""
	var bestTotal float64
	for _, row := range rows {
		total, _ := row["total"].(float64)
		mes, _ := row["mes"].(string)
		if mes != "" && total > bestTotal {
			best = mes
			bestTotal = total
		}
	}
	if best == "" {
		return "", false
	}
	return fmt.Sprintf("%s con Bs %.2f", best, bestTotal), true
}

// money converts a fixed-point amount to the float64 carried by documents,
// rounded to cents. Decimals stay exact until this boundary.
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func round4(v float64) float64 {
	d := decimal.NewFromFloat(v)
	f, _ := d.Round(4).Float64()
	return f
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
