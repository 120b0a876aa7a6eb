package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"habita/internal/domain"
	"habita/internal/port"
)

const (
	fromReservas = ` FROM reservas r
		JOIN propiedades p ON p.id = r.propiedad_id
		LEFT JOIN usuarios u ON u.id = r.user_id`
	fromPropiedades = ` FROM propiedades p`
	fromFacturas    = ` FROM facturas f
		JOIN reservas r ON r.id = f.reserva_id
		JOIN propiedades p ON p.id = r.propiedad_id`
	fromUsuarios = ` FROM usuarios u`
)

// ReportDataRepo answers report queries against Postgres. Scope predicates
// are rendered into every query here, never filtered in memory.
type ReportDataRepo struct {
	db *sqlx.DB
}

func NewReportDataRepo(db *sqlx.DB) *ReportDataRepo {
	return &ReportDataRepo{db: db}
}

func fromClause(t domain.ReportType) (string, bool) {
	switch t {
	case domain.ReportReservas:
		return fromReservas, true
	case domain.ReportPropiedades:
		return fromPropiedades, true
	case domain.ReportFacturas:
		return fromFacturas, true
	case domain.ReportUsuarios:
		return fromUsuarios, true
	}
	return "", false
}

func (r *ReportDataRepo) QueryRows(ctx context.Context, q port.RowQuery) ([]map[string]interface{}, error) {
	from, ok := fromClause(q.ReportType)
	if !ok {
		return nil, fmt.Errorf("reportDataRepo.QueryRows: %w: %q", domain.ErrUnsupportedReportType, q.ReportType)
	}

	cols := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		cols[i] = fmt.Sprintf(`%s AS "%s"`, c.Expr, c.Alias)
	}

	b := &condBuilder{}
	// The user table has no owning property, so scope does not apply;
	// access to it is admin-only and enforced above this layer.
	if q.ReportType != domain.ReportUsuarios {
		b.scopeToOwner(q.Scope)
	}
	applyFilters(b, q.ReportType, q.Filters)

	query := "SELECT " + strings.Join(cols, ", ") + from + b.where()
	if q.OrderBy != "" {
		query += " ORDER BY " + q.OrderBy
	}
	query += " LIMIT " + b.bind(q.Limit)

	rows, err := r.db.QueryxContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("reportDataRepo.QueryRows: %w", err)
	}
	defer rows.Close()

	out := make([]map[string]interface{}, 0, q.Limit)
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("reportDataRepo.QueryRows: scan: %w", err)
		}
		normalizeRow(row)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reportDataRepo.QueryRows: %w", err)
	}
	return out, nil
}

// normalizeRow rewrites driver byte slices as strings so rows marshal to
// JSON as text rather than base64.
func normalizeRow(row map[string]interface{}) {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
}

func (r *ReportDataRepo) MonthlyRevenue(ctx context.Context, scope domain.Scope, filters map[string]interface{}) ([]domain.MonthlyRevenueRow, error) {
	b := &condBuilder{}
	b.scopeToOwner(scope)
	applyReservationFilters(b, filters)

	query := `SELECT date_trunc('month', r.fecha_checkin) AS mes,
		COUNT(*) AS count,
		COALESCE(SUM(r.monto_total), 0) AS total` +
		fromReservas + b.where() + ` GROUP BY 1 ORDER BY 1`

	var out []domain.MonthlyRevenueRow
	if err := r.db.SelectContext(ctx, &out, query, b.args...); err != nil {
		return nil, fmt.Errorf("reportDataRepo.MonthlyRevenue: %w", err)
	}
	return out, nil
}

func (r *ReportDataRepo) MonthlyReservedNights(ctx context.Context, scope domain.Scope, filters map[string]interface{}) ([]domain.MonthlyNightsRow, error) {
	b := &condBuilder{}
	b.scopeToOwner(scope)
	applyReservationFilters(b, filters)

	query := `SELECT date_trunc('month', r.fecha_checkin) AS mes,
		COALESCE(SUM(r.cant_noches), 0) AS noches` +
		fromReservas + b.where() + ` GROUP BY 1 ORDER BY 1`

	var out []domain.MonthlyNightsRow
	if err := r.db.SelectContext(ctx, &out, query, b.args...); err != nil {
		return nil, fmt.Errorf("reportDataRepo.MonthlyReservedNights: %w", err)
	}
	return out, nil
}

func (r *ReportDataRepo) PropertyCount(ctx context.Context, scope domain.Scope) (int, error) {
	b := &condBuilder{}
	b.scopeToOwner(scope)

	var n int
	query := `SELECT COUNT(*)` + fromPropiedades + b.where()
	if err := r.db.GetContext(ctx, &n, query, b.args...); err != nil {
		return 0, fmt.Errorf("reportDataRepo.PropertyCount: %w", err)
	}
	return n, nil
}

func (r *ReportDataRepo) ReservationAggregates(ctx context.Context, scope domain.Scope, filters map[string]interface{}) (domain.ReservationAggregates, error) {
	b := &condBuilder{}
	b.scopeToOwner(scope)
	applyReservationFilters(b, filters)

	query := `SELECT COUNT(*) AS total_registros,
		COALESCE(SUM(r.monto_total), 0) AS total_ingresos,
		COALESCE(AVG(r.monto_total), 0) AS ingreso_promedio,
		COALESCE(SUM(r.descuento), 0) AS total_descuentos` +
		fromReservas + b.where()

	var agg domain.ReservationAggregates
	if err := r.db.GetContext(ctx, &agg, query, b.args...); err != nil {
		return domain.ReservationAggregates{}, fmt.Errorf("reportDataRepo.ReservationAggregates: %w", err)
	}
	return agg, nil
}

func (r *ReportDataRepo) PropertyAggregates(ctx context.Context, scope domain.Scope, filters map[string]interface{}) (domain.PropertyAggregates, error) {
	b := &condBuilder{}
	b.scopeToOwner(scope)
	applyPropertyFilters(b, filters)

	query := `SELECT COUNT(*) AS total_registros,
		COALESCE(AVG(p.precio_noche), 0) AS precio_promedio` +
		fromPropiedades + b.where()

	var agg domain.PropertyAggregates
	if err := r.db.GetContext(ctx, &agg, query, b.args...); err != nil {
		return domain.PropertyAggregates{}, fmt.Errorf("reportDataRepo.PropertyAggregates: %w", err)
	}
	return agg, nil
}

func (r *ReportDataRepo) InvoiceAggregates(ctx context.Context, scope domain.Scope, filters map[string]interface{}) (domain.InvoiceAggregates, error) {
	b := &condBuilder{}
	b.scopeToOwner(scope)
	applyInvoiceFilters(b, filters)

	query := `SELECT COUNT(*) AS total_registros,
		COALESCE(SUM(f.total), 0) AS total_facturado` +
		fromFacturas + b.where()

	var agg domain.InvoiceAggregates
	if err := r.db.GetContext(ctx, &agg, query, b.args...); err != nil {
		return domain.InvoiceAggregates{}, fmt.Errorf("reportDataRepo.InvoiceAggregates: %w", err)
	}
	return agg, nil
}

func (r *ReportDataRepo) ReservationsByStatus(ctx context.Context, scope domain.Scope, filters map[string]interface{}) ([]domain.GroupTotalRow, error) {
	b := &condBuilder{}
	b.scopeToOwner(scope)
	applyReservationFilters(b, filters)

	query := `SELECT r.status AS label,
		COUNT(*) AS count,
		COALESCE(SUM(r.monto_total), 0) AS total` +
		fromReservas + b.where() + ` GROUP BY r.status ORDER BY count DESC`

	var out []domain.GroupTotalRow
	if err := r.db.SelectContext(ctx, &out, query, b.args...); err != nil {
		return nil, fmt.Errorf("reportDataRepo.ReservationsByStatus: %w", err)
	}
	return out, nil
}

func (r *ReportDataRepo) RevenueByProperty(ctx context.Context, scope domain.Scope, filters map[string]interface{}, limit int) ([]domain.GroupTotalRow, error) {
	b := &condBuilder{}
	b.scopeToOwner(scope)
	applyReservationFilters(b, filters)

	query := `SELECT p.nombre AS label,
		COUNT(*) AS count,
		COALESCE(SUM(r.monto_total), 0) AS total` +
		fromReservas + b.where() + ` GROUP BY p.nombre ORDER BY total DESC LIMIT ` + b.bind(limit)

	var out []domain.GroupTotalRow
	if err := r.db.SelectContext(ctx, &out, query, b.args...); err != nil {
		return nil, fmt.Errorf("reportDataRepo.RevenueByProperty: %w", err)
	}
	return out, nil
}
