package port

import (
	"context"

	"habita/internal/domain"
)

// RowQuery describes one row-projection query against an entity
// collection: the selected columns (SQL expression plus output alias), the
// authorization scope, the caller-supplied filters, ordering and limit.
type RowQuery struct {
	ReportType domain.ReportType
	Columns    []SelectedColumn
	Scope      domain.Scope
	Filters    map[string]interface{}
	OrderBy    string
	Limit      int
}

// SelectedColumn pairs a SQL expression with the field name it projects as.
type SelectedColumn struct {
	Expr  string
	Alias string
}

// ReportDataRepository is the read side of report execution. All queries
// embed the scope as a WHERE predicate so unscoped data never leaves the
// database layer.
type ReportDataRepository interface {
	// QueryRows runs a row-projection query and returns each row as an
	// alias-keyed map.
	QueryRows(ctx context.Context, q RowQuery) ([]map[string]interface{}, error)

	// MonthlyRevenue aggregates confirmed and completed reservations into
	// per-month counts and totals, ordered by month ascending.
	MonthlyRevenue(ctx context.Context, scope domain.Scope, filters map[string]interface{}) ([]domain.MonthlyRevenueRow, error)

	// MonthlyReservedNights aggregates reserved nights per check-in month
	// for active reservations.
	MonthlyReservedNights(ctx context.Context, scope domain.Scope, filters map[string]interface{}) ([]domain.MonthlyNightsRow, error)

	// PropertyCount returns the number of properties inside scope, the
	// denominator basis of the occupancy estimate.
	PropertyCount(ctx context.Context, scope domain.Scope) (int, error)

	// ReservationAggregates computes the reservation summary statistics
	// over the filtered, scoped set.
	ReservationAggregates(ctx context.Context, scope domain.Scope, filters map[string]interface{}) (domain.ReservationAggregates, error)

	// PropertyAggregates computes the property summary statistics.
	PropertyAggregates(ctx context.Context, scope domain.Scope, filters map[string]interface{}) (domain.PropertyAggregates, error)

	// InvoiceAggregates computes the invoice summary statistics.
	InvoiceAggregates(ctx context.Context, scope domain.Scope, filters map[string]interface{}) (domain.InvoiceAggregates, error)

	// ReservationsByStatus groups scoped, filtered reservations by status.
	ReservationsByStatus(ctx context.Context, scope domain.Scope, filters map[string]interface{}) ([]domain.GroupTotalRow, error)

	// RevenueByProperty groups confirmed and completed reservation revenue
	// by property name, highest revenue first, capped at limit.
	RevenueByProperty(ctx context.Context, scope domain.Scope, filters map[string]interface{}, limit int) ([]domain.GroupTotalRow, error)
}
