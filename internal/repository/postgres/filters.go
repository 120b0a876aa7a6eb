package postgres

import (
	"fmt"
	"strings"
	"time"

	"habita/internal/domain"
)

// condBuilder accumulates WHERE fragments with positional placeholders.
// Placeholders are numbered in the order values are bound, so scope
// predicates and filter predicates compose without collisions.
type condBuilder struct {
	clauses []string
	args    []interface{}
}

func (b *condBuilder) bind(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *condBuilder) add(clause string) {
	b.clauses = append(b.clauses, clause)
}

// where renders the accumulated clauses as a WHERE section, or an empty
// string when nothing was added.
func (b *condBuilder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func (b *condBuilder) scopeToOwner(scope domain.Scope) {
	if !scope.All {
		b.add("p.user_id = " + b.bind(scope.OwnerID))
	}
}

// Filter application is permissive: unknown keys and values of the wrong
// shape are dropped silently instead of failing the report. Keys are
// visited in a fixed order so the rendered SQL is deterministic.

func applyReservationFilters(b *condBuilder, filters map[string]interface{}) {
	if d, ok := asDate(filters["fecha_inicio"]); ok {
		b.add("r.fecha_checkin >= " + b.bind(d))
	}
	if d, ok := asDate(filters["fecha_fin"]); ok {
		b.add("r.fecha_checkout <= " + b.bind(d))
	}
	if s, ok := asString(filters["status"]); ok {
		b.add("r.status = " + b.bind(s))
	}
	if s, ok := asString(filters["pago_estado"]); ok {
		b.add("r.pago_estado = " + b.bind(s))
	}
	if s, ok := asString(filters["propiedad_id"]); ok {
		b.add("r.propiedad_id = " + b.bind(s))
	}
}

func applyPropertyFilters(b *condBuilder, filters map[string]interface{}) {
	if s, ok := asString(filters["tipo"]); ok {
		b.add("p.tipo = " + b.bind(s))
	}
	if s, ok := asString(filters["ciudad"]); ok {
		b.add("p.ciudad ILIKE '%' || " + b.bind(s) + " || '%'")
	}
	if v, ok := asBool(filters["es_destino_turistico"]); ok {
		b.add("p.es_destino_turistico = " + b.bind(v))
	}
}

func applyInvoiceFilters(b *condBuilder, filters map[string]interface{}) {
	if v, ok := asBool(filters["enviada"]); ok {
		b.add("f.enviada = " + b.bind(v))
	}
	if d, ok := asDate(filters["fecha_inicio"]); ok {
		b.add("f.creado_en >= " + b.bind(d))
	}
	if d, ok := asDate(filters["fecha_fin"]); ok {
		b.add("f.creado_en <= " + b.bind(d))
	}
}

func applyUserFilters(b *condBuilder, filters map[string]interface{}) {
	if v, ok := asBool(filters["is_active"]); ok {
		b.add("u.is_active = " + b.bind(v))
	}
	if d, ok := asDate(filters["fecha_inicio"]); ok {
		b.add("u.date_joined >= " + b.bind(d))
	}
	if d, ok := asDate(filters["fecha_fin"]); ok {
		b.add("u.date_joined <= " + b.bind(d))
	}
}

func applyFilters(b *condBuilder, t domain.ReportType, filters map[string]interface{}) {
	switch t {
	case domain.ReportReservas, domain.ReportIngresos, domain.ReportOcupacion:
		applyReservationFilters(b, filters)
	case domain.ReportPropiedades:
		applyPropertyFilters(b, filters)
	case domain.ReportFacturas:
		applyInvoiceFilters(b, filters)
	case domain.ReportUsuarios:
		applyUserFilters(b, filters)
	}
}

func asDate(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", false
	}
	return s, true
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// asBool accepts boolean literals only. String encodings like "true" are
// dropped, the same as any other unusable value.
func asBool(v interface{}) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}
