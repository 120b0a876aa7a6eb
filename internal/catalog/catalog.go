// Package catalog is the static registry of reportable entity types: which
// fields exist, their semantic types, which filters are permitted, and which
// groupings are valid. It is built once at process start and shared by
// reference; nothing mutates it at runtime.
package catalog

import (
	"fmt"

	"habita/internal/domain"
)

// Kind is the semantic type of a field or filter value.
type Kind string

const (
	KindNumber   Kind = "number"
	KindString   Kind = "string"
	KindDate     Kind = "date"
	KindDateTime Kind = "datetime"
	KindMoney    Kind = "money"
	KindBool     Kind = "bool"
	KindPercent  Kind = "percent"
)

// Field describes one projectable column of an entity type. Column is the
// SQL expression that produces it; derived report types (ingresos,
// ocupacion) compute their columns and leave it empty.
type Field struct {
	Name   string
	Label  string
	Kind   Kind
	Column string
}

// Filter describes one permitted filter key of an entity type.
type Filter struct {
	Name  string
	Label string
	Kind  Kind
}

// Entry is the catalog record for a single report type.
type Entry struct {
	Label     string
	Fields    []Field
	Filters   []Filter
	Groupings []string

	fieldIdx  map[string]int
	filterIdx map[string]bool
}

// Field looks up a field by name.
func (e *Entry) Field(name string) (Field, bool) {
	i, ok := e.fieldIdx[name]
	if !ok {
		return Field{}, false
	}
	return e.Fields[i], true
}

// HasFilter reports whether name is a permitted filter key.
func (e *Entry) HasFilter(name string) bool {
	return e.filterIdx[name]
}

// FieldNames returns all field names in declaration order.
func (e *Entry) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

// DefaultFields returns the first n field names in declaration order. The
// truncation is fixed so repeated calls are deterministic.
func (e *Entry) DefaultFields(n int) []string {
	names := e.FieldNames()
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// Catalog maps report types to their entries.
type Catalog struct {
	order   []domain.ReportType
	entries map[domain.ReportType]*Entry
}

// Describe returns the entry for a report type, or ErrUnsupportedReportType
// when the type is not in the registry. Callers must treat that as a client
// error, not a server fault.
func (c *Catalog) Describe(t domain.ReportType) (*Entry, error) {
	e, ok := c.entries[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedReportType, t)
	}
	return e, nil
}

// Types returns every registered report type in declaration order.
func (c *Catalog) Types() []domain.ReportType {
	out := make([]domain.ReportType, len(c.order))
	copy(out, c.order)
	return out
}

// Meta renders the catalog in the wire shape consumed by report builders
// and embedded as the allow-list in NL generation prompts.
func (c *Catalog) Meta() map[string]interface{} {
	meta := make(map[string]interface{}, len(c.order))
	for _, t := range c.order {
		e := c.entries[t]
		campos := make(map[string]interface{}, len(e.Fields))
		for _, f := range e.Fields {
			campos[f.Name] = map[string]interface{}{"label": f.Label, "tipo": string(f.Kind)}
		}
		filtros := make(map[string]interface{}, len(e.Filters))
		for _, f := range e.Filters {
			filtros[f.Name] = map[string]interface{}{"label": f.Label, "tipo": string(f.Kind)}
		}
		meta[string(t)] = map[string]interface{}{
			"label":        e.Label,
			"campos":       campos,
			"filtros":      filtros,
			"agrupaciones": e.Groupings,
		}
	}
	return meta
}

var defaultCatalog = build()

// Default returns the process-wide catalog.
func Default() *Catalog {
	return defaultCatalog
}

func newEntry(label string, fields []Field, filters []Filter, groupings []string) *Entry {
	e := &Entry{
		Label:     label,
		Fields:    fields,
		Filters:   filters,
		Groupings: groupings,
		fieldIdx:  make(map[string]int, len(fields)),
		filterIdx: make(map[string]bool, len(filters)),
	}
	for i, f := range fields {
		e.fieldIdx[f.Name] = i
	}
	for _, f := range filters {
		e.filterIdx[f.Name] = true
	}
	return e
}

func build() *Catalog {
	reservationFilters := []Filter{
		{Name: "fecha_inicio", Label: "Fecha inicio (check-in >=)", Kind: KindDate},
		{Name: "fecha_fin", Label: "Fecha fin (check-out <=)", Kind: KindDate},
		{Name: "status", Label: "Estado reserva", Kind: KindString},
		{Name: "pago_estado", Label: "Estado pago", Kind: KindString},
		{Name: "propiedad_id", Label: "Propiedad", Kind: KindString},
	}

	reservas := newEntry("Reservas",
		[]Field{
			{Name: "id", Label: "ID", Kind: KindString, Column: "r.id"},
			{Name: "fecha_checkin", Label: "Check-in", Kind: KindDate, Column: "r.fecha_checkin"},
			{Name: "fecha_checkout", Label: "Check-out", Kind: KindDate, Column: "r.fecha_checkout"},
			{Name: "status", Label: "Estado", Kind: KindString, Column: "r.status"},
			{Name: "pago_estado", Label: "Estado de pago", Kind: KindString, Column: "r.pago_estado"},
			{Name: "monto_total", Label: "Monto total", Kind: KindMoney, Column: "r.monto_total"},
			{Name: "descuento", Label: "Descuento", Kind: KindMoney, Column: "r.descuento"},
			{Name: "cant_huesp", Label: "Cantidad huéspedes", Kind: KindNumber, Column: "r.cant_huesp"},
			{Name: "cant_noches", Label: "Noches", Kind: KindNumber, Column: "r.cant_noches"},
			{Name: "propiedad__id", Label: "ID Propiedad", Kind: KindString, Column: "p.id"},
			{Name: "propiedad__nombre", Label: "Propiedad", Kind: KindString, Column: "p.nombre"},
			{Name: "user__correo", Label: "Correo huésped", Kind: KindString, Column: "u.correo"},
		},
		reservationFilters,
		[]string{"status", "propiedad", "mes"},
	)

	propiedades := newEntry("Propiedades",
		[]Field{
			{Name: "id", Label: "ID", Kind: KindString, Column: "p.id"},
			{Name: "nombre", Label: "Nombre", Kind: KindString, Column: "p.nombre"},
			{Name: "tipo", Label: "Tipo", Kind: KindString, Column: "p.tipo"},
			{Name: "precio_noche", Label: "Precio/noche", Kind: KindMoney, Column: "p.precio_noche"},
			{Name: "max_huespedes", Label: "Máx. huéspedes", Kind: KindNumber, Column: "p.max_huespedes"},
			{Name: "ciudad", Label: "Ciudad", Kind: KindString, Column: "p.ciudad"},
			{Name: "departamento", Label: "Departamento", Kind: KindString, Column: "p.departamento"},
			{Name: "pais", Label: "País", Kind: KindString, Column: "p.pais"},
			{Name: "es_destino_turistico", Label: "Destino turístico", Kind: KindBool, Column: "p.es_destino_turistico"},
			{Name: "creado_en", Label: "Creado", Kind: KindDateTime, Column: "p.creado_en"},
		},
		[]Filter{
			{Name: "tipo", Label: "Tipo", Kind: KindString},
			{Name: "ciudad", Label: "Ciudad", Kind: KindString},
			{Name: "es_destino_turistico", Label: "Destino turístico", Kind: KindBool},
		},
		[]string{"tipo", "ciudad"},
	)

	facturas := newEntry("Facturas",
		[]Field{
			{Name: "id", Label: "ID", Kind: KindString, Column: "f.id"},
			{Name: "nit_ci", Label: "NIT/CI", Kind: KindString, Column: "f.nit_ci"},
			{Name: "nombre", Label: "Nombre", Kind: KindString, Column: "f.nombre"},
			{Name: "total", Label: "Total", Kind: KindMoney, Column: "f.total"},
			{Name: "enviada", Label: "Enviada", Kind: KindBool, Column: "f.enviada"},
			{Name: "creado_en", Label: "Creado", Kind: KindDateTime, Column: "f.creado_en"},
			{Name: "reserva__id", Label: "ID Reserva", Kind: KindString, Column: "r.id"},
			{Name: "reserva__propiedad__nombre", Label: "Propiedad", Kind: KindString, Column: "p.nombre"},
		},
		[]Filter{
			{Name: "enviada", Label: "Enviada", Kind: KindBool},
			{Name: "fecha_inicio", Label: "Fecha inicio (creado >=)", Kind: KindDate},
			{Name: "fecha_fin", Label: "Fecha fin (creado <=)", Kind: KindDate},
		},
		[]string{"enviada", "mes"},
	)

	usuarios := newEntry("Usuarios (solo admin)",
		[]Field{
			{Name: "id", Label: "ID", Kind: KindString, Column: "u.id"},
			{Name: "username", Label: "Username", Kind: KindString, Column: "u.username"},
			{Name: "correo", Label: "Correo", Kind: KindString, Column: "u.correo"},
			{Name: "n_cel", Label: "Celular", Kind: KindString, Column: "u.n_cel"},
			{Name: "fecha_nac", Label: "Fecha nac.", Kind: KindDate, Column: "u.fecha_nac"},
			{Name: "is_active", Label: "Activo", Kind: KindBool, Column: "u.is_active"},
			{Name: "is_admin", Label: "Admin", Kind: KindBool, Column: "u.is_admin"},
			{Name: "date_joined", Label: "Registro", Kind: KindDateTime, Column: "u.date_joined"},
		},
		[]Filter{
			{Name: "is_active", Label: "Activo", Kind: KindBool},
			{Name: "fecha_inicio", Label: "Fecha inicio (registro >=)", Kind: KindDate},
			{Name: "fecha_fin", Label: "Fecha fin (registro <=)", Kind: KindDate},
		},
		[]string{"is_active", "mes"},
	)

	ingresos := newEntry("Ingresos (derivado de reservas)",
		[]Field{
			{Name: "mes", Label: "Mes", Kind: KindString},
			{Name: "total", Label: "Total", Kind: KindMoney},
			{Name: "count", Label: "Reservas", Kind: KindNumber},
		},
		reservationFilters,
		[]string{"mes"},
	)

	ocupacion := newEntry("Ocupación (estimada)",
		[]Field{
			{Name: "mes", Label: "Mes", Kind: KindString},
			{Name: "noches_reservadas", Label: "Noches reservadas", Kind: KindNumber},
			{Name: "noches_posibles", Label: "Noches posibles", Kind: KindNumber},
			{Name: "ocupacion", Label: "Ocupación", Kind: KindPercent},
		},
		reservationFilters,
		[]string{"mes"},
	)

	return &Catalog{
		order: []domain.ReportType{
			domain.ReportReservas,
			domain.ReportPropiedades,
			domain.ReportFacturas,
			domain.ReportUsuarios,
			domain.ReportIngresos,
			domain.ReportOcupacion,
		},
		entries: map[domain.ReportType]*Entry{
			domain.ReportReservas:    reservas,
			domain.ReportPropiedades: propiedades,
			domain.ReportFacturas:    facturas,
			domain.ReportUsuarios:    usuarios,
			domain.ReportIngresos:    ingresos,
			domain.ReportOcupacion:   ocupacion,
		},
	}
}
