package domain

// ReportType identifies a reportable entity collection. The string values
// are the wire names used by the API and by the NL generation path.
type ReportType string

const (
	ReportReservas    ReportType = "reservas"
	ReportPropiedades ReportType = "propiedades"
	ReportUsuarios    ReportType = "usuarios"
	ReportFacturas    ReportType = "facturas"
	ReportIngresos    ReportType = "ingresos"
	ReportOcupacion   ReportType = "ocupacion"
)

// RowBased reports project individual rows; the remaining types
// (ingresos, ocupacion) are monthly aggregations derived from reservas.
func (t ReportType) RowBased() bool {
	switch t {
	case ReportReservas, ReportPropiedades, ReportUsuarios, ReportFacturas:
		return true
	}
	return false
}

// ReservationBacked reports run against the reservation collection,
// directly or as a derived aggregation.
func (t ReportType) ReservationBacked() bool {
	switch t {
	case ReportReservas, ReportIngresos, ReportOcupacion:
		return true
	}
	return false
}
