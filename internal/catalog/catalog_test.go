package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habita/internal/domain"
)

func TestDescribeKnownTypes(t *testing.T) {
	cat := Default()
	for _, rt := range cat.Types() {
		entry, err := cat.Describe(rt)
		require.NoError(t, err, "type %s", rt)
		assert.NotEmpty(t, entry.Label)
		assert.NotEmpty(t, entry.Fields)
	}
}

func TestDescribeUnknownType(t *testing.T) {
	_, err := Default().Describe(domain.ReportType("inventado"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedReportType)
}

func TestRowBasedFieldsCarryColumns(t *testing.T) {
	cat := Default()
	for _, rt := range []domain.ReportType{domain.ReportReservas, domain.ReportPropiedades, domain.ReportFacturas, domain.ReportUsuarios} {
		entry, err := cat.Describe(rt)
		require.NoError(t, err)
		for _, f := range entry.Fields {
			assert.NotEmpty(t, f.Column, "%s.%s has no column", rt, f.Name)
		}
	}
}

func TestDefaultFieldsDeterministic(t *testing.T) {
	entry, err := Default().Describe(domain.ReportReservas)
	require.NoError(t, err)

	first := entry.DefaultFields(10)
	second := entry.DefaultFields(10)
	assert.Equal(t, first, second)
	assert.Len(t, first, 10)
	assert.Equal(t, "id", first[0])
}

func TestFieldLookup(t *testing.T) {
	entry, err := Default().Describe(domain.ReportReservas)
	require.NoError(t, err)

	f, ok := entry.Field("propiedad__nombre")
	require.True(t, ok)
	assert.Equal(t, "p.nombre", f.Column)

	_, ok = entry.Field("no_existe")
	assert.False(t, ok)
}

func TestReservationDerivedTypesShareFilters(t *testing.T) {
	cat := Default()
	for _, rt := range []domain.ReportType{domain.ReportIngresos, domain.ReportOcupacion} {
		entry, err := cat.Describe(rt)
		require.NoError(t, err)
		assert.True(t, entry.HasFilter("fecha_inicio"))
		assert.True(t, entry.HasFilter("status"))
		assert.True(t, entry.HasFilter("propiedad_id"))
	}
}

func TestMetaShape(t *testing.T) {
	meta := Default().Meta()
	require.Len(t, meta, 6)

	reservas, ok := meta["reservas"].(map[string]interface{})
	require.True(t, ok)
	campos, ok := reservas["campos"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, campos, "monto_total")

	monto, ok := campos["monto_total"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "money", monto["tipo"])
	assert.Contains(t, reservas, "filtros")
	assert.Contains(t, reservas, "agrupaciones")
}
