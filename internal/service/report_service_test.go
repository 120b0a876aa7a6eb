package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"habita/internal/catalog"
	"habita/internal/domain"
	"habita/internal/export"
	"habita/internal/port"
	"habita/mocks"
)

func newService(data port.ReportDataRepository, history port.ReportHistoryRepository, gen port.SpecGenerator, strict bool) *ReportService {
	return NewReportService(catalog.Default(), data, history, gen, export.NewRegistry(), strict)
}

func admin() domain.Caller {
	return domain.Caller{UserID: uuid.New(), Email: "admin@habita.bo", IsAdmin: true}
}

func owner() domain.Caller {
	return domain.Caller{UserID: uuid.New(), Email: "dueno@habita.bo"}
}

func boolPtr(b bool) *bool { return &b }

func TestGenerateReservationsSummary(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	history := &mocks.MockReportHistoryRepo{}
	svc := newService(data, history, nil, false)

	data.On("QueryRows", mock.Anything, mock.Anything).Return([]map[string]interface{}{
		{"id": "r-1", "monto_total": 100.0},
		{"id": "r-2", "monto_total": 200.0},
	}, nil)
	data.On("ReservationAggregates", mock.Anything, mock.Anything, mock.Anything).Return(domain.ReservationAggregates{
		Count:     2,
		Revenue:   decimal.NewFromInt(300),
		AvgAmount: decimal.NewFromInt(150),
		Discounts: decimal.Zero,
	}, nil)
	data.On("ReservationsByStatus", mock.Anything, mock.Anything, mock.Anything).Return([]domain.GroupTotalRow{
		{Label: "confirmada", Count: 2, Total: decimal.NewFromInt(300)},
	}, nil)
	data.On("RevenueByProperty", mock.Anything, mock.Anything, mock.Anything, 10).Return([]domain.GroupTotalRow{
		{Label: "Casa Azul", Count: 2, Total: decimal.NewFromInt(300)},
	}, nil)
	data.On("MonthlyRevenue", mock.Anything, mock.Anything, mock.Anything).Return([]domain.MonthlyRevenueRow{
		{Month: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Count: 2, Total: decimal.NewFromInt(300)},
	}, nil)
	history.On("Insert", mock.Anything, mock.Anything).Return(nil)

	doc, err := svc.Generate(context.Background(), admin(), &domain.ReportSpec{ReportType: domain.ReportReservas})

	require.NoError(t, err)
	assert.Equal(t, 300.0, doc.Summary["total_ingresos"])
	assert.Equal(t, 150.0, doc.Summary["ingreso_promedio"])
	assert.Equal(t, 2.0, doc.Summary["total_registros"])
	assert.Len(t, doc.Charts, 3)
	assert.Equal(t, "2025-01", doc.Charts["tendencia_mensual"][0].Label)
	assert.NotEmpty(t, doc.Insights)
	assert.False(t, doc.GeneratedAt.IsZero())
	assert.Equal(t, time.UTC, doc.GeneratedAt.Location())
	history.AssertCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestReservationOverviewFiltersAndTrend(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	filters := map[string]interface{}{"fecha_inicio": "2025-01-01", "fecha_fin": "2025-08-31"}

	months := make([]domain.MonthlyRevenueRow, 0, 8)
	for i := 0; i < 8; i++ {
		months = append(months, domain.MonthlyRevenueRow{
			Month: time.Date(2025, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
			Count: i + 1,
			Total: decimal.NewFromInt(int64(100 * (i + 1))),
		})
	}

	data.On("ReservationAggregates", mock.Anything, mock.Anything, filters).Return(domain.ReservationAggregates{
		Count:     36,
		Revenue:   decimal.NewFromInt(3600),
		AvgAmount: decimal.NewFromInt(100),
	}, nil)
	data.On("ReservationsByStatus", mock.Anything, mock.Anything, filters).Return([]domain.GroupTotalRow{
		{Label: "confirmada", Count: 30, Total: decimal.NewFromInt(3000)},
		{Label: "cancelada", Count: 6, Total: decimal.NewFromInt(600)},
	}, nil)
	data.On("RevenueByProperty", mock.Anything, mock.Anything, filters, 5).Return([]domain.GroupTotalRow{
		{Label: "Casa Azul", Count: 20, Total: decimal.NewFromInt(2000)},
	}, nil)
	data.On("MonthlyRevenue", mock.Anything, mock.Anything, filters).Return(months, nil)

	overview, err := svc.ReservationSummary(context.Background(), owner(), filters)

	require.NoError(t, err)
	assert.Equal(t, 36.0, overview.Summary["total_registros"])
	assert.Equal(t, 100.0, overview.Summary["ingreso_promedio"])
	assert.Len(t, overview.ByStatus, 2)
	assert.Len(t, overview.TopProperties, 1)
	// Only the six most recent months make the trend.
	require.Len(t, overview.MonthlyTrend, 6)
	assert.Equal(t, "2025-03", overview.MonthlyTrend[0].Label)
	assert.Equal(t, "2025-08", overview.MonthlyTrend[5].Label)
	data.AssertExpectations(t)
}

func TestGenerateIsRepeatable(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	data.On("QueryRows", mock.Anything, mock.Anything).Return([]map[string]interface{}{
		{"id": "p-1", "nombre": "Casa Azul"},
	}, nil)
	data.On("PropertyAggregates", mock.Anything, mock.Anything, mock.Anything).Return(domain.PropertyAggregates{
		Count:         1,
		AvgPriceNight: decimal.NewFromFloat(250.5),
	}, nil)

	spec := &domain.ReportSpec{ReportType: domain.ReportPropiedades, Fields: []string{"id", "nombre"}}
	first, err := svc.Generate(context.Background(), admin(), spec)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), admin(), spec)
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Fields, second.Fields)
}

func TestGenerateDefaultsToFirstTenFields(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	var captured port.RowQuery
	data.On("QueryRows", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(port.RowQuery)
	}).Return([]map[string]interface{}{}, nil)
	data.On("ReservationAggregates", mock.Anything, mock.Anything, mock.Anything).Return(domain.ReservationAggregates{}, nil)
	data.On("ReservationsByStatus", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	data.On("RevenueByProperty", mock.Anything, mock.Anything, mock.Anything, 10).Return(nil, nil)
	data.On("MonthlyRevenue", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	doc, err := svc.Generate(context.Background(), admin(), &domain.ReportSpec{ReportType: domain.ReportReservas})

	require.NoError(t, err)
	assert.Len(t, doc.Fields, 10)
	assert.Len(t, captured.Columns, 10)
	assert.Equal(t, 100, captured.Limit)
}

func TestGenerateDropsUnknownFields(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	var captured port.RowQuery
	data.On("QueryRows", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(port.RowQuery)
	}).Return([]map[string]interface{}{}, nil)

	spec := &domain.ReportSpec{
		ReportType:    domain.ReportPropiedades,
		Fields:        []string{"nombre", "telepuerto", "ciudad"},
		IncludeStats:  boolPtr(false),
		IncludeCharts: boolPtr(false),
	}
	doc, err := svc.Generate(context.Background(), admin(), spec)

	require.NoError(t, err)
	assert.Equal(t, []string{"nombre", "ciudad"}, doc.Fields)
	assert.Len(t, captured.Columns, 2)
}

func TestGenerateStrictRejectsUnknownField(t *testing.T) {
	svc := newService(&mocks.MockReportDataRepo{}, nil, nil, true)

	spec := &domain.ReportSpec{
		ReportType: domain.ReportPropiedades,
		Fields:     []string{"nombre", "telepuerto"},
	}
	_, err := svc.Generate(context.Background(), admin(), spec)
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestGenerateUnsupportedType(t *testing.T) {
	svc := newService(&mocks.MockReportDataRepo{}, nil, nil, false)

	_, err := svc.Generate(context.Background(), admin(), &domain.ReportSpec{ReportType: "inventado"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedReportType)
}

func TestGenerateUserReportForbiddenForOwner(t *testing.T) {
	svc := newService(&mocks.MockReportDataRepo{}, nil, nil, false)

	_, err := svc.Generate(context.Background(), owner(), &domain.ReportSpec{ReportType: domain.ReportUsuarios})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGenerateRevenueReport(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	data.On("MonthlyRevenue", mock.Anything, mock.Anything, mock.Anything).Return([]domain.MonthlyRevenueRow{
		{Month: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Count: 2, Total: decimal.NewFromInt(1000)},
		{Month: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Count: 1, Total: decimal.NewFromInt(500)},
	}, nil)
	data.On("ReservationAggregates", mock.Anything, mock.Anything, mock.Anything).Return(domain.ReservationAggregates{
		Count:     3,
		Revenue:   decimal.NewFromInt(1500),
		AvgAmount: decimal.NewFromInt(500),
		Discounts: decimal.NewFromInt(75),
	}, nil)

	doc, err := svc.Generate(context.Background(), admin(), &domain.ReportSpec{ReportType: domain.ReportIngresos})

	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "2025-01", doc.Rows[0]["mes"])
	assert.Equal(t, 1000.0, doc.Rows[0]["total"])
	// The summary carries the reservation aggregates: the count of
	// reservations and the per-reservation average, not per-month figures.
	assert.Equal(t, 3.0, doc.Summary["total_registros"])
	assert.Equal(t, 1500.0, doc.Summary["total_ingresos"])
	assert.Equal(t, 500.0, doc.Summary["ingreso_promedio"])
	assert.Equal(t, 75.0, doc.Summary["total_descuentos"])
	assert.Len(t, doc.Charts["tendencia_mensual"], 2)
}

func TestGenerateOccupancyReport(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	data.On("MonthlyReservedNights", mock.Anything, mock.Anything, mock.Anything).Return([]domain.MonthlyNightsRow{
		{Month: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Nights: 62},
	}, nil)
	data.On("PropertyCount", mock.Anything, mock.Anything).Return(2, nil)
	data.On("ReservationAggregates", mock.Anything, mock.Anything, mock.Anything).Return(domain.ReservationAggregates{Count: 4}, nil)

	doc, err := svc.Generate(context.Background(), admin(), &domain.ReportSpec{ReportType: domain.ReportOcupacion})

	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)
	// 62 reserved nights over 2 properties * 31 days of January, fully booked.
	assert.Equal(t, 1.0, doc.Rows[0]["ocupacion"])
	assert.Equal(t, int64(62), doc.Rows[0]["noches_posibles"])
	assert.Equal(t, 1.0, doc.Summary["ocupacion_promedio"])
	assert.Equal(t, 4.0, doc.Summary["total_registros"])
}

func TestGenerateOccupancyIsRatioNotPercent(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	data.On("MonthlyReservedNights", mock.Anything, mock.Anything, mock.Anything).Return([]domain.MonthlyNightsRow{
		{Month: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Nights: 31},
		{Month: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Nights: 14},
	}, nil)
	data.On("PropertyCount", mock.Anything, mock.Anything).Return(2, nil)
	data.On("ReservationAggregates", mock.Anything, mock.Anything, mock.Anything).Return(domain.ReservationAggregates{}, nil)

	doc, err := svc.Generate(context.Background(), admin(), &domain.ReportSpec{ReportType: domain.ReportOcupacion})

	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)
	// 31 of 62 possible nights and 14 of 56 possible nights.
	assert.Equal(t, 0.5, doc.Rows[0]["ocupacion"])
	assert.Equal(t, 0.25, doc.Rows[1]["ocupacion"])
	assert.Equal(t, 0.375, doc.Summary["ocupacion_promedio"])
	for _, row := range doc.Rows {
		v := row["ocupacion"].(float64)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestGenerateOccupancySkipsMonthsWithoutProperties(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	data.On("MonthlyReservedNights", mock.Anything, mock.Anything, mock.Anything).Return([]domain.MonthlyNightsRow{
		{Month: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Nights: 10},
	}, nil)
	data.On("PropertyCount", mock.Anything, mock.Anything).Return(0, nil)
	data.On("ReservationAggregates", mock.Anything, mock.Anything, mock.Anything).Return(domain.ReservationAggregates{}, nil)

	doc, err := svc.Generate(context.Background(), admin(), &domain.ReportSpec{ReportType: domain.ReportOcupacion})

	require.NoError(t, err)
	assert.Empty(t, doc.Rows)
	assert.Equal(t, 0.0, doc.Summary["ocupacion_promedio"])
}

func TestOrderByOutsideProjectionIsDropped(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	var captured port.RowQuery
	data.On("QueryRows", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(port.RowQuery)
	}).Return([]map[string]interface{}{}, nil)

	// precio_noche is a valid catalog field but not part of the projection.
	spec := &domain.ReportSpec{
		ReportType:    domain.ReportPropiedades,
		Fields:        []string{"nombre", "ciudad"},
		OrderBy:       "-precio_noche",
		IncludeStats:  boolPtr(false),
		IncludeCharts: boolPtr(false),
	}
	_, err := svc.Generate(context.Background(), admin(), spec)

	require.NoError(t, err)
	assert.Empty(t, captured.OrderBy)
}

func TestOrderByWithinProjectionApplies(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	var captured port.RowQuery
	data.On("QueryRows", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(port.RowQuery)
	}).Return([]map[string]interface{}{}, nil)

	spec := &domain.ReportSpec{
		ReportType:    domain.ReportPropiedades,
		Fields:        []string{"nombre", "precio_noche"},
		OrderBy:       "-precio_noche",
		IncludeStats:  boolPtr(false),
		IncludeCharts: boolPtr(false),
	}
	_, err := svc.Generate(context.Background(), admin(), spec)

	require.NoError(t, err)
	assert.Equal(t, "p.precio_noche DESC", captured.OrderBy)
}

func TestGenerateHistoryFailureDoesNotPropagate(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	history := &mocks.MockReportHistoryRepo{}
	svc := newService(data, history, nil, false)

	data.On("QueryRows", mock.Anything, mock.Anything).Return([]map[string]interface{}{}, nil)
	data.On("PropertyAggregates", mock.Anything, mock.Anything, mock.Anything).Return(domain.PropertyAggregates{}, nil)
	history.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := svc.Generate(context.Background(), admin(), &domain.ReportSpec{
		ReportType:    domain.ReportPropiedades,
		IncludeCharts: boolPtr(false),
	})

	assert.NoError(t, err)
	history.AssertCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestGenerateFromPromptRecordsProvenance(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	history := &mocks.MockReportHistoryRepo{}
	gen := &mocks.MockSpecGenerator{}
	svc := newService(data, history, gen, false)

	gen.On("Generate", mock.Anything, "reservas de enero", "").Return(port.GeneratedSpec{
		Spec:  domain.ReportSpec{ReportType: domain.ReportIngresos},
		Raw:   `{"tipo_reporte":"ingresos"}`,
		Model: "gpt-4o-mini",
	}, nil)
	data.On("MonthlyRevenue", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	data.On("ReservationAggregates", mock.Anything, mock.Anything, mock.Anything).Return(domain.ReservationAggregates{}, nil)

	var recorded *domain.ReportHistoryRecord
	history.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		recorded = args.Get(1).(*domain.ReportHistoryRecord)
	}).Return(nil)

	doc, spec, err := svc.GenerateFromPrompt(context.Background(), admin(), "reservas de enero", "")

	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, domain.ReportIngresos, spec.ReportType)
	require.NotNil(t, recorded)
	assert.Equal(t, "reservas de enero", recorded.Prompt)
	assert.Equal(t, `{"tipo_reporte":"ingresos"}`, recorded.AIResponse)
}

func TestGenerateFromPromptPropagatesModelError(t *testing.T) {
	gen := &mocks.MockSpecGenerator{}
	svc := newService(&mocks.MockReportDataRepo{}, nil, gen, false)

	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(port.GeneratedSpec{}, &domain.InvalidModelOutputError{
		Model:            "gpt-4o-mini",
		Raw:              "no soy JSON",
		ValidationErrors: []string{"la respuesta no es un objeto JSON válido"},
	})

	_, _, err := svc.GenerateFromPrompt(context.Background(), admin(), "algo", "")
	assert.ErrorIs(t, err, domain.ErrInvalidModelOutput)
}

func TestExportUsesRegistry(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	history := &mocks.MockReportHistoryRepo{}
	svc := newService(data, history, nil, false)

	data.On("QueryRows", mock.Anything, mock.Anything).Return([]map[string]interface{}{
		{"nombre": "Casa Azul", "ciudad": "La Paz"},
	}, nil)

	var recorded *domain.ReportHistoryRecord
	history.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		recorded = args.Get(1).(*domain.ReportHistoryRecord)
	}).Return(nil)

	res, err := svc.Export(context.Background(), admin(), &domain.ReportSpec{
		ReportType:    domain.ReportPropiedades,
		Fields:        []string{"nombre", "ciudad"},
		IncludeStats:  boolPtr(false),
		IncludeCharts: boolPtr(false),
	}, "csv")

	require.NoError(t, err)
	assert.Equal(t, "csv", res.Format)
	assert.Contains(t, res.Filename, "reporte_propiedades_")
	require.NotNil(t, recorded)
	assert.Equal(t, "csv", recorded.ExportFormat)
}

func TestExportUnknownFormat(t *testing.T) {
	data := &mocks.MockReportDataRepo{}
	svc := newService(data, nil, nil, false)

	data.On("QueryRows", mock.Anything, mock.Anything).Return([]map[string]interface{}{}, nil)

	_, err := svc.Export(context.Background(), admin(), &domain.ReportSpec{
		ReportType:    domain.ReportPropiedades,
		IncludeStats:  boolPtr(false),
		IncludeCharts: boolPtr(false),
	}, "docx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedExportFormat)
}

func TestHistoryLimitClamped(t *testing.T) {
	history := &mocks.MockReportHistoryRepo{}
	svc := newService(&mocks.MockReportDataRepo{}, history, nil, false)
	caller := admin()

	history.On("ListByUser", mock.Anything, caller.UserID, 20).Return([]domain.ReportHistoryRecord{}, nil).Once()
	history.On("ListByUser", mock.Anything, caller.UserID, 100).Return([]domain.ReportHistoryRecord{}, nil).Once()

	_, err := svc.History(context.Background(), caller, 0)
	require.NoError(t, err)
	_, err = svc.History(context.Background(), caller, 5000)
	require.NoError(t, err)
	history.AssertExpectations(t)
}
