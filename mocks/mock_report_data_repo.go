package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"habita/internal/domain"
	"habita/internal/port"
)

type MockReportDataRepo struct {
	mock.Mock
}

func (m *MockReportDataRepo) QueryRows(ctx context.Context, q port.RowQuery) ([]map[string]interface{}, error) {
	args := m.Called(ctx, q)
	if rows := args.Get(0); rows != nil {
		return rows.([]map[string]interface{}), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportDataRepo) MonthlyRevenue(ctx context.Context, scope domain.Scope, filters map[string]interface{}) ([]domain.MonthlyRevenueRow, error) {
	args := m.Called(ctx, scope, filters)
	if rows := args.Get(0); rows != nil {
		return rows.([]domain.MonthlyRevenueRow), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportDataRepo) MonthlyReservedNights(ctx context.Context, scope domain.Scope, filters map[string]interface{}) ([]domain.MonthlyNightsRow, error) {
	args := m.Called(ctx, scope, filters)
	if rows := args.Get(0); rows != nil {
		return rows.([]domain.MonthlyNightsRow), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportDataRepo) PropertyCount(ctx context.Context, scope domain.Scope) (int, error) {
	args := m.Called(ctx, scope)
	return args.Int(0), args.Error(1)
}

func (m *MockReportDataRepo) ReservationAggregates(ctx context.Context, scope domain.Scope, filters map[string]interface{}) (domain.ReservationAggregates, error) {
	args := m.Called(ctx, scope, filters)
	return args.Get(0).(domain.ReservationAggregates), args.Error(1)
}

func (m *MockReportDataRepo) PropertyAggregates(ctx context.Context, scope domain.Scope, filters map[string]interface{}) (domain.PropertyAggregates, error) {
	args := m.Called(ctx, scope, filters)
	return args.Get(0).(domain.PropertyAggregates), args.Error(1)
}

func (m *MockReportDataRepo) InvoiceAggregates(ctx context.Context, scope domain.Scope, filters map[string]interface{}) (domain.InvoiceAggregates, error) {
	args := m.Called(ctx, scope, filters)
	return args.Get(0).(domain.InvoiceAggregates), args.Error(1)
}

func (m *MockReportDataRepo) ReservationsByStatus(ctx context.Context, scope domain.Scope, filters map[string]interface{}) ([]domain.GroupTotalRow, error) {
	args := m.Called(ctx, scope, filters)
	if rows := args.Get(0); rows != nil {
		return rows.([]domain.GroupTotalRow), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportDataRepo) RevenueByProperty(ctx context.Context, scope domain.Scope, filters map[string]interface{}, limit int) ([]domain.GroupTotalRow, error) {
	args := m.Called(ctx, scope, filters, limit)
	if rows := args.Get(0); rows != nil {
		return rows.([]domain.GroupTotalRow), args.Error(1)
	}
	return nil, args.Error(1)
}
