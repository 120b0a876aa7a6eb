package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"habita/internal/domain"
	"habita/internal/export"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Generate(ctx context.Context, caller domain.Caller, spec *domain.ReportSpec) (*domain.ReportDocument, error) {
	args := m.Called(ctx, caller, spec)
	if doc := args.Get(0); doc != nil {
		return doc.(*domain.ReportDocument), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) GenerateFromPrompt(ctx context.Context, caller domain.Caller, prompt, extra string) (*domain.ReportDocument, *domain.ReportSpec, error) {
	args := m.Called(ctx, caller, prompt, extra)
	var doc *domain.ReportDocument
	var spec *domain.ReportSpec
	if v := args.Get(0); v != nil {
		doc = v.(*domain.ReportDocument)
	}
	if v := args.Get(1); v != nil {
		spec = v.(*domain.ReportSpec)
	}
	return doc, spec, args.Error(2)
}

func (m *MockReportService) Export(ctx context.Context, caller domain.Caller, spec *domain.ReportSpec, format string) (*export.Result, error) {
	args := m.Called(ctx, caller, spec, format)
	if res := args.Get(0); res != nil {
		return res.(*export.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) ReservationSummary(ctx context.Context, caller domain.Caller, filters map[string]interface{}) (*domain.ReservationOverview, error) {
	args := m.Called(ctx, caller, filters)
	if s := args.Get(0); s != nil {
		return s.(*domain.ReservationOverview), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) History(ctx context.Context, caller domain.Caller, limit int) ([]domain.ReportHistoryRecord, error) {
	args := m.Called(ctx, caller, limit)
	if recs := args.Get(0); recs != nil {
		return recs.([]domain.ReportHistoryRecord), args.Error(1)
	}
	return nil, args.Error(1)
}
