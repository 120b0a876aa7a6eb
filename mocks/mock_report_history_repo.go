package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"habita/internal/domain"
)

type MockReportHistoryRepo struct {
	mock.Mock
}

func (m *MockReportHistoryRepo) Insert(ctx context.Context, rec *domain.ReportHistoryRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockReportHistoryRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ReportHistoryRecord, error) {
	args := m.Called(ctx, userID, limit)
	if recs := args.Get(0); recs != nil {
		return recs.([]domain.ReportHistoryRecord), args.Error(1)
	}
	return nil, args.Error(1)
}
