package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"habita/internal/port"
)

type MockSpecGenerator struct {
	mock.Mock
}

func (m *MockSpecGenerator) Generate(ctx context.Context, prompt, extra string) (port.GeneratedSpec, error) {
	args := m.Called(ctx, prompt, extra)
	return args.Get(0).(port.GeneratedSpec), args.Error(1)
}
