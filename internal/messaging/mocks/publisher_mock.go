package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"thing-journal-server/internal/messaging"
)

// MockAnalysisTaskPublisher is a mock of AnalysisTaskPublisher.
type MockAnalysisTaskPublisher struct {
	mock.Mock
}

func (m *MockAnalysisTaskPublisher) PublishAnalysisTask(ctx context.Context, payload messaging.AnalysisTaskPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
