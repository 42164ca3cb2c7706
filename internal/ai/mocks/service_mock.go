package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"thing-journal-server/internal/ai"
)

// Mock Service
type Service struct {
	mock.Mock
}

var _ ai.Service = (*Service)(nil)

func (m *Service) TranscribeAudio(ctx context.Context, filename string, audio []byte) (string, error) {
	args := m.Called(ctx, filename, audio)
	return args.String(0), args.Error(1)
}

func (m *Service) AnalyzeThing(ctx context.Context, text string) (*ai.Analysis, error) {
	args := m.Called(ctx, text)
	var analysis *ai.Analysis
	if args.Get(0) != nil {
		analysis = args.Get(0).(*ai.Analysis)
	}
	return analysis, args.Error(1)
}

func (m *Service) FindPatterns(ctx context.Context, things []ai.ThingInput) ([]ai.PatternResult, error) {
	args := m.Called(ctx, things)
	var results []ai.PatternResult
	if args.Get(0) != nil {
		results = args.Get(0).([]ai.PatternResult)
	}
	return results, args.Error(1)
}

func (m *Service) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}
