package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/search"
)

// Mock Index
type Index struct {
	mock.Mock
}

var _ search.Index = (*Index)(nil)

func (m *Index) SaveThing(ctx context.Context, thing *models.Thing) error {
	args := m.Called(ctx, thing)
	return args.Error(0)
}

func (m *Index) DeleteThing(ctx context.Context, thingID string) error {
	args := m.Called(ctx, thingID)
	return args.Error(0)
}

func (m *Index) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	args := m.Called(ctx, q)
	var result *search.Result
	if args.Get(0) != nil {
		result = args.Get(0).(*search.Result)
	}
	return result, args.Error(1)
}

func (m *Index) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}
