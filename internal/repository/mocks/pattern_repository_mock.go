package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
)

// Mock PatternRepository
type PatternRepository struct {
	mock.Mock
}

var _ repository.PatternRepository = (*PatternRepository)(nil)

func (m *PatternRepository) Upsert(ctx context.Context, q repository.DBTX, pattern *models.ThingPattern) error {
	args := m.Called(ctx, q, pattern)
	return args.Error(0)
}

func (m *PatternRepository) ListByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID) ([]models.ThingPattern, error) {
	args := m.Called(ctx, q, userID)
	var patterns []models.ThingPattern
	if args.Get(0) != nil {
		patterns = args.Get(0).([]models.ThingPattern)
	}
	return patterns, args.Error(1)
}

func (m *PatternRepository) CountByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, q, userID)
	return args.Int(0), args.Error(1)
}

func (m *PatternRepository) CountRecurring(ctx context.Context, q repository.DBTX, userID uuid.UUID, patternType models.PatternType, minOccurrences int) (int, error) {
	args := m.Called(ctx, q, userID, patternType, minOccurrences)
	return args.Int(0), args.Error(1)
}

func (m *PatternRepository) LinkOccurrence(ctx context.Context, q repository.DBTX, occurrence *models.PatternOccurrence) error {
	args := m.Called(ctx, q, occurrence)
	return args.Error(0)
}

func (m *PatternRepository) ListOccurrencesByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID) ([]models.PatternOccurrence, error) {
	args := m.Called(ctx, q, userID)
	var occurrences []models.PatternOccurrence
	if args.Get(0) != nil {
		occurrences = args.Get(0).([]models.PatternOccurrence)
	}
	return occurrences, args.Error(1)
}

func (m *PatternRepository) UpsertConnection(ctx context.Context, q repository.DBTX, conn *models.PatternConnection) error {
	args := m.Called(ctx, q, conn)
	return args.Error(0)
}

func (m *PatternRepository) ListConnectionsByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID) ([]models.PatternConnection, error) {
	args := m.Called(ctx, q, userID)
	var conns []models.PatternConnection
	if args.Get(0) != nil {
		conns = args.Get(0).([]models.PatternConnection)
	}
	return conns, args.Error(1)
}
