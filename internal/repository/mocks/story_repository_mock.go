package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

var _ repository.StoryRepository = (*StoryRepository)(nil)

func (m *StoryRepository) Create(ctx context.Context, q repository.DBTX, story *models.Story) error {
	args := m.Called(ctx, q, story)
	return args.Error(0)
}

func (m *StoryRepository) GetByID(ctx context.Context, q repository.DBTX, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, q, id)
	var story *models.Story
	if args.Get(0) != nil {
		story = args.Get(0).(*models.Story)
	}
	return story, args.Error(1)
}

func (m *StoryRepository) Update(ctx context.Context, q repository.DBTX, story *models.Story) error {
	args := m.Called(ctx, q, story)
	return args.Error(0)
}

func (m *StoryRepository) Delete(ctx context.Context, q repository.DBTX, id uuid.UUID) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

func (m *StoryRepository) ListByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID) ([]models.Story, error) {
	args := m.Called(ctx, q, userID)
	var stories []models.Story
	if args.Get(0) != nil {
		stories = args.Get(0).([]models.Story)
	}
	return stories, args.Error(1)
}

func (m *StoryRepository) AddThing(ctx context.Context, q repository.DBTX, link *models.StoryThing) error {
	args := m.Called(ctx, q, link)
	return args.Error(0)
}

func (m *StoryRepository) ReplaceThings(ctx context.Context, q repository.DBTX, storyID uuid.UUID, links []models.StoryThing) error {
	args := m.Called(ctx, q, storyID, links)
	return args.Error(0)
}

func (m *StoryRepository) ListEntries(ctx context.Context, q repository.DBTX, storyID uuid.UUID) ([]models.StoryEntry, error) {
	args := m.Called(ctx, q, storyID)
	var entries []models.StoryEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]models.StoryEntry)
	}
	return entries, args.Error(1)
}

func (m *StoryRepository) ListStoryIDsByThing(ctx context.Context, q repository.DBTX, thingID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, q, thingID)
	var ids []uuid.UUID
	if args.Get(0) != nil {
		ids = args.Get(0).([]uuid.UUID)
	}
	return ids, args.Error(1)
}

func (m *StoryRepository) CompactPositions(ctx context.Context, q repository.DBTX, storyID uuid.UUID) error {
	args := m.Called(ctx, q, storyID)
	return args.Error(0)
}

func (m *StoryRepository) RecordPlay(ctx context.Context, q repository.DBTX, storyID uuid.UUID) error {
	args := m.Called(ctx, q, storyID)
	return args.Error(0)
}
