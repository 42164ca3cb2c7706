package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
)

// Mock ImageRepository
type ImageRepository struct {
	mock.Mock
}

var _ repository.ImageRepository = (*ImageRepository)(nil)

func (m *ImageRepository) Create(ctx context.Context, q repository.DBTX, image *models.ThingImage) error {
	args := m.Called(ctx, q, image)
	return args.Error(0)
}

func (m *ImageRepository) ListByThing(ctx context.Context, q repository.DBTX, thingID uuid.UUID) ([]models.ThingImage, error) {
	args := m.Called(ctx, q, thingID)
	var images []models.ThingImage
	if args.Get(0) != nil {
		images = args.Get(0).([]models.ThingImage)
	}
	return images, args.Error(1)
}

// Mock TagRepository
type TagRepository struct {
	mock.Mock
}

var _ repository.TagRepository = (*TagRepository)(nil)

func (m *TagRepository) GetOrCreate(ctx context.Context, q repository.DBTX, name string, createdBy uuid.UUID) (*models.ThingTag, error) {
	args := m.Called(ctx, q, name, createdBy)
	var tag *models.ThingTag
	if args.Get(0) != nil {
		tag = args.Get(0).(*models.ThingTag)
	}
	return tag, args.Error(1)
}

func (m *TagRepository) ReplaceThingTags(ctx context.Context, q repository.DBTX, thingID uuid.UUID, tagIDs []uuid.UUID) error {
	args := m.Called(ctx, q, thingID, tagIDs)
	return args.Error(0)
}

func (m *TagRepository) ListByThing(ctx context.Context, q repository.DBTX, thingID uuid.UUID) ([]models.ThingTag, error) {
	args := m.Called(ctx, q, thingID)
	var tags []models.ThingTag
	if args.Get(0) != nil {
		tags = args.Get(0).([]models.ThingTag)
	}
	return tags, args.Error(1)
}

// Mock ShareHistoryRepository
type ShareHistoryRepository struct {
	mock.Mock
}

var _ repository.ShareHistoryRepository = (*ShareHistoryRepository)(nil)

func (m *ShareHistoryRepository) Create(ctx context.Context, q repository.DBTX, record *models.ShareHistory) error {
	args := m.Called(ctx, q, record)
	return args.Error(0)
}

func (m *ShareHistoryRepository) ListByThing(ctx context.Context, q repository.DBTX, thingID uuid.UUID) ([]models.ShareHistory, error) {
	args := m.Called(ctx, q, thingID)
	var records []models.ShareHistory
	if args.Get(0) != nil {
		records = args.Get(0).([]models.ShareHistory)
	}
	return records, args.Error(1)
}
