package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
)

// Mock ThingRepository
type ThingRepository struct {
	mock.Mock
}

var _ repository.ThingRepository = (*ThingRepository)(nil)

func (m *ThingRepository) Create(ctx context.Context, q repository.DBTX, thing *models.Thing) error {
	args := m.Called(ctx, q, thing)
	return args.Error(0)
}

func (m *ThingRepository) GetByID(ctx context.Context, q repository.DBTX, id uuid.UUID) (*models.Thing, error) {
	args := m.Called(ctx, q, id)
	var thing *models.Thing
	if args.Get(0) != nil {
		thing = args.Get(0).(*models.Thing)
	}
	return thing, args.Error(1)
}

func (m *ThingRepository) Update(ctx context.Context, q repository.DBTX, thing *models.Thing) error {
	args := m.Called(ctx, q, thing)
	return args.Error(0)
}

func (m *ThingRepository) Delete(ctx context.Context, q repository.DBTX, id uuid.UUID) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

func (m *ThingRepository) ListByUser(ctx context.Context, q repository.DBTX, userID uuid.UUID, filter repository.ThingFilter) ([]models.Thing, int, error) {
	args := m.Called(ctx, q, userID, filter)
	var things []models.Thing
	if args.Get(0) != nil {
		things = args.Get(0).([]models.Thing)
	}
	return things, args.Int(1), args.Error(2)
}

func (m *ThingRepository) ListByUserChronological(ctx context.Context, q repository.DBTX, userID uuid.UUID) ([]models.Thing, error) {
	args := m.Called(ctx, q, userID)
	var things []models.Thing
	if args.Get(0) != nil {
		things = args.Get(0).([]models.Thing)
	}
	return things, args.Error(1)
}

func (m *ThingRepository) ListCommunity(ctx context.Context, q repository.DBTX, filter repository.ThingFilter) ([]models.Thing, int, error) {
	args := m.Called(ctx, q, filter)
	var things []models.Thing
	if args.Get(0) != nil {
		things = args.Get(0).([]models.Thing)
	}
	return things, args.Int(1), args.Error(2)
}

func (m *ThingRepository) ListSharedWithGroup(ctx context.Context, q repository.DBTX, groupID uuid.UUID, filter repository.ThingFilter) ([]models.Thing, int, error) {
	args := m.Called(ctx, q, groupID, filter)
	var things []models.Thing
	if args.Get(0) != nil {
		things = args.Get(0).([]models.Thing)
	}
	return things, args.Int(1), args.Error(2)
}

func (m *ThingRepository) CommunityMoods(ctx context.Context, q repository.DBTX) ([]string, error) {
	args := m.Called(ctx, q)
	var moods []string
	if args.Get(0) != nil {
		moods = args.Get(0).([]string)
	}
	return moods, args.Error(1)
}

func (m *ThingRepository) SetSharedUsers(ctx context.Context, q repository.DBTX, thingID uuid.UUID, userIDs []uuid.UUID) error {
	args := m.Called(ctx, q, thingID, userIDs)
	return args.Error(0)
}

func (m *ThingRepository) SetSharedGroups(ctx context.Context, q repository.DBTX, thingID uuid.UUID, groupIDs []uuid.UUID) error {
	args := m.Called(ctx, q, thingID, groupIDs)
	return args.Error(0)
}

func (m *ThingRepository) SharedUserIDs(ctx context.Context, q repository.DBTX, thingID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, q, thingID)
	var ids []uuid.UUID
	if args.Get(0) != nil {
		ids = args.Get(0).([]uuid.UUID)
	}
	return ids, args.Error(1)
}

func (m *ThingRepository) SharedGroupIDs(ctx context.Context, q repository.DBTX, thingID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, q, thingID)
	var ids []uuid.UUID
	if args.Get(0) != nil {
		ids = args.Get(0).([]uuid.UUID)
	}
	return ids, args.Error(1)
}
