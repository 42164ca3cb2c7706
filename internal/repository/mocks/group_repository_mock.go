package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
)

// Mock GroupRepository
type GroupRepository struct {
	mock.Mock
}

var _ repository.GroupRepository = (*GroupRepository)(nil)

func (m *GroupRepository) Create(ctx context.Context, q repository.DBTX, group *models.ThingGroup) error {
	args := m.Called(ctx, q, group)
	return args.Error(0)
}

func (m *GroupRepository) GetByID(ctx context.Context, q repository.DBTX, id uuid.UUID) (*models.ThingGroup, error) {
	args := m.Called(ctx, q, id)
	var group *models.ThingGroup
	if args.Get(0) != nil {
		group = args.Get(0).(*models.ThingGroup)
	}
	return group, args.Error(1)
}

func (m *GroupRepository) ListByMember(ctx context.Context, q repository.DBTX, userID uuid.UUID) ([]repository.GroupMembershipInfo, error) {
	args := m.Called(ctx, q, userID)
	var infos []repository.GroupMembershipInfo
	if args.Get(0) != nil {
		infos = args.Get(0).([]repository.GroupMembershipInfo)
	}
	return infos, args.Error(1)
}

func (m *GroupRepository) ListPublicExcludingMember(ctx context.Context, q repository.DBTX, userID uuid.UUID) ([]models.ThingGroup, error) {
	args := m.Called(ctx, q, userID)
	var groups []models.ThingGroup
	if args.Get(0) != nil {
		groups = args.Get(0).([]models.ThingGroup)
	}
	return groups, args.Error(1)
}

func (m *GroupRepository) AddMember(ctx context.Context, q repository.DBTX, membership *models.GroupMembership) error {
	args := m.Called(ctx, q, membership)
	return args.Error(0)
}

func (m *GroupRepository) GetMembership(ctx context.Context, q repository.DBTX, userID, groupID uuid.UUID) (*models.GroupMembership, error) {
	args := m.Called(ctx, q, userID, groupID)
	var membership *models.GroupMembership
	if args.Get(0) != nil {
		membership = args.Get(0).(*models.GroupMembership)
	}
	return membership, args.Error(1)
}

func (m *GroupRepository) IsMemberOfAny(ctx context.Context, q repository.DBTX, userID uuid.UUID, groupIDs []uuid.UUID) (bool, error) {
	args := m.Called(ctx, q, userID, groupIDs)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepository) MemberCount(ctx context.Context, q repository.DBTX, groupID uuid.UUID) (int, error) {
	args := m.Called(ctx, q, groupID)
	return args.Int(0), args.Error(1)
}
