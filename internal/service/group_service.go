package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
)

// CreateGroupInput carries the fields for a new sharing group.
type CreateGroupInput struct {
	Name             string
	Description      string
	IsPrivate        bool
	RequiresApproval bool
}

// GroupOverview is the groups page payload: the caller's memberships plus
// joinable public groups.
type GroupOverview struct {
	Memberships  []repository.GroupMembershipInfo `json:"memberships"`
	PublicGroups []models.ThingGroup              `json:"publicGroups"`
}

// InviteResult reports the outcome of a batch invitation.
type InviteResult struct {
	Invited []uuid.UUID `json:"invited"`
	Skipped []uuid.UUID `json:"skipped"` // already members
}

// GroupService owns sharing groups: creation, membership and the view of
// things shared into a group.
type GroupService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateGroupInput) (*models.ThingGroup, error)
	Overview(ctx context.Context, userID uuid.UUID) (*GroupOverview, error)
	// Invite adds the given users as members. The inviter must be an admin
	// or moderator of the group; users who are already members are skipped.
	Invite(ctx context.Context, inviterID, groupID uuid.UUID, userIDs []uuid.UUID) (*InviteResult, error)
	// Things lists the things shared with the group. The caller must be a
	// member.
	Things(ctx context.Context, userID, groupID uuid.UUID, filter repository.ThingFilter) (*ThingPage, error)
}

// Compile-time check
var _ GroupService = (*groupServiceImpl)(nil)

type groupServiceImpl struct {
	tx        repository.Transactor
	groupRepo repository.GroupRepository
	thingRepo repository.ThingRepository
	logger    *zap.Logger
}

// NewGroupService creates a GroupService.
func NewGroupService(
	tx repository.Transactor,
	groupRepo repository.GroupRepository,
	thingRepo repository.ThingRepository,
	logger *zap.Logger,
) GroupService {
	return &groupServiceImpl{
		tx:        tx,
		groupRepo: groupRepo,
		thingRepo: thingRepo,
		logger:    logger.Named("GroupService"),
	}
}

func (s *groupServiceImpl) Create(ctx context.Context, userID uuid.UUID, input CreateGroupInput) (*models.ThingGroup, error) {
	if input.Name == "" {
		return nil, models.ErrInvalidInput
	}

	now := time.Now().UTC()
	group := &models.ThingGroup{
		ID:               uuid.New(),
		Name:             input.Name,
		Description:      input.Description,
		CreatorID:        userID,
		IsPrivate:        input.IsPrivate,
		RequiresApproval: input.RequiresApproval,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// The creator joins as admin in the same transaction.
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := s.groupRepo.Create(ctx, tx, group); err != nil {
			return err
		}
		membership := &models.GroupMembership{
			ID:       uuid.New(),
			UserID:   userID,
			GroupID:  group.ID,
			Role:     models.RoleAdmin,
			JoinedAt: now,
		}
		return s.groupRepo.AddMember(ctx, tx, membership)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Group created",
		zap.String("groupID", group.ID.String()),
		zap.String("creatorID", userID.String()))
	return group, nil
}

func (s *groupServiceImpl) Overview(ctx context.Context, userID uuid.UUID) (*GroupOverview, error) {
	memberships, err := s.groupRepo.ListByMember(ctx, s.tx.Pool(), userID)
	if err != nil {
		return nil, err
	}
	public, err := s.groupRepo.ListPublicExcludingMember(ctx, s.tx.Pool(), userID)
	if err != nil {
		return nil, err
	}
	if memberships == nil {
		memberships = []repository.GroupMembershipInfo{}
	}
	if public == nil {
		public = []models.ThingGroup{}
	}
	return &GroupOverview{Memberships: memberships, PublicGroups: public}, nil
}

func (s *groupServiceImpl) Invite(ctx context.Context, inviterID, groupID uuid.UUID, userIDs []uuid.UUID) (*InviteResult, error) {
	if _, err := s.groupRepo.GetByID(ctx, s.tx.Pool(), groupID); err != nil {
		return nil, err
	}

	membership, err := s.groupRepo.GetMembership(ctx, s.tx.Pool(), inviterID, groupID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotMember
		}
		return nil, err
	}
	if !membership.Role.CanInvite() {
		return nil, models.ErrForbidden
	}

	result := &InviteResult{Invited: []uuid.UUID{}, Skipped: []uuid.UUID{}}
	now := time.Now().UTC()
	for _, userID := range userIDs {
		m := &models.GroupMembership{
			ID:        uuid.New(),
			UserID:    userID,
			GroupID:   groupID,
			Role:      models.RoleMember,
			InvitedBy: &inviterID,
			JoinedAt:  now,
		}
		if err := s.groupRepo.AddMember(ctx, s.tx.Pool(), m); err != nil {
			if errors.Is(err, models.ErrAlreadyMember) {
				result.Skipped = append(result.Skipped, userID)
				continue
			}
			return nil, err
		}
		result.Invited = append(result.Invited, userID)
	}

	s.logger.Info("Members invited",
		zap.String("groupID", groupID.String()),
		zap.Int("invited", len(result.Invited)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (s *groupServiceImpl) Things(ctx context.Context, userID, groupID uuid.UUID, filter repository.ThingFilter) (*ThingPage, error) {
	if _, err := s.groupRepo.GetByID(ctx, s.tx.Pool(), groupID); err != nil {
		return nil, err
	}
	if _, err := s.groupRepo.GetMembership(ctx, s.tx.Pool(), userID, groupID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotMember
		}
		return nil, err
	}

	things, total, err := s.thingRepo.ListSharedWithGroup(ctx, s.tx.Pool(), groupID, filter)
	if err != nil {
		return nil, err
	}
	if things == nil {
		things = []models.Thing{}
	}
	return &ThingPage{Things: things, Total: total}, nil
}
