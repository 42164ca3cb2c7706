package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
)

// Compile-time check
var _ GroupRepository = (*pgGroupRepository)(nil)

type pgGroupRepository struct {
	logger *zap.Logger
}

// NewPgGroupRepository creates a new PostgreSQL-backed GroupRepository.
func NewPgGroupRepository(logger *zap.Logger) GroupRepository {
	return &pgGroupRepository{logger: logger.Named("PgGroupRepo")}
}

func (r *pgGroupRepository) Create(ctx context.Context, q DBTX, group *models.ThingGroup) error {
	query := `
        INSERT INTO thing_groups
            (id, name, description, creator_id, is_private, requires_approval, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	logFields := []zap.Field{zap.String("groupID", group.ID.String()), zap.String("name", group.Name)}
	_, err := q.Exec(ctx, query,
		group.ID, group.Name, group.Description, group.CreatorID,
		group.IsPrivate, group.RequiresApproval, group.CreatedAt, group.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create group", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create group: %w", err)
	}
	r.logger.Info("Group created", logFields...)
	return nil
}

func (r *pgGroupRepository) GetByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.ThingGroup, error) {
	query := `
        SELECT id, name, description, creator_id, is_private, requires_approval, created_at, updated_at
        FROM thing_groups WHERE id = $1
    `
	group := &models.ThingGroup{}
	err := q.QueryRow(ctx, query, id).Scan(
		&group.ID, &group.Name, &group.Description, &group.CreatorID,
		&group.IsPrivate, &group.RequiresApproval, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get group %s: %w", id, err)
	}
	return group, nil
}

func (r *pgGroupRepository) ListByMember(ctx context.Context, q DBTX, userID uuid.UUID) ([]GroupMembershipInfo, error) {
	query := `
        SELECT g.id, g.name, g.description, g.creator_id, g.is_private, g.requires_approval,
               g.created_at, g.updated_at,
               m.role, m.joined_at,
               (SELECT COUNT(*) FROM group_memberships mc WHERE mc.group_id = g.id) AS member_count
        FROM thing_groups g
        JOIN group_memberships m ON m.group_id = g.id
        WHERE m.user_id = $1
        ORDER BY g.name
    `
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for user %s: %w", userID, err)
	}
	defer rows.Close()

	var infos []GroupMembershipInfo
	for rows.Next() {
		var info GroupMembershipInfo
		if err := rows.Scan(
			&info.Group.ID, &info.Group.Name, &info.Group.Description, &info.Group.CreatorID,
			&info.Group.IsPrivate, &info.Group.RequiresApproval,
			&info.Group.CreatedAt, &info.Group.UpdatedAt,
			&info.Role, &info.JoinedAt, &info.MemberCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan group membership: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (r *pgGroupRepository) ListPublicExcludingMember(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.ThingGroup, error) {
	query := `
        SELECT id, name, description, creator_id, is_private, requires_approval, created_at, updated_at
        FROM thing_groups
        WHERE is_private = FALSE
          AND id NOT IN (SELECT group_id FROM group_memberships WHERE user_id = $1)
        ORDER BY name
    `
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list public groups: %w", err)
	}
	defer rows.Close()

	var groups []models.ThingGroup
	for rows.Next() {
		var g models.ThingGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatorID,
			&g.IsPrivate, &g.RequiresApproval, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *pgGroupRepository) AddMember(ctx context.Context, q DBTX, membership *models.GroupMembership) error {
	query := `
        INSERT INTO group_memberships (id, user_id, group_id, role, invited_by, joined_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	logFields := []zap.Field{
		zap.String("userID", membership.UserID.String()),
		zap.String("groupID", membership.GroupID.String()),
	}
	_, err := q.Exec(ctx, query,
		membership.ID, membership.UserID, membership.GroupID,
		membership.Role, membership.InvitedBy, membership.JoinedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation: already a member
				r.logger.Warn("Membership already exists", logFields...)
				return models.ErrAlreadyMember
			case "23503": // foreign_key_violation: group or user missing
				r.logger.Warn("Group not found for membership", logFields...)
				return models.ErrNotFound
			}
		}
		r.logger.Error("Failed to add group member", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to add group member: %w", err)
	}
	r.logger.Info("Group member added", logFields...)
	return nil
}

func (r *pgGroupRepository) GetMembership(ctx context.Context, q DBTX, userID, groupID uuid.UUID) (*models.GroupMembership, error) {
	query := `
        SELECT id, user_id, group_id, role, invited_by, joined_at
        FROM group_memberships
        WHERE user_id = $1 AND group_id = $2
    `
	m := &models.GroupMembership{}
	err := q.QueryRow(ctx, query, userID, groupID).Scan(
		&m.ID, &m.UserID, &m.GroupID, &m.Role, &m.InvitedBy, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

func (r *pgGroupRepository) IsMemberOfAny(ctx context.Context, q DBTX, userID uuid.UUID, groupIDs []uuid.UUID) (bool, error) {
	if len(groupIDs) == 0 {
		return false, nil
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM group_memberships WHERE user_id = $1 AND group_id = ANY($2))`
	if err := q.QueryRow(ctx, query, userID, groupIDs).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check group memberships: %w", err)
	}
	return exists, nil
}

func (r *pgGroupRepository) MemberCount(ctx context.Context, q DBTX, groupID uuid.UUID) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM group_memberships WHERE group_id = $1`, groupID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count group members: %w", err)
	}
	return count, nil
}
