package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
	"thing-journal-server/internal/search"
)

// SharingService owns the privacy state machine: the cyclic privacy toggle,
// explicit share settings, view permission checks and the audit history.
type SharingService interface {
	// TogglePrivacy advances the thing to the next privacy level in the
	// cycle. Owner only.
	TogglePrivacy(ctx context.Context, userID, thingID uuid.UUID) (*models.Thing, error)
	// Share sets the privacy level plus the exact user and group share
	// lists, and records an audit entry. Owner only.
	Share(ctx context.Context, userID, thingID uuid.UUID, privacy models.PrivacyLevel, sharedUserIDs, sharedGroupIDs []uuid.UUID) (*models.Thing, error)
	// CanView reports whether viewerID may see the thing under its
	// current privacy level.
	CanView(ctx context.Context, viewerID uuid.UUID, thing *models.Thing) (bool, error)
	// History returns the share audit trail, newest first. Owner only.
	History(ctx context.Context, userID, thingID uuid.UUID) ([]models.ShareHistory, error)
}

// Compile-time check
var _ SharingService = (*sharingServiceImpl)(nil)

type sharingServiceImpl struct {
	tx            repository.Transactor
	thingRepo     repository.ThingRepository
	historyRepo   repository.ShareHistoryRepository
	groupRepo     repository.GroupRepository
	index         search.Index
	groupsEnabled bool
	logger        *zap.Logger
}

// NewSharingService creates a SharingService. groupsEnabled controls
// whether the "groups" privacy level participates in the cycle.
func NewSharingService(
	tx repository.Transactor,
	thingRepo repository.ThingRepository,
	historyRepo repository.ShareHistoryRepository,
	groupRepo repository.GroupRepository,
	index search.Index,
	groupsEnabled bool,
	logger *zap.Logger,
) SharingService {
	return &sharingServiceImpl{
		tx:            tx,
		thingRepo:     thingRepo,
		historyRepo:   historyRepo,
		groupRepo:     groupRepo,
		index:         index,
		groupsEnabled: groupsEnabled,
		logger:        logger.Named("SharingService"),
	}
}

func (s *sharingServiceImpl) TogglePrivacy(ctx context.Context, userID, thingID uuid.UUID) (*models.Thing, error) {
	thing, err := s.ownedThing(ctx, userID, thingID)
	if err != nil {
		return nil, err
	}

	oldPrivacy := thing.PrivacyLevel
	thing.PrivacyLevel = oldPrivacy.Next(s.groupsEnabled)
	thing.UpdatedAt = time.Now().UTC()

	if err := s.thingRepo.Update(ctx, s.tx.Pool(), thing); err != nil {
		return nil, fmt.Errorf("failed to toggle privacy for thing %s: %w", thingID, err)
	}
	s.logger.Info("Privacy toggled",
		zap.String("thingID", thingID.String()),
		zap.String("from", string(oldPrivacy)),
		zap.String("to", string(thing.PrivacyLevel)))

	s.syncIndex(ctx, oldPrivacy, thing)
	return thing, nil
}

func (s *sharingServiceImpl) Share(ctx context.Context, userID, thingID uuid.UUID, privacy models.PrivacyLevel, sharedUserIDs, sharedGroupIDs []uuid.UUID) (*models.Thing, error) {
	if !privacy.IsValid(s.groupsEnabled) {
		return nil, models.ErrInvalidPrivacy
	}

	thing, err := s.ownedThing(ctx, userID, thingID)
	if err != nil {
		return nil, err
	}

	oldPrivacy := thing.PrivacyLevel
	thing.PrivacyLevel = privacy
	thing.UpdatedAt = time.Now().UTC()

	action := models.ShareActionModified
	if oldPrivacy == models.PrivacyPrivate {
		action = models.ShareActionShared
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := s.thingRepo.Update(ctx, tx, thing); err != nil {
			return fmt.Errorf("failed to update thing %s: %w", thingID, err)
		}
		if err := s.thingRepo.SetSharedUsers(ctx, tx, thingID, sharedUserIDs); err != nil {
			return err
		}
		if err := s.thingRepo.SetSharedGroups(ctx, tx, thingID, sharedGroupIDs); err != nil {
			return err
		}
		record := &models.ShareHistory{
			ID:               uuid.New(),
			ThingID:          thingID,
			Action:           action,
			OldPrivacy:       oldPrivacy,
			NewPrivacy:       privacy,
			AffectedUserIDs:  sharedUserIDs,
			AffectedGroupIDs: sharedGroupIDs,
			PerformedBy:      userID,
			PerformedAt:      time.Now().UTC(),
		}
		return s.historyRepo.Create(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Share settings updated",
		zap.String("thingID", thingID.String()),
		zap.String("action", string(action)),
		zap.String("from", string(oldPrivacy)),
		zap.String("to", string(privacy)),
		zap.Int("users", len(sharedUserIDs)),
		zap.Int("groups", len(sharedGroupIDs)))

	s.syncIndex(ctx, oldPrivacy, thing)
	return thing, nil
}

func (s *sharingServiceImpl) CanView(ctx context.Context, viewerID uuid.UUID, thing *models.Thing) (bool, error) {
	if thing.UserID == viewerID {
		return true, nil
	}
	switch thing.PrivacyLevel {
	case models.PrivacyCommunity:
		return true, nil
	case models.PrivacyPrivate:
		return false, nil
	case models.PrivacySpecificUsers:
		if viewerID == uuid.Nil {
			return false, nil
		}
		sharedWith, err := s.thingRepo.SharedUserIDs(ctx, s.tx.Pool(), thing.ID)
		if err != nil {
			return false, err
		}
		for _, id := range sharedWith {
			if id == viewerID {
				return true, nil
			}
		}
		return false, nil
	case models.PrivacyGroups:
		if viewerID == uuid.Nil {
			return false, nil
		}
		groupIDs, err := s.thingRepo.SharedGroupIDs(ctx, s.tx.Pool(), thing.ID)
		if err != nil {
			return false, err
		}
		if len(groupIDs) == 0 {
			return false, nil
		}
		return s.groupRepo.IsMemberOfAny(ctx, s.tx.Pool(), viewerID, groupIDs)
	default:
		return false, nil
	}
}

func (s *sharingServiceImpl) History(ctx context.Context, userID, thingID uuid.UUID) ([]models.ShareHistory, error) {
	if _, err := s.ownedThing(ctx, userID, thingID); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByThing(ctx, s.tx.Pool(), thingID)
}

func (s *sharingServiceImpl) ownedThing(ctx context.Context, userID, thingID uuid.UUID) (*models.Thing, error) {
	thing, err := s.thingRepo.GetByID(ctx, s.tx.Pool(), thingID)
	if err != nil {
		return nil, err
	}
	if thing.UserID != userID {
		return nil, models.ErrForbidden
	}
	return thing, nil
}

// syncIndex mirrors the thing's visibility into the search index. Index
// failures are logged and swallowed so they never block the save.
func (s *sharingServiceImpl) syncIndex(ctx context.Context, oldPrivacy models.PrivacyLevel, thing *models.Thing) {
	if !s.index.Enabled() {
		return
	}
	switch {
	case thing.IsCommunity():
		if err := s.index.SaveThing(ctx, thing); err != nil {
			s.logger.Error("Failed to index thing",
				zap.String("thingID", thing.ID.String()), zap.Error(err))
		}
	case oldPrivacy == models.PrivacyCommunity:
		if err := s.index.DeleteThing(ctx, thing.ID.String()); err != nil {
			s.logger.Error("Failed to remove thing from index",
				zap.String("thingID", thing.ID.String()), zap.Error(err))
		}
	}
}
