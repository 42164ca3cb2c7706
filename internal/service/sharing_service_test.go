package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
	repoMocks "thing-journal-server/internal/repository/mocks"
	searchMocks "thing-journal-server/internal/search/mocks"
)

type sharingFixture struct {
	thingRepo   *repoMocks.ThingRepository
	historyRepo *repoMocks.ShareHistoryRepository
	groupRepo   *repoMocks.GroupRepository
	index       *searchMocks.Index
	service     SharingService
}

func newSharingFixture(groupsEnabled bool) *sharingFixture {
	f := &sharingFixture{
		thingRepo:   new(repoMocks.ThingRepository),
		historyRepo: new(repoMocks.ShareHistoryRepository),
		groupRepo:   new(repoMocks.GroupRepository),
		index:       new(searchMocks.Index),
	}
	f.service = NewSharingService(
		&repoMocks.TransactorStub{},
		f.thingRepo,
		f.historyRepo,
		f.groupRepo,
		f.index,
		groupsEnabled,
		zap.NewNop(),
	)
	return f
}

func ownedTestThing(userID uuid.UUID, privacy models.PrivacyLevel) *models.Thing {
	return &models.Thing{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        "Flying over the city",
		Description:  "I was flying over rooftops.",
		PrivacyLevel: privacy,
	}
}

func TestSharingService_TogglePrivacy(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("full cycle returns to the original level", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(userID, models.PrivacyPrivate)

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.thingRepo.On("Update", ctx, nil, thing).Return(nil)
		f.index.On("Enabled").Return(false)

		seen := []models.PrivacyLevel{}
		for i := 0; i < 4; i++ {
			updated, err := f.service.TogglePrivacy(ctx, userID, thing.ID)
			require.NoError(t, err)
			seen = append(seen, updated.PrivacyLevel)
		}

		assert.Equal(t, []models.PrivacyLevel{
			models.PrivacySpecificUsers,
			models.PrivacyGroups,
			models.PrivacyCommunity,
			models.PrivacyPrivate,
		}, seen)
	})

	t.Run("groups level is skipped when groups are disabled", func(t *testing.T) {
		f := newSharingFixture(false)
		thing := ownedTestThing(userID, models.PrivacySpecificUsers)

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.thingRepo.On("Update", ctx, nil, thing).Return(nil)
		f.index.On("Enabled").Return(false)

		updated, err := f.service.TogglePrivacy(ctx, userID, thing.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PrivacyCommunity, updated.PrivacyLevel)
	})

	t.Run("toggle does not write share history", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(userID, models.PrivacyPrivate)

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.thingRepo.On("Update", ctx, nil, thing).Return(nil)
		f.index.On("Enabled").Return(false)

		_, err := f.service.TogglePrivacy(ctx, userID, thing.ID)
		require.NoError(t, err)
		f.historyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(uuid.New(), models.PrivacyPrivate)

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)

		_, err := f.service.TogglePrivacy(ctx, userID, thing.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("entering community indexes the thing once", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(userID, models.PrivacyGroups)

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.thingRepo.On("Update", ctx, nil, thing).Return(nil)
		f.index.On("Enabled").Return(true)
		f.index.On("SaveThing", ctx, thing).Return(nil)

		_, err := f.service.TogglePrivacy(ctx, userID, thing.ID)
		require.NoError(t, err)
		f.index.AssertNumberOfCalls(t, "SaveThing", 1)
		f.index.AssertNotCalled(t, "DeleteThing", mock.Anything, mock.Anything)
	})

	t.Run("leaving community removes the thing from the index", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(userID, models.PrivacyCommunity)

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.thingRepo.On("Update", ctx, nil, thing).Return(nil)
		f.index.On("Enabled").Return(true)
		f.index.On("DeleteThing", ctx, thing.ID.String()).Return(nil)

		_, err := f.service.TogglePrivacy(ctx, userID, thing.ID)
		require.NoError(t, err)
		f.index.AssertNumberOfCalls(t, "DeleteThing", 1)
		f.index.AssertNotCalled(t, "SaveThing", mock.Anything, mock.Anything)
	})
}

func TestSharingService_Share(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("first share from private records a shared action", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(userID, models.PrivacyPrivate)
		sharedWith := []uuid.UUID{uuid.New(), uuid.New()}

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.thingRepo.On("Update", ctx, nil, thing).Return(nil)
		f.thingRepo.On("SetSharedUsers", ctx, nil, thing.ID, sharedWith).Return(nil)
		f.thingRepo.On("SetSharedGroups", ctx, nil, thing.ID, []uuid.UUID(nil)).Return(nil)
		f.index.On("Enabled").Return(false)

		var recorded *models.ShareHistory
		f.historyRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.ShareHistory")).
			Run(func(args mock.Arguments) {
				recorded = args.Get(2).(*models.ShareHistory)
			}).Return(nil)

		updated, err := f.service.Share(ctx, userID, thing.ID, models.PrivacySpecificUsers, sharedWith, nil)
		require.NoError(t, err)
		assert.Equal(t, models.PrivacySpecificUsers, updated.PrivacyLevel)

		require.NotNil(t, recorded)
		assert.Equal(t, models.ShareActionShared, recorded.Action)
		assert.Equal(t, models.PrivacyPrivate, recorded.OldPrivacy)
		assert.Equal(t, models.PrivacySpecificUsers, recorded.NewPrivacy)
		assert.Equal(t, sharedWith, recorded.AffectedUserIDs)
		assert.Equal(t, userID, recorded.PerformedBy)
	})

	t.Run("reshare of an already shared thing records a modified action", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(userID, models.PrivacySpecificUsers)

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.thingRepo.On("Update", ctx, nil, thing).Return(nil)
		f.thingRepo.On("SetSharedUsers", ctx, nil, thing.ID, []uuid.UUID(nil)).Return(nil)
		f.thingRepo.On("SetSharedGroups", ctx, nil, thing.ID, []uuid.UUID(nil)).Return(nil)
		f.index.On("Enabled").Return(false)

		var recorded *models.ShareHistory
		f.historyRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.ShareHistory")).
			Run(func(args mock.Arguments) {
				recorded = args.Get(2).(*models.ShareHistory)
			}).Return(nil)

		_, err := f.service.Share(ctx, userID, thing.ID, models.PrivacyCommunity, nil, nil)
		require.NoError(t, err)
		require.NotNil(t, recorded)
		assert.Equal(t, models.ShareActionModified, recorded.Action)
	})

	t.Run("groups privacy is rejected when groups are disabled", func(t *testing.T) {
		f := newSharingFixture(false)

		_, err := f.service.Share(ctx, userID, uuid.New(), models.PrivacyGroups, nil, nil)
		assert.ErrorIs(t, err, models.ErrInvalidPrivacy)
	})

	t.Run("staying non-community never touches the index", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(userID, models.PrivacyPrivate)

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.thingRepo.On("Update", ctx, nil, thing).Return(nil)
		f.thingRepo.On("SetSharedUsers", ctx, nil, thing.ID, []uuid.UUID(nil)).Return(nil)
		f.thingRepo.On("SetSharedGroups", ctx, nil, thing.ID, []uuid.UUID(nil)).Return(nil)
		f.historyRepo.On("Create", ctx, nil, mock.Anything).Return(nil)
		f.index.On("Enabled").Return(true)

		_, err := f.service.Share(ctx, userID, thing.ID, models.PrivacySpecificUsers, nil, nil)
		require.NoError(t, err)
		f.index.AssertNotCalled(t, "SaveThing", mock.Anything, mock.Anything)
		f.index.AssertNotCalled(t, "DeleteThing", mock.Anything, mock.Anything)
	})
}

func TestSharingService_CanView(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	viewerID := uuid.New()

	t.Run("owner always sees their thing", func(t *testing.T) {
		f := newSharingFixture(true)
		for _, privacy := range models.PrivacyCycle {
			ok, err := f.service.CanView(ctx, ownerID, ownedTestThing(ownerID, privacy))
			require.NoError(t, err)
			assert.True(t, ok, "owner should see %s thing", privacy)
		}
	})

	t.Run("community things are visible to everyone", func(t *testing.T) {
		f := newSharingFixture(true)
		ok, err := f.service.CanView(ctx, uuid.Nil, ownedTestThing(ownerID, models.PrivacyCommunity))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("private things are hidden from others", func(t *testing.T) {
		f := newSharingFixture(true)
		ok, err := f.service.CanView(ctx, viewerID, ownedTestThing(ownerID, models.PrivacyPrivate))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("specific users checks the share list", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(ownerID, models.PrivacySpecificUsers)
		f.thingRepo.On("SharedUserIDs", ctx, nil, thing.ID).Return([]uuid.UUID{viewerID}, nil)

		ok, err := f.service.CanView(ctx, viewerID, thing)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = f.service.CanView(ctx, uuid.New(), thing)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("anonymous viewer never sees restricted things", func(t *testing.T) {
		f := newSharingFixture(true)
		ok, err := f.service.CanView(ctx, uuid.Nil, ownedTestThing(ownerID, models.PrivacySpecificUsers))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("groups privacy checks group membership", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(ownerID, models.PrivacyGroups)
		groupIDs := []uuid.UUID{uuid.New()}
		f.thingRepo.On("SharedGroupIDs", ctx, nil, thing.ID).Return(groupIDs, nil)
		f.groupRepo.On("IsMemberOfAny", ctx, nil, viewerID, groupIDs).Return(true, nil)

		ok, err := f.service.CanView(ctx, viewerID, thing)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestSharingService_History(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("owner reads the audit trail", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(userID, models.PrivacyCommunity)
		records := []models.ShareHistory{{ID: uuid.New(), ThingID: thing.ID}}

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.historyRepo.On("ListByThing", ctx, nil, thing.ID).Return(records, nil)

		got, err := f.service.History(ctx, userID, thing.ID)
		require.NoError(t, err)
		assert.Equal(t, records, got)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		f := newSharingFixture(true)
		thing := ownedTestThing(uuid.New(), models.PrivacyCommunity)

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)

		_, err := f.service.History(ctx, userID, thing.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}
