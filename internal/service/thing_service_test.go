package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thing-journal-server/internal/ai"
	aiMocks "thing-journal-server/internal/ai/mocks"
	"thing-journal-server/internal/models"
	repoMocks "thing-journal-server/internal/repository/mocks"
	"thing-journal-server/internal/search"
	"thing-journal-server/internal/semantic"
)

type thingFixture struct {
	thingRepo *repoMocks.ThingRepository
	imageRepo *repoMocks.ImageRepository
	tagRepo   *repoMocks.TagRepository
	storyRepo *repoMocks.StoryRepository
	groupRepo *repoMocks.GroupRepository
	aiService *aiMocks.Service
	service   ThingService
}

func newThingFixture() *thingFixture {
	return newThingFixtureWithGroups(true)
}

func newThingFixtureWithGroups(groupsEnabled bool) *thingFixture {
	f := &thingFixture{
		thingRepo: new(repoMocks.ThingRepository),
		imageRepo: new(repoMocks.ImageRepository),
		tagRepo:   new(repoMocks.TagRepository),
		storyRepo: new(repoMocks.StoryRepository),
		groupRepo: new(repoMocks.GroupRepository),
		aiService: new(aiMocks.Service),
	}
	tx := &repoMocks.TransactorStub{}
	sharing := NewSharingService(
		tx,
		f.thingRepo,
		new(repoMocks.ShareHistoryRepository),
		f.groupRepo,
		search.NewDisabledIndex(),
		groupsEnabled,
		zap.NewNop(),
	)
	f.service = NewThingService(
		tx,
		f.thingRepo,
		f.imageRepo,
		f.tagRepo,
		f.storyRepo,
		sharing,
		f.aiService,
		semantic.NewDisabledTagger(),
		search.NewDisabledIndex(),
		groupsEnabled,
		zap.NewNop(),
	)
	return f
}

func TestThingService_Create(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("defaults to private and saves the thing", func(t *testing.T) {
		f := newThingFixture()
		f.aiService.On("Enabled").Return(false)
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)

		thing, err := f.service.Create(ctx, userID, CreateThingInput{
			Title:       "Night train",
			Description: "A long ride through fog.",
		})
		require.NoError(t, err)
		assert.Equal(t, models.PrivacyPrivate, thing.PrivacyLevel)
		assert.Equal(t, userID, thing.UserID)
		assert.False(t, thing.ThingDate.IsZero())
	})

	t.Run("rejects an unknown privacy level", func(t *testing.T) {
		f := newThingFixture()

		_, err := f.service.Create(ctx, userID, CreateThingInput{
			Title:   "Bad",
			Privacy: models.PrivacyLevel("everyone"),
		})
		assert.ErrorIs(t, err, models.ErrInvalidPrivacy)
	})

	t.Run("groups privacy is rejected when the feature is off", func(t *testing.T) {
		f := newThingFixtureWithGroups(false)

		_, err := f.service.Create(ctx, userID, CreateThingInput{
			Title:   "Team only",
			Privacy: models.PrivacyGroups,
		})
		assert.ErrorIs(t, err, models.ErrInvalidPrivacy)
		f.thingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("groups privacy is accepted when the feature is on", func(t *testing.T) {
		f := newThingFixtureWithGroups(true)
		f.aiService.On("Enabled").Return(false)
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)

		thing, err := f.service.Create(ctx, userID, CreateThingInput{
			Title:   "Team only",
			Privacy: models.PrivacyGroups,
		})
		require.NoError(t, err)
		assert.Equal(t, models.PrivacyGroups, thing.PrivacyLevel)
	})

	t.Run("rejects an image with both a file and a URL", func(t *testing.T) {
		f := newThingFixture()

		_, err := f.service.Create(ctx, userID, CreateThingInput{
			Title: "Pictures",
			Images: []ImageInput{
				{ObjectKey: "uploads/a.png", ImageURL: "https://example.com/a.png"},
			},
		})
		assert.ErrorIs(t, err, models.ErrImageSourceInvalid)
	})

	t.Run("rejects an image with neither a file nor a URL", func(t *testing.T) {
		f := newThingFixture()

		_, err := f.service.Create(ctx, userID, CreateThingInput{
			Title:  "Pictures",
			Images: []ImageInput{{Caption: "no source"}},
		})
		assert.ErrorIs(t, err, models.ErrImageSourceInvalid)
	})

	t.Run("analysis results are stored on the thing", func(t *testing.T) {
		f := newThingFixture()
		f.aiService.On("Enabled").Return(true)
		f.aiService.On("AnalyzeThing", ctx, "A long ride through fog.").Return(&ai.Analysis{
			Themes:  []string{"travel"},
			Symbols: []string{"train", "fog"},
		}, nil)
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)

		thing, err := f.service.Create(ctx, userID, CreateThingInput{
			Title:       "Night train",
			Description: "A long ride through fog.",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"travel"}, thing.Themes)
		assert.Equal(t, []string{"train", "fog"}, thing.Symbols)
	})

	t.Run("analysis failure still saves the thing", func(t *testing.T) {
		f := newThingFixture()
		f.aiService.On("Enabled").Return(true)
		f.aiService.On("AnalyzeThing", ctx, mock.Anything).Return(nil, errors.New("model unavailable"))
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)

		thing, err := f.service.Create(ctx, userID, CreateThingInput{
			Title:       "Night train",
			Description: "A long ride through fog.",
		})
		require.NoError(t, err)
		assert.Empty(t, thing.Themes)
	})

	t.Run("tags are normalized and deduplicated", func(t *testing.T) {
		f := newThingFixture()
		f.aiService.On("Enabled").Return(false)
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)

		tagID := uuid.New()
		f.tagRepo.On("GetOrCreate", ctx, nil, "lucid", userID).
			Return(&models.ThingTag{ID: tagID, Name: "lucid"}, nil).Once()
		f.tagRepo.On("ReplaceThingTags", ctx, nil, mock.Anything, []uuid.UUID{tagID}).Return(nil)

		_, err := f.service.Create(ctx, userID, CreateThingInput{
			Title: "Tagged",
			Tags:  []string{" Lucid ", "lucid", "LUCID"},
		})
		require.NoError(t, err)
		f.tagRepo.AssertNumberOfCalls(t, "GetOrCreate", 1)
	})
}

func TestThingService_QuickCapture(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("new capture derives its title from the first line", func(t *testing.T) {
		f := newThingFixture()
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)

		thing, err := f.service.QuickCapture(ctx, userID, nil, "## Chased again\nSame corridor as last week.")
		require.NoError(t, err)
		assert.Equal(t, "Chased again", thing.Title)
		assert.Equal(t, models.PrivacyPrivate, thing.PrivacyLevel)
	})

	t.Run("blank content is rejected", func(t *testing.T) {
		f := newThingFixture()

		_, err := f.service.QuickCapture(ctx, userID, nil, "   \n  ")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("existing thing gets its body replaced", func(t *testing.T) {
		f := newThingFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: userID, Title: "Kept title", Description: "old"}

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.thingRepo.On("Update", ctx, nil, thing).Return(nil)

		updated, err := f.service.QuickCapture(ctx, userID, &thing.ID, "new body")
		require.NoError(t, err)
		assert.Equal(t, "new body", updated.Description)
		assert.Equal(t, "Kept title", updated.Title)
	})

	t.Run("someone else's thing cannot be captured into", func(t *testing.T) {
		f := newThingFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: uuid.New()}

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)

		_, err := f.service.QuickCapture(ctx, userID, &thing.ID, "new body")
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestThingService_RecordVoice(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	audio := []byte("fake audio bytes")

	t.Run("transcription becomes the body", func(t *testing.T) {
		f := newThingFixture()
		f.aiService.On("Enabled").Return(true)
		f.aiService.On("TranscribeAudio", ctx, "morning.webm", audio).Return("I was back at school.", nil)
		f.aiService.On("AnalyzeThing", ctx, "I was back at school.").Return(&ai.Analysis{}, nil)
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)

		thing, err := f.service.RecordVoice(ctx, userID, "morning.webm", audio, "Morning", "anxious")
		require.NoError(t, err)
		assert.Equal(t, "I was back at school.", thing.Transcription)
		assert.Equal(t, "I was back at school.", thing.Description)
		assert.Equal(t, "morning.webm", thing.VoiceRecording)
	})

	t.Run("transcription failure still saves the recording", func(t *testing.T) {
		f := newThingFixture()
		f.aiService.On("Enabled").Return(true)
		f.aiService.On("TranscribeAudio", ctx, "morning.webm", audio).Return("", errors.New("whisper down"))
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)

		thing, err := f.service.RecordVoice(ctx, userID, "morning.webm", audio, "Morning", "")
		require.NoError(t, err)
		assert.Empty(t, thing.Transcription)
		assert.Equal(t, "morning.webm", thing.VoiceRecording)
	})

	t.Run("empty audio is rejected", func(t *testing.T) {
		f := newThingFixture()

		_, err := f.service.RecordVoice(ctx, userID, "morning.webm", nil, "", "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestThingService_Update(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("groups privacy is rejected when the feature is off", func(t *testing.T) {
		f := newThingFixtureWithGroups(false)

		_, err := f.service.Update(ctx, userID, uuid.New(), UpdateThingInput{
			Title:   "Edited",
			Privacy: models.PrivacyGroups,
		})
		assert.ErrorIs(t, err, models.ErrInvalidPrivacy)
		f.thingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestThingService_Delete(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("deleting a story chunk renumbers the story", func(t *testing.T) {
		f := newThingFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: userID}
		storyID := uuid.New()

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.storyRepo.On("ListStoryIDsByThing", ctx, nil, thing.ID).Return([]uuid.UUID{storyID}, nil)
		f.thingRepo.On("Delete", ctx, nil, thing.ID).Return(nil)
		f.storyRepo.On("CompactPositions", ctx, nil, storyID).Return(nil)

		require.NoError(t, f.service.Delete(ctx, userID, thing.ID))
		f.storyRepo.AssertCalled(t, "CompactPositions", ctx, nil, storyID)
	})

	t.Run("a standalone thing leaves stories alone", func(t *testing.T) {
		f := newThingFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: userID}

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.storyRepo.On("ListStoryIDsByThing", ctx, nil, thing.ID).Return(nil, nil)
		f.thingRepo.On("Delete", ctx, nil, thing.ID).Return(nil)

		require.NoError(t, f.service.Delete(ctx, userID, thing.ID))
		f.storyRepo.AssertNotCalled(t, "CompactPositions", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestThingService_Get(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("owner gets the detail with edit rights", func(t *testing.T) {
		f := newThingFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: ownerID, PrivacyLevel: models.PrivacyPrivate}

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.imageRepo.On("ListByThing", ctx, nil, thing.ID).Return([]models.ThingImage{}, nil)
		f.tagRepo.On("ListByThing", ctx, nil, thing.ID).Return([]models.ThingTag{}, nil)

		detail, err := f.service.Get(ctx, ownerID, thing.ID)
		require.NoError(t, err)
		assert.True(t, detail.CanEdit)
	})

	t.Run("stranger cannot read a private thing", func(t *testing.T) {
		f := newThingFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: ownerID, PrivacyLevel: models.PrivacyPrivate}

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)

		_, err := f.service.Get(ctx, uuid.New(), thing.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("community thing is readable without edit rights", func(t *testing.T) {
		f := newThingFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: ownerID, PrivacyLevel: models.PrivacyCommunity}

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.imageRepo.On("ListByThing", ctx, nil, thing.ID).Return([]models.ThingImage{}, nil)
		f.tagRepo.On("ListByThing", ctx, nil, thing.ID).Return([]models.ThingTag{}, nil)

		detail, err := f.service.Get(ctx, uuid.New(), thing.ID)
		require.NoError(t, err)
		assert.False(t, detail.CanEdit)
	})
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"first line wins", "Chased through a maze\nIt kept shifting.", "Chased through a maze"},
		{"markdown heading markers are stripped", "## The lighthouse", "The lighthouse"},
		{"surrounding whitespace is trimmed", "  a quiet field  \nmore", "a quiet field"},
		{"only leading markers are stripped", "## Take #2 ##", "Take #2 ##"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveTitle(tt.content))
		})
	}
}

func TestDeriveTitle_CapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "wandering "
	}
	title := deriveTitle(long)
	assert.LessOrEqual(t, len(title), maxDerivedTitleLen)
}
