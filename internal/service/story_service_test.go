package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
	repoMocks "thing-journal-server/internal/repository/mocks"
)

type storyFixture struct {
	storyRepo *repoMocks.StoryRepository
	thingRepo *repoMocks.ThingRepository
	imageRepo *repoMocks.ImageRepository
	service   StoryService
}

func newStoryFixture() *storyFixture {
	return newStoryFixtureWithGroups(true)
}

func newStoryFixtureWithGroups(groupsEnabled bool) *storyFixture {
	f := &storyFixture{
		storyRepo: new(repoMocks.StoryRepository),
		thingRepo: new(repoMocks.ThingRepository),
		imageRepo: new(repoMocks.ImageRepository),
	}
	f.service = NewStoryService(
		&repoMocks.TransactorStub{},
		f.storyRepo,
		f.thingRepo,
		f.imageRepo,
		groupsEnabled,
		zap.NewNop(),
	)
	return f
}

// longNarrative builds a body long enough to chunk into several pieces.
func longNarrative(sentences int) string {
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		b.WriteString("The corridor stretched on and the doors kept multiplying around me. ")
	}
	return strings.TrimSpace(b.String())
}

func TestStoryService_Eligible(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name        string
		description string
		want        bool
	}{
		{"long thing is eligible", longNarrative(10), true},
		{"short thing is not", "Too short.", false},
		{"empty thing is not", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStoryFixture()
			thing := &models.Thing{ID: uuid.New(), UserID: userID, Description: tt.description}
			f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)

			got, err := f.service.Eligible(ctx, userID, thing.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStoryService_Promote(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("short thing is rejected", func(t *testing.T) {
		f := newStoryFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: userID, Description: "A short one."}
		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)

		_, err := f.service.Promote(ctx, userID, thing.ID, "")
		assert.ErrorIs(t, err, models.ErrNotEligible)
		f.storyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("long thing becomes an ordered story", func(t *testing.T) {
		f := newStoryFixture()
		thing := &models.Thing{
			ID:           uuid.New(),
			UserID:       userID,
			Title:        "The corridor",
			Description:  longNarrative(12),
			PrivacyLevel: models.PrivacyCommunity,
			Mood:         "uneasy",
			Themes:       []string{"pursuit"},
			ThingDate:    time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		}
		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.imageRepo.On("ListByThing", ctx, nil, thing.ID).Return(nil, nil)
		f.storyRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Story")).Return(nil)
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)
		f.storyRepo.On("AddThing", ctx, nil, mock.AnythingOfType("*models.StoryThing")).Return(nil)

		detail, err := f.service.Promote(ctx, userID, thing.ID, "")
		require.NoError(t, err)

		assert.Equal(t, "The corridor - Story", detail.Story.Title)
		assert.Equal(t, "Story created from: The corridor", detail.Story.Description)
		assert.Equal(t, models.PrivacyCommunity, detail.Story.PrivacyLevel)
		require.Greater(t, len(detail.Entries), 1)

		for i, entry := range detail.Entries {
			assert.Equal(t, i, entry.Link.Position)
			assert.GreaterOrEqual(t, entry.Link.Duration, 5)
			assert.Equal(t, models.TransitionFade, entry.Link.Transition)
			assert.Contains(t, entry.Thing.Title, "The corridor - Part")
			assert.Equal(t, models.PrivacyCommunity, entry.Thing.PrivacyLevel)
			assert.Equal(t, "uneasy", entry.Thing.Mood)
		}

		// The chunks concatenate back to the original body.
		parts := make([]string, 0, len(detail.Entries))
		for _, entry := range detail.Entries {
			parts = append(parts, entry.Thing.Description)
		}
		assert.Equal(t, thing.Description, strings.Join(parts, " "))
	})

	t.Run("untitled thing falls back to a default title", func(t *testing.T) {
		f := newStoryFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: userID, Description: longNarrative(12)}
		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.imageRepo.On("ListByThing", ctx, nil, thing.ID).Return(nil, nil)
		f.storyRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Story")).Return(nil)
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)
		f.storyRepo.On("AddThing", ctx, nil, mock.AnythingOfType("*models.StoryThing")).Return(nil)

		detail, err := f.service.Promote(ctx, userID, thing.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "Untitled - Story", detail.Story.Title)
		assert.Equal(t, "Untitled - Part 1", detail.Entries[0].Thing.Title)
	})

	t.Run("images are copied to the first chunk only", func(t *testing.T) {
		f := newStoryFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: userID, Title: "Pictures", Description: longNarrative(12)}
		images := []models.ThingImage{{ID: uuid.New(), ThingID: thing.ID, ImageURL: "https://example.com/a.png"}}

		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)
		f.imageRepo.On("ListByThing", ctx, nil, thing.ID).Return(images, nil)
		f.storyRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Story")).Return(nil)
		f.thingRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.Thing")).Return(nil)
		f.storyRepo.On("AddThing", ctx, nil, mock.AnythingOfType("*models.StoryThing")).Return(nil)

		var copiedTo []uuid.UUID
		f.imageRepo.On("Create", ctx, nil, mock.AnythingOfType("*models.ThingImage")).
			Run(func(args mock.Arguments) {
				copiedTo = append(copiedTo, args.Get(2).(*models.ThingImage).ThingID)
			}).Return(nil)

		detail, err := f.service.Promote(ctx, userID, thing.ID, "")
		require.NoError(t, err)
		require.Len(t, copiedTo, 1)
		assert.Equal(t, detail.Entries[0].Thing.ID, copiedTo[0])
	})

	t.Run("non-owner cannot promote", func(t *testing.T) {
		f := newStoryFixture()
		thing := &models.Thing{ID: uuid.New(), UserID: uuid.New(), Description: longNarrative(12)}
		f.thingRepo.On("GetByID", ctx, nil, thing.ID).Return(thing, nil)

		_, err := f.service.Promote(ctx, userID, thing.ID, "")
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestStoryService_Play(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("payload is ordered with millisecond durations", func(t *testing.T) {
		f := newStoryFixture()
		story := &models.Story{ID: uuid.New(), UserID: userID}
		thingA := models.Thing{ID: uuid.New(), Title: "Part 1", Description: "first"}
		thingB := models.Thing{ID: uuid.New(), Title: "Part 2", Description: "second"}
		entries := []models.StoryEntry{
			{Link: models.StoryThing{ThingID: thingA.ID, Position: 0, Duration: 5, Transition: models.TransitionFade}, Thing: thingA},
			{Link: models.StoryThing{ThingID: thingB.ID, Position: 1, Duration: 8, Transition: models.TransitionFade}, Thing: thingB},
		}

		f.storyRepo.On("GetByID", ctx, nil, story.ID).Return(story, nil)
		f.storyRepo.On("ListEntries", ctx, nil, story.ID).Return(entries, nil)
		f.imageRepo.On("ListByThing", ctx, nil, thingA.ID).Return(nil, nil)
		f.imageRepo.On("ListByThing", ctx, nil, thingB.ID).Return(nil, nil)
		f.storyRepo.On("RecordPlay", ctx, nil, story.ID).Return(nil)

		chunks, err := f.service.Play(ctx, userID, story.ID)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, 5000, chunks[0].DurationMS)
		assert.Equal(t, 8000, chunks[1].DurationMS)
		assert.Equal(t, "first", chunks[0].Content)
		assert.Equal(t, "fade", chunks[0].Transition)
		f.storyRepo.AssertCalled(t, "RecordPlay", ctx, nil, story.ID)
	})

	t.Run("non-owner cannot play a private story", func(t *testing.T) {
		f := newStoryFixture()
		story := &models.Story{ID: uuid.New(), UserID: uuid.New(), PrivacyLevel: models.PrivacyPrivate}
		f.storyRepo.On("GetByID", ctx, nil, story.ID).Return(story, nil)

		_, err := f.service.Play(ctx, userID, story.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("anyone can play a community story", func(t *testing.T) {
		f := newStoryFixture()
		story := &models.Story{ID: uuid.New(), UserID: uuid.New(), PrivacyLevel: models.PrivacyCommunity}
		thing := models.Thing{ID: uuid.New(), Title: "Part 1", Description: "first"}
		entries := []models.StoryEntry{
			{Link: models.StoryThing{ThingID: thing.ID, Duration: 5, Transition: models.TransitionFade}, Thing: thing},
		}

		f.storyRepo.On("GetByID", ctx, nil, story.ID).Return(story, nil)
		f.storyRepo.On("ListEntries", ctx, nil, story.ID).Return(entries, nil)
		f.imageRepo.On("ListByThing", ctx, nil, thing.ID).Return(nil, nil)
		f.storyRepo.On("RecordPlay", ctx, nil, story.ID).Return(nil)

		chunks, err := f.service.Play(ctx, userID, story.ID)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "first", chunks[0].Content)
	})
}

func TestStoryService_Get_Visibility(t *testing.T) {
	ctx := context.Background()
	viewerID := uuid.New()

	t.Run("community story is readable by a non-owner", func(t *testing.T) {
		f := newStoryFixture()
		story := &models.Story{ID: uuid.New(), UserID: uuid.New(), PrivacyLevel: models.PrivacyCommunity}

		f.storyRepo.On("GetByID", ctx, nil, story.ID).Return(story, nil)
		f.storyRepo.On("ListEntries", ctx, nil, story.ID).Return([]models.StoryEntry{}, nil)

		detail, err := f.service.Get(ctx, viewerID, story.ID)
		require.NoError(t, err)
		assert.Equal(t, story.ID, detail.Story.ID)
	})

	t.Run("shared story without community stays owner-only", func(t *testing.T) {
		f := newStoryFixture()
		story := &models.Story{ID: uuid.New(), UserID: uuid.New(), PrivacyLevel: models.PrivacySpecificUsers}

		f.storyRepo.On("GetByID", ctx, nil, story.ID).Return(story, nil)

		_, err := f.service.Get(ctx, viewerID, story.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestStoryService_Update_PrivacyFlag(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("groups privacy is rejected when the feature is off", func(t *testing.T) {
		f := newStoryFixtureWithGroups(false)

		_, err := f.service.Update(ctx, userID, uuid.New(), UpdateStoryInput{
			Title:   "Edited",
			Privacy: models.PrivacyGroups,
		})
		assert.ErrorIs(t, err, models.ErrInvalidPrivacy)
		f.storyRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStoryService_Reorder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("unknown thing id is rejected", func(t *testing.T) {
		f := newStoryFixture()
		story := &models.Story{ID: uuid.New(), UserID: userID}
		f.storyRepo.On("GetByID", ctx, nil, story.ID).Return(story, nil)
		f.storyRepo.On("ListEntries", ctx, nil, story.ID).Return([]models.StoryEntry{}, nil)

		err := f.service.Reorder(ctx, userID, story.ID, []uuid.UUID{uuid.New()})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("links are passed through in the requested order", func(t *testing.T) {
		f := newStoryFixture()
		story := &models.Story{ID: uuid.New(), UserID: userID}
		linkA := models.StoryThing{ID: uuid.New(), StoryID: story.ID, ThingID: uuid.New(), Position: 0}
		linkB := models.StoryThing{ID: uuid.New(), StoryID: story.ID, ThingID: uuid.New(), Position: 1}
		entries := []models.StoryEntry{{Link: linkA}, {Link: linkB}}

		f.storyRepo.On("GetByID", ctx, nil, story.ID).Return(story, nil)
		f.storyRepo.On("ListEntries", ctx, nil, story.ID).Return(entries, nil)
		f.storyRepo.On("ReplaceThings", ctx, nil, story.ID, []models.StoryThing{linkB, linkA}).Return(nil)

		err := f.service.Reorder(ctx, userID, story.ID, []uuid.UUID{linkB.ThingID, linkA.ThingID})
		require.NoError(t, err)
		f.storyRepo.AssertCalled(t, "ReplaceThings", ctx, nil, story.ID, []models.StoryThing{linkB, linkA})
	})
}
