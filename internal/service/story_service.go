package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
)

// minChunkDisplaySeconds floors each chunk's playback duration.
const minChunkDisplaySeconds = 5

// promoteThresholdSeconds is the minimum estimated reading time before a
// thing is worth splitting into a story.
const promoteThresholdSeconds = 5.0

// PlaybackChunk is one step of a story's play payload.
type PlaybackChunk struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	DurationMS int       `json:"duration_ms"`
	Transition string    `json:"transition"`
	ImageURLs  []string  `json:"image_urls"`
}

// StoryDetail is a story plus its ordered entries.
type StoryDetail struct {
	Story   *models.Story       `json:"story"`
	Entries []models.StoryEntry `json:"entries"`
}

// UpdateStoryInput carries the editable story fields.
type UpdateStoryInput struct {
	Title       string
	Description string
	Privacy     models.PrivacyLevel
}

// StoryService owns stories: promotion of long things into chunked
// stories, story CRUD and the playback payload.
type StoryService interface {
	// Eligible reports whether the thing is long enough to promote.
	Eligible(ctx context.Context, userID, thingID uuid.UUID) (bool, error)
	// Promote splits a long thing into chunk things and links them into a
	// new story. Returns ErrNotEligible when the thing is too short or
	// chunks to a single piece.
	Promote(ctx context.Context, userID, thingID uuid.UUID, title string) (*StoryDetail, error)
	// Get returns the story when the viewer may see it per its privacy.
	Get(ctx context.Context, viewerID, storyID uuid.UUID) (*StoryDetail, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Story, error)
	Update(ctx context.Context, userID, storyID uuid.UUID, input UpdateStoryInput) (*models.Story, error)
	Delete(ctx context.Context, userID, storyID uuid.UUID) error
	// Reorder rewrites the story's thing order to the given id sequence.
	Reorder(ctx context.Context, userID, storyID uuid.UUID, thingIDs []uuid.UUID) error
	// Play returns the ordered playback payload and bumps the play
	// counter. Visibility follows the story's privacy level.
	Play(ctx context.Context, viewerID, storyID uuid.UUID) ([]PlaybackChunk, error)
}

// Compile-time check
var _ StoryService = (*storyServiceImpl)(nil)

type storyServiceImpl struct {
	tx            repository.Transactor
	storyRepo     repository.StoryRepository
	thingRepo     repository.ThingRepository
	imageRepo     repository.ImageRepository
	groupsEnabled bool
	logger        *zap.Logger
}

// NewStoryService creates a StoryService.
func NewStoryService(
	tx repository.Transactor,
	storyRepo repository.StoryRepository,
	thingRepo repository.ThingRepository,
	imageRepo repository.ImageRepository,
	groupsEnabled bool,
	logger *zap.Logger,
) StoryService {
	return &storyServiceImpl{
		tx:            tx,
		storyRepo:     storyRepo,
		thingRepo:     thingRepo,
		imageRepo:     imageRepo,
		groupsEnabled: groupsEnabled,
		logger:        logger.Named("StoryService"),
	}
}

func (s *storyServiceImpl) Eligible(ctx context.Context, userID, thingID uuid.UUID) (bool, error) {
	thing, err := s.ownedThing(ctx, userID, thingID)
	if err != nil {
		return false, err
	}
	if thing.Description == "" {
		return false, nil
	}
	return EstimateReadingTime(thing.Description) > promoteThresholdSeconds, nil
}

func (s *storyServiceImpl) Promote(ctx context.Context, userID, thingID uuid.UUID, title string) (*StoryDetail, error) {
	source, err := s.ownedThing(ctx, userID, thingID)
	if err != nil {
		return nil, err
	}

	if EstimateReadingTime(source.Description) <= promoteThresholdSeconds {
		return nil, models.ErrNotEligible
	}
	chunks := SplitIntoChunks(source.Description, DefaultChunkTargetSeconds)
	if len(chunks) <= 1 {
		return nil, models.ErrNotEligible
	}

	sourceTitle := source.Title
	if sourceTitle == "" {
		sourceTitle = "Untitled"
	}
	if title == "" {
		title = sourceTitle + " - Story"
	}

	images, err := s.imageRepo.ListByThing(ctx, s.tx.Pool(), thingID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	story := &models.Story{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        title,
		Description:  "Story created from: " + sourceTitle,
		PrivacyLevel: source.PrivacyLevel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	entries := make([]models.StoryEntry, 0, len(chunks))
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := s.storyRepo.Create(ctx, tx, story); err != nil {
			return err
		}
		for idx, chunk := range chunks {
			chunkThing := &models.Thing{
				ID:           uuid.New(),
				UserID:       userID,
				Title:        fmt.Sprintf("%s - Part %d", sourceTitle, idx+1),
				Description:  chunk.Text,
				PrivacyLevel: source.PrivacyLevel,
				ThingDate:    source.ThingDate,
				Mood:         source.Mood,
				Themes:       source.Themes,
				Symbols:      source.Symbols,
				Entities:     source.Entities,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := s.thingRepo.Create(ctx, tx, chunkThing); err != nil {
				return err
			}

			link := models.StoryThing{
				ID:         uuid.New(),
				StoryID:    story.ID,
				ThingID:    chunkThing.ID,
				Position:   idx,
				Duration:   chunkDisplaySeconds(chunk.Duration),
				Transition: models.TransitionFade,
				AddedAt:    now,
			}
			if err := s.storyRepo.AddThing(ctx, tx, &link); err != nil {
				return err
			}

			if idx == 0 {
				for _, img := range images {
					copied := &models.ThingImage{
						ID:         uuid.New(),
						ThingID:    chunkThing.ID,
						ObjectKey:  img.ObjectKey,
						ImageURL:   img.ImageURL,
						Caption:    img.Caption,
						Position:   img.Position,
						UploadedAt: now,
					}
					if err := s.imageRepo.Create(ctx, tx, copied); err != nil {
						return err
					}
				}
			}

			entries = append(entries, models.StoryEntry{Link: link, Thing: *chunkThing})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Thing promoted to story",
		zap.String("thingID", thingID.String()),
		zap.String("storyID", story.ID.String()),
		zap.Int("chunks", len(chunks)))
	return &StoryDetail{Story: story, Entries: entries}, nil
}

func (s *storyServiceImpl) Get(ctx context.Context, viewerID, storyID uuid.UUID) (*StoryDetail, error) {
	story, err := s.viewableStory(ctx, viewerID, storyID)
	if err != nil {
		return nil, err
	}
	entries, err := s.storyRepo.ListEntries(ctx, s.tx.Pool(), storyID)
	if err != nil {
		return nil, err
	}
	return &StoryDetail{Story: story, Entries: entries}, nil
}

func (s *storyServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]models.Story, error) {
	return s.storyRepo.ListByUser(ctx, s.tx.Pool(), userID)
}

func (s *storyServiceImpl) Update(ctx context.Context, userID, storyID uuid.UUID, input UpdateStoryInput) (*models.Story, error) {
	if input.Privacy != "" && !input.Privacy.IsValid(s.groupsEnabled) {
		return nil, models.ErrInvalidPrivacy
	}

	story, err := s.ownedStory(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	story.Title = input.Title
	story.Description = input.Description
	if input.Privacy != "" {
		story.PrivacyLevel = input.Privacy
	}
	story.UpdatedAt = time.Now().UTC()

	if err := s.storyRepo.Update(ctx, s.tx.Pool(), story); err != nil {
		return nil, err
	}
	return story, nil
}

func (s *storyServiceImpl) Delete(ctx context.Context, userID, storyID uuid.UUID) error {
	if _, err := s.ownedStory(ctx, userID, storyID); err != nil {
		return err
	}
	return s.storyRepo.Delete(ctx, s.tx.Pool(), storyID)
}

func (s *storyServiceImpl) Reorder(ctx context.Context, userID, storyID uuid.UUID, thingIDs []uuid.UUID) error {
	if _, err := s.ownedStory(ctx, userID, storyID); err != nil {
		return err
	}
	entries, err := s.storyRepo.ListEntries(ctx, s.tx.Pool(), storyID)
	if err != nil {
		return err
	}

	byThing := make(map[uuid.UUID]models.StoryThing, len(entries))
	for _, e := range entries {
		byThing[e.Link.ThingID] = e.Link
	}

	links := make([]models.StoryThing, 0, len(thingIDs))
	for _, id := range thingIDs {
		link, ok := byThing[id]
		if !ok {
			return fmt.Errorf("%w: thing %s is not part of story %s", models.ErrInvalidInput, id, storyID)
		}
		links = append(links, link)
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		return s.storyRepo.ReplaceThings(ctx, tx, storyID, links)
	})
}

func (s *storyServiceImpl) Play(ctx context.Context, viewerID, storyID uuid.UUID) ([]PlaybackChunk, error) {
	if _, err := s.viewableStory(ctx, viewerID, storyID); err != nil {
		return nil, err
	}
	entries, err := s.storyRepo.ListEntries(ctx, s.tx.Pool(), storyID)
	if err != nil {
		return nil, err
	}

	chunks := make([]PlaybackChunk, 0, len(entries))
	for _, e := range entries {
		chunk := PlaybackChunk{
			ID:         e.Thing.ID,
			Title:      e.Thing.Title,
			Content:    e.Thing.Description,
			DurationMS: e.Link.Duration * 1000,
			Transition: string(e.Link.Transition),
			ImageURLs:  []string{},
		}
		images, err := s.imageRepo.ListByThing(ctx, s.tx.Pool(), e.Thing.ID)
		if err != nil {
			return nil, err
		}
		for _, img := range images {
			chunk.ImageURLs = append(chunk.ImageURLs, img.URL())
		}
		chunks = append(chunks, chunk)
	}

	if err := s.storyRepo.RecordPlay(ctx, s.tx.Pool(), storyID); err != nil {
		// Playback already succeeded; a lost counter bump is tolerable.
		s.logger.Warn("Failed to record story play",
			zap.String("storyID", storyID.String()), zap.Error(err))
	}
	return chunks, nil
}

func (s *storyServiceImpl) ownedThing(ctx context.Context, userID, thingID uuid.UUID) (*models.Thing, error) {
	thing, err := s.thingRepo.GetByID(ctx, s.tx.Pool(), thingID)
	if err != nil {
		return nil, err
	}
	if thing.UserID != userID {
		return nil, models.ErrForbidden
	}
	return thing, nil
}

func (s *storyServiceImpl) ownedStory(ctx context.Context, userID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, s.tx.Pool(), storyID)
	if err != nil {
		return nil, err
	}
	if story.UserID != userID {
		return nil, models.ErrForbidden
	}
	return story, nil
}

// viewableStory applies the story's inherited privacy. Stories carry no
// share lists of their own, so anything short of community stays
// owner-only.
func (s *storyServiceImpl) viewableStory(ctx context.Context, viewerID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, s.tx.Pool(), storyID)
	if err != nil {
		return nil, err
	}
	if story.UserID == viewerID || story.PrivacyLevel == models.PrivacyCommunity {
		return story, nil
	}
	return nil, models.ErrForbidden
}

// chunkDisplaySeconds converts an estimated reading duration into the
// stored per-chunk display time, floored at the minimum.
func chunkDisplaySeconds(duration float64) int {
	seconds := int(math.Floor(duration))
	if seconds < minChunkDisplaySeconds {
		return minChunkDisplaySeconds
	}
	return seconds
}
