package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thing-journal-server/internal/ai"
	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
	"thing-journal-server/internal/search"
	"thing-journal-server/internal/semantic"
)

const maxDerivedTitleLen = 200

// ImageInput describes one image to attach. Exactly one of ObjectKey and
// ImageURL must be set.
type ImageInput struct {
	ObjectKey string
	ImageURL  string
	Caption   string
	Position  int
}

// CreateThingInput carries everything needed to record a new thing.
type CreateThingInput struct {
	Title         string
	Description   string
	Privacy       models.PrivacyLevel
	ThingDate     time.Time
	Mood          string
	LucidityLevel int
	Tags          []string
	Images        []ImageInput
}

// UpdateThingInput carries editable fields for an existing thing.
type UpdateThingInput struct {
	Title         string
	Description   string
	Privacy       models.PrivacyLevel
	ThingDate     time.Time
	Mood          string
	LucidityLevel int
	Tags          []string
}

// ThingDetail is a thing plus its attachments, prepared for display.
type ThingDetail struct {
	Thing        *models.Thing       `json:"thing"`
	Images       []models.ThingImage `json:"images"`
	Tags         []models.ThingTag   `json:"tags"`
	SemanticHTML string              `json:"semanticHtml,omitempty"`
	CanEdit      bool                `json:"canEdit"`
}

// ThingPage is one page of a thing listing.
type ThingPage struct {
	Things []models.Thing `json:"things"`
	Total  int            `json:"total"`
}

// ThingService owns the journal entry lifecycle, including the AI and
// semantic enrichment that runs on save.
type ThingService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateThingInput) (*models.Thing, error)
	// QuickCapture saves free-form text with minimal friction. When
	// thingID is nil a new private thing is created; the title is derived
	// from the first line when absent.
	QuickCapture(ctx context.Context, userID uuid.UUID, thingID *uuid.UUID, content string) (*models.Thing, error)
	// RecordVoice transcribes an audio capture and saves it as a new
	// thing with the transcription as its body.
	RecordVoice(ctx context.Context, userID uuid.UUID, filename string, audio []byte, title, mood string) (*models.Thing, error)
	Get(ctx context.Context, viewerID, thingID uuid.UUID) (*ThingDetail, error)
	Update(ctx context.Context, userID, thingID uuid.UUID, input UpdateThingInput) (*models.Thing, error)
	Delete(ctx context.Context, userID, thingID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, filter repository.ThingFilter) (*ThingPage, error)
	// Community lists things published to the community feed.
	Community(ctx context.Context, filter repository.ThingFilter) (*ThingPage, error)
	// CommunityMoods returns the distinct moods across community things,
	// for feed filtering.
	CommunityMoods(ctx context.Context) ([]string, error)
}

// Compile-time check
var _ ThingService = (*thingServiceImpl)(nil)

type thingServiceImpl struct {
	tx            repository.Transactor
	thingRepo     repository.ThingRepository
	imageRepo     repository.ImageRepository
	tagRepo       repository.TagRepository
	storyRepo     repository.StoryRepository
	sharing       SharingService
	aiService     ai.Service
	tagger        semantic.Tagger
	index         search.Index
	groupsEnabled bool
	logger        *zap.Logger
}

// NewThingService creates a ThingService.
func NewThingService(
	tx repository.Transactor,
	thingRepo repository.ThingRepository,
	imageRepo repository.ImageRepository,
	tagRepo repository.TagRepository,
	storyRepo repository.StoryRepository,
	sharing SharingService,
	aiService ai.Service,
	tagger semantic.Tagger,
	index search.Index,
	groupsEnabled bool,
	logger *zap.Logger,
) ThingService {
	return &thingServiceImpl{
		tx:            tx,
		thingRepo:     thingRepo,
		imageRepo:     imageRepo,
		tagRepo:       tagRepo,
		storyRepo:     storyRepo,
		sharing:       sharing,
		aiService:     aiService,
		tagger:        tagger,
		index:         index,
		groupsEnabled: groupsEnabled,
		logger:        logger.Named("ThingService"),
	}
}

func (s *thingServiceImpl) Create(ctx context.Context, userID uuid.UUID, input CreateThingInput) (*models.Thing, error) {
	if input.Privacy == "" {
		input.Privacy = models.PrivacyPrivate
	}
	if !input.Privacy.IsValid(s.groupsEnabled) {
		return nil, models.ErrInvalidPrivacy
	}
	for _, img := range input.Images {
		if err := validateImageSource(img); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	thingDate := input.ThingDate
	if thingDate.IsZero() {
		thingDate = now
	}

	thing := &models.Thing{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         input.Title,
		Description:   input.Description,
		PrivacyLevel:  input.Privacy,
		ThingDate:     thingDate,
		Mood:          input.Mood,
		LucidityLevel: input.LucidityLevel,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.enrich(ctx, thing)

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := s.thingRepo.Create(ctx, tx, thing); err != nil {
			return err
		}
		for _, img := range input.Images {
			image := &models.ThingImage{
				ID:         uuid.New(),
				ThingID:    thing.ID,
				ObjectKey:  img.ObjectKey,
				ImageURL:   img.ImageURL,
				Caption:    img.Caption,
				Position:   img.Position,
				UploadedAt: now,
			}
			if err := s.imageRepo.Create(ctx, tx, image); err != nil {
				return err
			}
		}
		if len(input.Tags) > 0 {
			return s.applyTags(ctx, tx, thing.ID, userID, input.Tags)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Thing created",
		zap.String("thingID", thing.ID.String()),
		zap.String("userID", userID.String()),
		zap.String("privacy", string(thing.PrivacyLevel)))
	s.indexIfCommunity(ctx, thing)
	return thing, nil
}

func (s *thingServiceImpl) QuickCapture(ctx context.Context, userID uuid.UUID, thingID *uuid.UUID, content string) (*models.Thing, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.ErrInvalidInput
	}

	if thingID != nil {
		thing, err := s.ownedThing(ctx, userID, *thingID)
		if err != nil {
			return nil, err
		}
		thing.Description = content
		if thing.Title == "" {
			thing.Title = deriveTitle(content)
		}
		s.enrichSemantic(thing)
		thing.UpdatedAt = time.Now().UTC()
		if err := s.thingRepo.Update(ctx, s.tx.Pool(), thing); err != nil {
			return nil, err
		}
		s.indexIfCommunity(ctx, thing)
		return thing, nil
	}

	now := time.Now().UTC()
	thing := &models.Thing{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        deriveTitle(content),
		Description:  content,
		PrivacyLevel: models.PrivacyPrivate,
		ThingDate:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.enrichSemantic(thing)
	if err := s.thingRepo.Create(ctx, s.tx.Pool(), thing); err != nil {
		return nil, err
	}
	s.logger.Info("Thing quick-captured",
		zap.String("thingID", thing.ID.String()),
		zap.String("userID", userID.String()))
	return thing, nil
}

func (s *thingServiceImpl) RecordVoice(ctx context.Context, userID uuid.UUID, filename string, audio []byte, title, mood string) (*models.Thing, error) {
	if len(audio) == 0 {
		return nil, models.ErrInvalidInput
	}

	now := time.Now().UTC()
	thing := &models.Thing{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          title,
		VoiceRecording: filename,
		PrivacyLevel:   models.PrivacyPrivate,
		ThingDate:      now,
		Mood:           mood,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if s.aiService.Enabled() {
		transcription, err := s.aiService.TranscribeAudio(ctx, filename, audio)
		if err != nil {
			// The recording is still saved; transcription can be retried.
			s.logger.Error("Transcription failed",
				zap.String("userID", userID.String()), zap.Error(err))
		} else {
			thing.Transcription = transcription
			thing.Description = transcription
		}
	}
	s.enrich(ctx, thing)

	if err := s.thingRepo.Create(ctx, s.tx.Pool(), thing); err != nil {
		return nil, err
	}
	s.logger.Info("Voice thing recorded",
		zap.String("thingID", thing.ID.String()),
		zap.String("userID", userID.String()),
		zap.Bool("transcribed", thing.Transcription != ""))
	return thing, nil
}

func (s *thingServiceImpl) Get(ctx context.Context, viewerID, thingID uuid.UUID) (*ThingDetail, error) {
	thing, err := s.thingRepo.GetByID(ctx, s.tx.Pool(), thingID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.sharing.CanView(ctx, viewerID, thing)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.ErrForbidden
	}

	images, err := s.imageRepo.ListByThing(ctx, s.tx.Pool(), thingID)
	if err != nil {
		return nil, err
	}
	tags, err := s.tagRepo.ListByThing(ctx, s.tx.Pool(), thingID)
	if err != nil {
		return nil, err
	}

	detail := &ThingDetail{
		Thing:   thing,
		Images:  images,
		Tags:    tags,
		CanEdit: thing.UserID == viewerID,
	}
	if thing.Description != "" && s.tagger.Available() {
		html, err := s.tagger.HighlightHTML(thing.Description)
		if err != nil {
			s.logger.Warn("Failed to build semantic HTML",
				zap.String("thingID", thingID.String()), zap.Error(err))
		} else {
			detail.SemanticHTML = html
		}
	}
	return detail, nil
}

func (s *thingServiceImpl) Update(ctx context.Context, userID, thingID uuid.UUID, input UpdateThingInput) (*models.Thing, error) {
	if input.Privacy != "" && !input.Privacy.IsValid(s.groupsEnabled) {
		return nil, models.ErrInvalidPrivacy
	}

	thing, err := s.ownedThing(ctx, userID, thingID)
	if err != nil {
		return nil, err
	}

	oldPrivacy := thing.PrivacyLevel
	thing.Title = input.Title
	thing.Description = input.Description
	if input.Privacy != "" {
		thing.PrivacyLevel = input.Privacy
	}
	if !input.ThingDate.IsZero() {
		thing.ThingDate = input.ThingDate
	}
	thing.Mood = input.Mood
	thing.LucidityLevel = input.LucidityLevel
	s.enrich(ctx, thing)
	thing.UpdatedAt = time.Now().UTC()

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := s.thingRepo.Update(ctx, tx, thing); err != nil {
			return err
		}
		if input.Tags != nil {
			return s.applyTags(ctx, tx, thingID, userID, input.Tags)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.syncIndexAfterUpdate(ctx, oldPrivacy, thing)
	return thing, nil
}

func (s *thingServiceImpl) Delete(ctx context.Context, userID, thingID uuid.UUID) error {
	thing, err := s.ownedThing(ctx, userID, thingID)
	if err != nil {
		return err
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		// Deleting a story chunk cascades away its link row; the
		// surviving positions must stay dense.
		storyIDs, err := s.storyRepo.ListStoryIDsByThing(ctx, tx, thingID)
		if err != nil {
			return err
		}
		if err := s.thingRepo.Delete(ctx, tx, thingID); err != nil {
			return err
		}
		for _, storyID := range storyIDs {
			if err := s.storyRepo.CompactPositions(ctx, tx, storyID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Thing deleted",
		zap.String("thingID", thingID.String()),
		zap.String("userID", userID.String()))

	if s.index.Enabled() && thing.IsCommunity() {
		if err := s.index.DeleteThing(ctx, thingID.String()); err != nil {
			s.logger.Error("Failed to remove deleted thing from index",
				zap.String("thingID", thingID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *thingServiceImpl) List(ctx context.Context, userID uuid.UUID, filter repository.ThingFilter) (*ThingPage, error) {
	things, total, err := s.thingRepo.ListByUser(ctx, s.tx.Pool(), userID, filter)
	if err != nil {
		return nil, err
	}
	return &ThingPage{Things: things, Total: total}, nil
}

func (s *thingServiceImpl) Community(ctx context.Context, filter repository.ThingFilter) (*ThingPage, error) {
	things, total, err := s.thingRepo.ListCommunity(ctx, s.tx.Pool(), filter)
	if err != nil {
		return nil, err
	}
	return &ThingPage{Things: things, Total: total}, nil
}

func (s *thingServiceImpl) CommunityMoods(ctx context.Context) ([]string, error) {
	return s.thingRepo.CommunityMoods(ctx, s.tx.Pool())
}

func (s *thingServiceImpl) ownedThing(ctx context.Context, userID, thingID uuid.UUID) (*models.Thing, error) {
	thing, err := s.thingRepo.GetByID(ctx, s.tx.Pool(), thingID)
	if err != nil {
		return nil, err
	}
	if thing.UserID != userID {
		return nil, models.ErrForbidden
	}
	return thing, nil
}

// enrich runs AI element extraction and semantic tagging over the thing's
// text. Enrichment failures are logged and swallowed so the save always
// proceeds.
func (s *thingServiceImpl) enrich(ctx context.Context, thing *models.Thing) {
	text := thing.Transcription
	if text == "" {
		text = thing.Description
	}
	if text == "" {
		return
	}

	if s.aiService.Enabled() {
		analysis, err := s.aiService.AnalyzeThing(ctx, text)
		if err != nil {
			s.logger.Error("AI analysis failed",
				zap.String("thingID", thing.ID.String()), zap.Error(err))
		} else {
			thing.Themes = analysis.Themes
			thing.Symbols = analysis.Symbols
			thing.Entities = analysis.Entities
		}
	}
	s.enrichSemantic(thing)
}

func (s *thingServiceImpl) enrichSemantic(thing *models.Thing) {
	if !s.tagger.Available() {
		return
	}
	text := thing.Transcription
	if text == "" {
		text = thing.Description
	}
	if text == "" {
		return
	}

	extraction, err := s.tagger.Extract(text)
	if err != nil {
		s.logger.Error("Semantic extraction failed",
			zap.String("thingID", thing.ID.String()), zap.Error(err))
		return
	}
	thing.SemanticVerbs = extraction.Verbs()
	thing.SemanticNouns = extraction.Nouns()
	if bits, err := marshalExtraction(extraction); err != nil {
		s.logger.Warn("Failed to marshal semantic bits", zap.Error(err))
	} else {
		thing.SemanticBits = bits
	}
}

func (s *thingServiceImpl) applyTags(ctx context.Context, tx repository.DBTX, thingID, userID uuid.UUID, names []string) error {
	tagIDs := make([]uuid.UUID, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tag, err := s.tagRepo.GetOrCreate(ctx, tx, name, userID)
		if err != nil {
			return err
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	return s.tagRepo.ReplaceThingTags(ctx, tx, thingID, tagIDs)
}

func (s *thingServiceImpl) indexIfCommunity(ctx context.Context, thing *models.Thing) {
	if !s.index.Enabled() || !thing.IsCommunity() {
		return
	}
	if err := s.index.SaveThing(ctx, thing); err != nil {
		s.logger.Error("Failed to index thing",
			zap.String("thingID", thing.ID.String()), zap.Error(err))
	}
}

func (s *thingServiceImpl) syncIndexAfterUpdate(ctx context.Context, oldPrivacy models.PrivacyLevel, thing *models.Thing) {
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

// deriveTitle takes the first line of the content, stripped of markdown
// heading markers and capped in length.
func deriveTitle(content string) string {
	line := content
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		line = content[:idx]
	}
	if len(line) > maxDerivedTitleLen {
		line = line[:maxDerivedTitleLen]
	}
	return strings.TrimSpace(strings.TrimLeft(line, "#"))
}

func validateImageSource(img ImageInput) error {
	hasKey := img.ObjectKey != ""
	hasURL := img.ImageURL != ""
	if hasKey == hasURL {
		return models.ErrImageSourceInvalid
	}
	return nil
}
