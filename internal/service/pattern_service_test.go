package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thing-journal-server/internal/ai"
	aiMocks "thing-journal-server/internal/ai/mocks"
	msgMocks "thing-journal-server/internal/messaging/mocks"
	"thing-journal-server/internal/models"
	repoMocks "thing-journal-server/internal/repository/mocks"
)

type patternFixture struct {
	patternRepo *repoMocks.PatternRepository
	thingRepo   *repoMocks.ThingRepository
	aiService   *aiMocks.Service
	publisher   *msgMocks.MockAnalysisTaskPublisher
	service     PatternService
}

func newPatternFixture() *patternFixture {
	f := &patternFixture{
		patternRepo: new(repoMocks.PatternRepository),
		thingRepo:   new(repoMocks.ThingRepository),
		aiService:   new(aiMocks.Service),
		publisher:   new(msgMocks.MockAnalysisTaskPublisher),
	}
	f.service = NewPatternService(
		&repoMocks.TransactorStub{},
		f.patternRepo,
		f.thingRepo,
		f.aiService,
		f.publisher,
		zap.NewNop(),
	)
	return f
}

func journalOf(userID uuid.UUID, n int) []models.Thing {
	things := make([]models.Thing, 0, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		things = append(things, models.Thing{
			ID:          uuid.New(),
			UserID:      userID,
			Title:       "Entry",
			Description: "I was falling through clouds again.",
			ThingDate:   base.AddDate(0, 0, i),
		})
	}
	return things
}

func TestPatternService_RequestAnalysis(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("small journals are rejected", func(t *testing.T) {
		f := newPatternFixture()
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return(journalOf(userID, 2), nil)

		_, err := f.service.RequestAnalysis(ctx, userID)
		assert.ErrorIs(t, err, models.ErrNotEnoughThings)
		f.publisher.AssertNotCalled(t, "PublishAnalysisTask", mock.Anything, mock.Anything)
	})

	t.Run("large enough journal queues a task", func(t *testing.T) {
		f := newPatternFixture()
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return(journalOf(userID, 3), nil)
		f.publisher.On("PublishAnalysisTask", ctx, mock.AnythingOfType("messaging.AnalysisTaskPayload")).Return(nil)

		req, err := f.service.RequestAnalysis(ctx, userID)
		require.NoError(t, err)
		assert.NotEmpty(t, req.TaskID)
		assert.Equal(t, 3, req.ThingCount)
	})
}

func TestPatternService_RunAnalysis(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("patterns are materialized with occurrence links", func(t *testing.T) {
		f := newPatternFixture()
		things := journalOf(userID, 4)
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return(things, nil)
		f.aiService.On("FindPatterns", ctx, mock.Anything).Return([]ai.PatternResult{
			{
				Name:        "falling",
				Type:        "theme",
				Description: "A repeated sense of falling",
				Confidence:  0.85,
				Occurrences: []int{1, 3},
			},
		}, nil)

		var saved *models.ThingPattern
		f.patternRepo.On("Upsert", ctx, nil, mock.AnythingOfType("*models.ThingPattern")).
			Run(func(args mock.Arguments) {
				saved = args.Get(2).(*models.ThingPattern)
			}).Return(nil)

		var linked []*models.PatternOccurrence
		f.patternRepo.On("LinkOccurrence", ctx, nil, mock.AnythingOfType("*models.PatternOccurrence")).
			Run(func(args mock.Arguments) {
				linked = append(linked, args.Get(2).(*models.PatternOccurrence))
			}).Return(nil)

		require.NoError(t, f.service.RunAnalysis(ctx, userID))

		require.NotNil(t, saved)
		assert.Equal(t, models.PatternTheme, saved.PatternType)
		assert.Equal(t, "falling", saved.Name)
		assert.InDelta(t, 0.85, saved.ConfidenceScore, 1e-9)
		assert.Equal(t, 2, saved.OccurrenceCount)
		require.NotNil(t, saved.FirstOccurrence)
		require.NotNil(t, saved.LastOccurrence)
		assert.Equal(t, things[0].ThingDate, *saved.FirstOccurrence)
		assert.Equal(t, things[2].ThingDate, *saved.LastOccurrence)

		require.Len(t, linked, 2)
		assert.Equal(t, things[0].ID, linked[0].ThingID)
		assert.Equal(t, things[2].ID, linked[1].ThingID)
		for _, occ := range linked {
			assert.InDelta(t, 0.7, occ.Strength, 1e-9)
		}
	})

	t.Run("out of range occurrence indices are dropped", func(t *testing.T) {
		f := newPatternFixture()
		things := journalOf(userID, 3)
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return(things, nil)
		f.aiService.On("FindPatterns", ctx, mock.Anything).Return([]ai.PatternResult{
			{Name: "water", Type: "symbol", Confidence: 0.5, Occurrences: []int{2, 99, -4}},
		}, nil)

		var saved *models.ThingPattern
		f.patternRepo.On("Upsert", ctx, nil, mock.AnythingOfType("*models.ThingPattern")).
			Run(func(args mock.Arguments) {
				saved = args.Get(2).(*models.ThingPattern)
			}).Return(nil)
		f.patternRepo.On("LinkOccurrence", ctx, nil, mock.Anything).Return(nil)

		require.NoError(t, f.service.RunAnalysis(ctx, userID))
		require.NotNil(t, saved)
		assert.Equal(t, 1, saved.OccurrenceCount)
	})

	t.Run("patterns without resolvable occurrences are skipped", func(t *testing.T) {
		f := newPatternFixture()
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return(journalOf(userID, 3), nil)
		f.aiService.On("FindPatterns", ctx, mock.Anything).Return([]ai.PatternResult{
			{Name: "ghost", Type: "entity", Confidence: 0.4, Occurrences: []int{50}},
		}, nil)

		require.NoError(t, f.service.RunAnalysis(ctx, userID))
		f.patternRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("confidence is clamped into the unit range", func(t *testing.T) {
		f := newPatternFixture()
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return(journalOf(userID, 3), nil)
		f.aiService.On("FindPatterns", ctx, mock.Anything).Return([]ai.PatternResult{
			{Name: "loud", Type: "theme", Confidence: 87, Occurrences: []int{1}},
		}, nil)

		var saved *models.ThingPattern
		f.patternRepo.On("Upsert", ctx, nil, mock.AnythingOfType("*models.ThingPattern")).
			Run(func(args mock.Arguments) {
				saved = args.Get(2).(*models.ThingPattern)
			}).Return(nil)
		f.patternRepo.On("LinkOccurrence", ctx, nil, mock.Anything).Return(nil)

		require.NoError(t, f.service.RunAnalysis(ctx, userID))
		require.NotNil(t, saved)
		assert.Equal(t, 1.0, saved.ConfidenceScore)
	})

	t.Run("patterns sharing enough things get connected", func(t *testing.T) {
		f := newPatternFixture()
		things := journalOf(userID, 4)
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return(things, nil)
		f.aiService.On("FindPatterns", ctx, mock.Anything).Return([]ai.PatternResult{
			{Name: "falling", Type: "theme", Confidence: 0.8, Occurrences: []int{1, 2, 3}},
			{Name: "water", Type: "symbol", Confidence: 0.6, Occurrences: []int{2, 3}},
			{Name: "alone", Type: "emotion", Confidence: 0.6, Occurrences: []int{4}},
		}, nil)
		f.patternRepo.On("Upsert", ctx, nil, mock.Anything).Return(nil)
		f.patternRepo.On("LinkOccurrence", ctx, nil, mock.Anything).Return(nil)

		var conns []*models.PatternConnection
		f.patternRepo.On("UpsertConnection", ctx, nil, mock.AnythingOfType("*models.PatternConnection")).
			Run(func(args mock.Arguments) {
				conns = append(conns, args.Get(2).(*models.PatternConnection))
			}).Return(nil)

		require.NoError(t, f.service.RunAnalysis(ctx, userID))
		require.Len(t, conns, 1)
		assert.InDelta(t, 0.2, conns[0].Strength, 1e-9)
		assert.Equal(t, "co_occurrence", conns[0].ConnectionType)
		// Reruns must hit the same row however patterns are enumerated.
		assert.LessOrEqual(t, bytes.Compare(conns[0].Pattern1ID[:], conns[0].Pattern2ID[:]), 0)
	})

	t.Run("unknown pattern type falls back to theme", func(t *testing.T) {
		f := newPatternFixture()
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return(journalOf(userID, 3), nil)
		f.aiService.On("FindPatterns", ctx, mock.Anything).Return([]ai.PatternResult{
			{Name: "odd", Type: "vibe", Confidence: 0.5, Occurrences: []int{1}},
		}, nil)

		var saved *models.ThingPattern
		f.patternRepo.On("Upsert", ctx, nil, mock.AnythingOfType("*models.ThingPattern")).
			Run(func(args mock.Arguments) {
				saved = args.Get(2).(*models.ThingPattern)
			}).Return(nil)
		f.patternRepo.On("LinkOccurrence", ctx, nil, mock.Anything).Return(nil)

		require.NoError(t, f.service.RunAnalysis(ctx, userID))
		require.NotNil(t, saved)
		assert.Equal(t, models.PatternTheme, saved.PatternType)
	})
}

func TestPatternService_Dashboard(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("aggregates moods, lucidity and symbols", func(t *testing.T) {
		f := newPatternFixture()
		now := time.Now().UTC()
		things := []models.Thing{
			{ID: uuid.New(), UserID: userID, ThingDate: now, Mood: "calm", LucidityLevel: 4, Symbols: []string{"water", "door"}},
			{ID: uuid.New(), UserID: userID, ThingDate: now, Mood: "calm", LucidityLevel: 8, Symbols: []string{"water"}},
			{ID: uuid.New(), UserID: userID, ThingDate: now, Mood: "anxious", LucidityLevel: 0},
		}
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return(things, nil)
		f.patternRepo.On("CountByUser", ctx, nil, userID).Return(5, nil)
		f.patternRepo.On("CountRecurring", ctx, nil, userID, models.PatternTheme, 2).Return(2, nil)

		d, err := f.service.Dashboard(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 3, d.TotalThings)
		assert.Equal(t, 5, d.PatternsFound)
		assert.Equal(t, 2, d.RecurringThemes)
		assert.InDelta(t, 4.0, d.AvgLucidity, 1e-9)
		assert.Equal(t, map[string]int{"calm": 2, "anxious": 1}, d.MoodCounts)
		require.NotEmpty(t, d.TopSymbols)
		assert.Equal(t, SymbolCount{Symbol: "water", Count: 2}, d.TopSymbols[0])
		assert.Empty(t, d.Insights)
	})

	t.Run("insights appear once the journal is big enough", func(t *testing.T) {
		f := newPatternFixture()
		things := journalOf(userID, 5)
		for i := range things {
			things[i].Symbols = []string{"clouds"}
		}
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return(things, nil)
		f.patternRepo.On("CountByUser", ctx, nil, userID).Return(1, nil)
		f.patternRepo.On("CountRecurring", ctx, nil, userID, models.PatternTheme, 2).Return(1, nil)

		d, err := f.service.Dashboard(ctx, userID)
		require.NoError(t, err)
		assert.NotEmpty(t, d.Insights)
	})

	t.Run("empty journal yields a zeroed dashboard", func(t *testing.T) {
		f := newPatternFixture()
		f.thingRepo.On("ListByUserChronological", ctx, nil, userID).Return([]models.Thing{}, nil)
		f.patternRepo.On("CountByUser", ctx, nil, userID).Return(0, nil)
		f.patternRepo.On("CountRecurring", ctx, nil, userID, models.PatternTheme, 2).Return(0, nil)

		d, err := f.service.Dashboard(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, d.TotalThings)
		assert.Zero(t, d.AvgLucidity)
		assert.Empty(t, d.Timeline)
	})
}

func TestPatternService_Network(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("nodes and edges cover patterns, things and connections", func(t *testing.T) {
		f := newPatternFixture()
		p1 := models.ThingPattern{ID: uuid.New(), UserID: userID, PatternType: models.PatternTheme, Name: "falling", OccurrenceCount: 3}
		p2 := models.ThingPattern{ID: uuid.New(), UserID: userID, PatternType: models.PatternSymbol, Name: "water", OccurrenceCount: 9}
		thingID := uuid.New()

		f.patternRepo.On("ListByUser", ctx, nil, userID).Return([]models.ThingPattern{p1, p2}, nil)
		f.patternRepo.On("ListOccurrencesByUser", ctx, nil, userID).Return([]models.PatternOccurrence{
			{ID: uuid.New(), ThingID: thingID, PatternID: p1.ID, Strength: 0.7},
			{ID: uuid.New(), ThingID: thingID, PatternID: p2.ID, Strength: 0.7},
		}, nil)
		f.patternRepo.On("ListConnectionsByUser", ctx, nil, userID).Return([]models.PatternConnection{
			{ID: uuid.New(), Pattern1ID: p1.ID, Pattern2ID: p2.ID, Strength: 0.3},
		}, nil)

		network, err := f.service.Network(ctx, userID)
		require.NoError(t, err)

		// Two pattern nodes plus one shared thing node.
		require.Len(t, network.Nodes, 3)
		assert.Equal(t, "pattern_"+p1.ID.String(), network.Nodes[0].ID)
		assert.Equal(t, 30, network.Nodes[0].Size)
		// Size is capped for very frequent patterns.
		assert.Equal(t, 50, network.Nodes[1].Size)
		assert.Equal(t, 15, network.Nodes[2].Size)

		// Two occurrence edges plus one pattern connection.
		require.Len(t, network.Edges, 3)
		assert.InDelta(t, 0.3, network.Edges[2].Strength, 1e-9)
	})

	t.Run("empty graph is returned as empty slices", func(t *testing.T) {
		f := newPatternFixture()
		f.patternRepo.On("ListByUser", ctx, nil, userID).Return(nil, nil)
		f.patternRepo.On("ListOccurrencesByUser", ctx, nil, userID).Return(nil, nil)
		f.patternRepo.On("ListConnectionsByUser", ctx, nil, userID).Return(nil, nil)

		network, err := f.service.Network(ctx, userID)
		require.NoError(t, err)
		assert.NotNil(t, network.Nodes)
		assert.NotNil(t, network.Edges)
		assert.Empty(t, network.Nodes)
	})
}
