package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thing-journal-server/internal/ai"
	"thing-journal-server/internal/messaging"
	"thing-journal-server/internal/models"
	"thing-journal-server/internal/repository"
)

const (
	// minThingsForAnalysis is the smallest journal the model can find
	// patterns in.
	minThingsForAnalysis = 3
	// occurrenceStrength is the fixed strength recorded for a
	// pattern-to-thing link.
	occurrenceStrength = 0.7
	// minSharedThings is how many things two patterns must co-occur in
	// before they are connected.
	minSharedThings = 2
	// recurringThreshold is the occurrence count at which a theme counts
	// as recurring on the dashboard.
	recurringThreshold = 2
	// insightThreshold is the journal size at which the dashboard starts
	// offering insights.
	insightThreshold = 5
	// timelineDays is the dashboard activity window.
	timelineDays = 30
)

// AnalysisRequest acknowledges a queued pattern analysis.
type AnalysisRequest struct {
	TaskID     string `json:"task_id"`
	ThingCount int    `json:"thing_count"`
}

// TimelineBucket is one week of journal activity.
type TimelineBucket struct {
	WeekStart time.Time `json:"week_start"`
	Count     int       `json:"count"`
}

// SymbolCount is a symbol with its frequency across the journal.
type SymbolCount struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

// Dashboard is the pattern overview for one user.
type Dashboard struct {
	TotalThings     int              `json:"total_things"`
	PatternsFound   int              `json:"patterns_found"`
	RecurringThemes int              `json:"recurring_themes"`
	AvgLucidity     float64          `json:"avg_lucidity"`
	Timeline        []TimelineBucket `json:"timeline"`
	MoodCounts      map[string]int   `json:"mood_counts"`
	TopSymbols      []SymbolCount    `json:"top_symbols"`
	Insights        []string         `json:"insights"`
}

// NetworkNode is one vertex of the pattern graph.
type NetworkNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Size  int    `json:"size"`
}

// NetworkEdge joins two nodes with a weight.
type NetworkEdge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Strength float64 `json:"strength"`
}

// PatternNetwork is the graph of patterns, the things they occur in and
// the connections between patterns.
type PatternNetwork struct {
	Nodes []NetworkNode `json:"nodes"`
	Edges []NetworkEdge `json:"edges"`
}

// PatternService owns pattern discovery: queueing analysis runs,
// executing them against the AI model and serving the dashboard and
// network views built from the results.
type PatternService interface {
	// RequestAnalysis queues a background analysis of the user's journal.
	// Returns ErrNotEnoughThings for journals below the minimum size.
	RequestAnalysis(ctx context.Context, userID uuid.UUID) (*AnalysisRequest, error)
	// RunAnalysis performs the analysis synchronously. Called by the
	// worker.
	RunAnalysis(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.ThingPattern, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error)
	Network(ctx context.Context, userID uuid.UUID) (*PatternNetwork, error)
}

// Compile-time checks
var (
	_ PatternService                = (*patternServiceImpl)(nil)
	_ messaging.AnalysisTaskHandler = (*patternServiceImpl)(nil)
)

type patternServiceImpl struct {
	tx          repository.Transactor
	patternRepo repository.PatternRepository
	thingRepo   repository.ThingRepository
	aiService   ai.Service
	publisher   messaging.AnalysisTaskPublisher
	logger      *zap.Logger
}

// NewPatternService creates a PatternService. The publisher may be nil in
// the worker process, where RequestAnalysis is never called.
func NewPatternService(
	tx repository.Transactor,
	patternRepo repository.PatternRepository,
	thingRepo repository.ThingRepository,
	aiService ai.Service,
	publisher messaging.AnalysisTaskPublisher,
	logger *zap.Logger,
) PatternService {
	return &patternServiceImpl{
		tx:          tx,
		patternRepo: patternRepo,
		thingRepo:   thingRepo,
		aiService:   aiService,
		publisher:   publisher,
		logger:      logger.Named("PatternService"),
	}
}

func (s *patternServiceImpl) RequestAnalysis(ctx context.Context, userID uuid.UUID) (*AnalysisRequest, error) {
	things, err := s.thingRepo.ListByUserChronological(ctx, s.tx.Pool(), userID)
	if err != nil {
		return nil, err
	}
	if len(things) < minThingsForAnalysis {
		return nil, fmt.Errorf("%w: have %d, need %d", models.ErrNotEnoughThings, len(things), minThingsForAnalysis)
	}

	payload := messaging.AnalysisTaskPayload{
		TaskID:      uuid.NewString(),
		UserID:      userID,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishAnalysisTask(ctx, payload); err != nil {
		return nil, fmt.Errorf("failed to queue analysis task: %w", err)
	}

	s.logger.Info("Analysis task queued",
		zap.String("taskID", payload.TaskID),
		zap.String("userID", userID.String()),
		zap.Int("thingCount", len(things)))
	return &AnalysisRequest{TaskID: payload.TaskID, ThingCount: len(things)}, nil
}

// HandleAnalysisTask implements messaging.AnalysisTaskHandler.
func (s *patternServiceImpl) HandleAnalysisTask(ctx context.Context, payload messaging.AnalysisTaskPayload) error {
	s.logger.Info("Handling analysis task",
		zap.String("taskID", payload.TaskID),
		zap.String("userID", payload.UserID.String()))
	return s.RunAnalysis(ctx, payload.UserID)
}

func (s *patternServiceImpl) RunAnalysis(ctx context.Context, userID uuid.UUID) error {
	things, err := s.thingRepo.ListByUserChronological(ctx, s.tx.Pool(), userID)
	if err != nil {
		return err
	}
	if len(things) < minThingsForAnalysis {
		return fmt.Errorf("%w: have %d, need %d", models.ErrNotEnoughThings, len(things), minThingsForAnalysis)
	}

	inputs := make([]ai.ThingInput, 0, len(things))
	for _, t := range things {
		text := t.Transcription
		if text == "" {
			text = t.Description
		}
		inputs = append(inputs, ai.ThingInput{Date: t.ThingDate, Text: text})
	}

	results, err := s.aiService.FindPatterns(ctx, inputs)
	if err != nil {
		return fmt.Errorf("pattern analysis failed: %w", err)
	}

	now := time.Now().UTC()
	// Things linked to each materialized pattern, for connection building.
	patternThings := make(map[uuid.UUID]map[uuid.UUID]struct{})
	patternIDs := make([]uuid.UUID, 0, len(results))

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		for _, result := range results {
			linked := resolveOccurrences(things, result.Occurrences)
			if len(linked) == 0 {
				continue
			}

			pattern := &models.ThingPattern{
				ID:              uuid.New(),
				UserID:          userID,
				PatternType:     models.NormalizePatternType(result.Type),
				Name:            result.Name,
				Description:     result.Description,
				ConfidenceScore: clamp01(result.Confidence),
				OccurrenceCount: len(linked),
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			first := linked[0].ThingDate
			last := linked[len(linked)-1].ThingDate
			pattern.FirstOccurrence = &first
			pattern.LastOccurrence = &last

			if err := s.patternRepo.Upsert(ctx, tx, pattern); err != nil {
				return err
			}

			thingSet := make(map[uuid.UUID]struct{}, len(linked))
			for _, thing := range linked {
				occurrence := &models.PatternOccurrence{
					ID:        uuid.New(),
					ThingID:   thing.ID,
					PatternID: pattern.ID,
					Strength:  occurrenceStrength,
					CreatedAt: now,
				}
				if err := s.patternRepo.LinkOccurrence(ctx, tx, occurrence); err != nil {
					return err
				}
				thingSet[thing.ID] = struct{}{}
			}
			patternThings[pattern.ID] = thingSet
			patternIDs = append(patternIDs, pattern.ID)
		}

		return s.connectPatterns(ctx, tx, patternIDs, patternThings, now)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Analysis run complete",
		zap.String("userID", userID.String()),
		zap.Int("thingCount", len(things)),
		zap.Int("patterns", len(patternIDs)))
	return nil
}

// connectPatterns links every pair of patterns that co-occur in enough
// things. Strength scales with the shared count, capped at 1.
func (s *patternServiceImpl) connectPatterns(
	ctx context.Context,
	tx repository.DBTX,
	patternIDs []uuid.UUID,
	patternThings map[uuid.UUID]map[uuid.UUID]struct{},
	now time.Time,
) error {
	for i := 0; i < len(patternIDs); i++ {
		for j := i + 1; j < len(patternIDs); j++ {
			shared := 0
			for thingID := range patternThings[patternIDs[i]] {
				if _, ok := patternThings[patternIDs[j]][thingID]; ok {
					shared++
				}
			}
			if shared < minSharedThings {
				continue
			}
			// Store the pair in canonical order so reruns that
			// enumerate patterns differently hit the same row.
			first, second := patternIDs[i], patternIDs[j]
			if bytes.Compare(first[:], second[:]) > 0 {
				first, second = second, first
			}
			conn := &models.PatternConnection{
				ID:             uuid.New(),
				Pattern1ID:     first,
				Pattern2ID:     second,
				Strength:       clamp01(float64(shared) / 10.0),
				ConnectionType: "co_occurrence",
				CreatedAt:      now,
			}
			if err := s.patternRepo.UpsertConnection(ctx, tx, conn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *patternServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]models.ThingPattern, error) {
	patterns, err := s.patternRepo.ListByUser(ctx, s.tx.Pool(), userID)
	if err != nil {
		return nil, err
	}
	if patterns == nil {
		patterns = []models.ThingPattern{}
	}
	return patterns, nil
}

func (s *patternServiceImpl) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	things, err := s.thingRepo.ListByUserChronological(ctx, s.tx.Pool(), userID)
	if err != nil {
		return nil, err
	}
	patternCount, err := s.patternRepo.CountByUser(ctx, s.tx.Pool(), userID)
	if err != nil {
		return nil, err
	}
	recurring, err := s.patternRepo.CountRecurring(ctx, s.tx.Pool(), userID, models.PatternTheme, recurringThreshold)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		TotalThings:     len(things),
		PatternsFound:   patternCount,
		RecurringThemes: recurring,
		Timeline:        buildTimeline(things, time.Now().UTC()),
		MoodCounts:      map[string]int{},
		TopSymbols:      []SymbolCount{},
		Insights:        []string{},
	}

	luciditySum := 0
	symbolCounts := map[string]int{}
	for _, t := range things {
		luciditySum += t.LucidityLevel
		if t.Mood != "" {
			dashboard.MoodCounts[t.Mood]++
		}
		for _, symbol := range t.Symbols {
			symbolCounts[symbol]++
		}
	}
	if len(things) > 0 {
		dashboard.AvgLucidity = float64(luciditySum) / float64(len(things))
	}
	dashboard.TopSymbols = topSymbols(symbolCounts, 10)

	if len(things) >= insightThreshold {
		dashboard.Insights = buildInsights(dashboard, things)
	}
	return dashboard, nil
}

func (s *patternServiceImpl) Network(ctx context.Context, userID uuid.UUID) (*PatternNetwork, error) {
	patterns, err := s.patternRepo.ListByUser(ctx, s.tx.Pool(), userID)
	if err != nil {
		return nil, err
	}
	occurrences, err := s.patternRepo.ListOccurrencesByUser(ctx, s.tx.Pool(), userID)
	if err != nil {
		return nil, err
	}
	connections, err := s.patternRepo.ListConnectionsByUser(ctx, s.tx.Pool(), userID)
	if err != nil {
		return nil, err
	}

	network := &PatternNetwork{Nodes: []NetworkNode{}, Edges: []NetworkEdge{}}

	patternNode := make(map[uuid.UUID]string, len(patterns))
	for _, p := range patterns {
		nodeID := "pattern_" + p.ID.String()
		patternNode[p.ID] = nodeID
		size := p.OccurrenceCount * 10
		if size > 50 {
			size = 50
		}
		network.Nodes = append(network.Nodes, NetworkNode{
			ID:    nodeID,
			Label: p.Name,
			Group: string(p.PatternType),
			Size:  size,
		})
	}

	thingNode := make(map[uuid.UUID]string)
	for _, occ := range occurrences {
		pNode, ok := patternNode[occ.PatternID]
		if !ok {
			continue
		}
		tNode, ok := thingNode[occ.ThingID]
		if !ok {
			tNode = "thing_" + occ.ThingID.String()
			thingNode[occ.ThingID] = tNode
			network.Nodes = append(network.Nodes, NetworkNode{
				ID:    tNode,
				Label: "Entry",
				Group: "thing",
				Size:  15,
			})
		}
		network.Edges = append(network.Edges, NetworkEdge{
			From:     pNode,
			To:       tNode,
			Strength: occ.Strength,
		})
	}

	for _, conn := range connections {
		from, ok1 := patternNode[conn.Pattern1ID]
		to, ok2 := patternNode[conn.Pattern2ID]
		if !ok1 || !ok2 {
			continue
		}
		network.Edges = append(network.Edges, NetworkEdge{
			From:     from,
			To:       to,
			Strength: conn.Strength,
		})
	}

	return network, nil
}

// resolveOccurrences maps the model's 1-based entry indices back onto
// things. Index 0 is tolerated as the first entry; anything else out of
// range is dropped.
func resolveOccurrences(things []models.Thing, indices []int) []models.Thing {
	seen := make(map[int]struct{}, len(indices))
	linked := make([]models.Thing, 0, len(indices))
	for _, idx := range indices {
		pos := idx - 1
		if idx == 0 {
			pos = 0
		}
		if pos < 0 || pos >= len(things) {
			continue
		}
		if _, dup := seen[pos]; dup {
			continue
		}
		seen[pos] = struct{}{}
		linked = append(linked, things[pos])
	}
	sort.Slice(linked, func(i, j int) bool {
		return linked[i].ThingDate.Before(linked[j].ThingDate)
	})
	return linked
}

// buildTimeline buckets the recent things into calendar weeks.
func buildTimeline(things []models.Thing, now time.Time) []TimelineBucket {
	cutoff := now.AddDate(0, 0, -timelineDays)

	counts := map[time.Time]int{}
	for _, t := range things {
		if t.ThingDate.Before(cutoff) {
			continue
		}
		counts[weekStart(t.ThingDate)]++
	}

	weeks := make([]time.Time, 0, len(counts))
	for week := range counts {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	timeline := make([]TimelineBucket, 0, len(weeks))
	for _, week := range weeks {
		timeline = append(timeline, TimelineBucket{WeekStart: week, Count: counts[week]})
	}
	return timeline
}

// weekStart truncates a time to the Monday of its week, UTC midnight.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

func topSymbols(counts map[string]int, limit int) []SymbolCount {
	symbols := make([]SymbolCount, 0, len(counts))
	for symbol, count := range counts {
		symbols = append(symbols, SymbolCount{Symbol: symbol, Count: count})
	}
	sort.Slice(symbols, func(i, j int) bool {
		if symbols[i].Count != symbols[j].Count {
			return symbols[i].Count > symbols[j].Count
		}
		return symbols[i].Symbol < symbols[j].Symbol
	})
	if len(symbols) > limit {
		symbols = symbols[:limit]
	}
	return symbols
}

func buildInsights(d *Dashboard, things []models.Thing) []string {
	insights := []string{}
	if d.RecurringThemes > 0 {
		insights = append(insights, fmt.Sprintf("You have %d recurring themes across your journal.", d.RecurringThemes))
	}
	if d.AvgLucidity >= 5 {
		insights = append(insights, fmt.Sprintf("Your average lucidity of %.1f is on the high side.", d.AvgLucidity))
	}
	if len(d.TopSymbols) > 0 {
		insights = append(insights, fmt.Sprintf("%q is your most frequent symbol, appearing %d times.", d.TopSymbols[0].Symbol, d.TopSymbols[0].Count))
	}
	if topMood, count := dominantMood(d.MoodCounts); topMood != "" && count*2 > len(things) {
		insights = append(insights, fmt.Sprintf("More than half of your entries share the mood %q.", topMood))
	}
	return insights
}

func dominantMood(counts map[string]int) (string, int) {
	best, bestCount := "", 0
	for mood, count := range counts {
		if count > bestCount || (count == bestCount && mood < best) {
			best, bestCount = mood, count
		}
	}
	return best, bestCount
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
