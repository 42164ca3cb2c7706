package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
)

// Compile-time check
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	logger *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
func NewPgStoryRepository(logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{logger: logger.Named("PgStoryRepo")}
}

func (r *pgStoryRepository) Create(ctx context.Context, q DBTX, story *models.Story) error {
	query := `
        INSERT INTO stories
            (id, user_id, title, description, privacy_level, played_count, last_played, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	logFields := []zap.Field{zap.String("storyID", story.ID.String()), zap.String("userID", story.UserID.String())}
	_, err := q.Exec(ctx, query,
		story.ID, story.UserID, story.Title, story.Description, story.PrivacyLevel,
		story.PlayedCount, story.LastPlayed, story.CreatedAt, story.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create story", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create story: %w", err)
	}
	r.logger.Info("Story created", logFields...)
	return nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.Story, error) {
	query := `
        SELECT id, user_id, title, description, privacy_level, played_count, last_played, created_at, updated_at
        FROM stories WHERE id = $1
    `
	story := &models.Story{}
	err := q.QueryRow(ctx, query, id).Scan(
		&story.ID, &story.UserID, &story.Title, &story.Description, &story.PrivacyLevel,
		&story.PlayedCount, &story.LastPlayed, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	return story, nil
}

func (r *pgStoryRepository) Update(ctx context.Context, q DBTX, story *models.Story) error {
	query := `
        UPDATE stories SET title = $2, description = $3, privacy_level = $4, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := q.Exec(ctx, query, story.ID, story.Title, story.Description, story.PrivacyLevel)
	if err != nil {
		return fmt.Errorf("failed to update story %s: %w", story.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgStoryRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete story %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Story deleted", zap.String("storyID", id.String()))
	return nil
}

func (r *pgStoryRepository) ListByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.Story, error) {
	query := `
        SELECT id, user_id, title, description, privacy_level, played_count, last_played, created_at, updated_at
        FROM stories WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories for user %s: %w", userID, err)
	}
	defer rows.Close()

	var stories []models.Story
	for rows.Next() {
		var s models.Story
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.PrivacyLevel,
			&s.PlayedCount, &s.LastPlayed, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

func (r *pgStoryRepository) AddThing(ctx context.Context, q DBTX, link *models.StoryThing) error {
	query := `
        INSERT INTO story_things (id, story_id, thing_id, position, duration, transition, notes, added_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := q.Exec(ctx, query,
		link.ID, link.StoryID, link.ThingID, link.Position, link.Duration, link.Transition, link.Notes, link.AddedAt)
	if err != nil {
		r.logger.Error("Failed to link thing into story",
			zap.String("storyID", link.StoryID.String()),
			zap.String("thingID", link.ThingID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to link thing into story: %w", err)
	}
	return nil
}

// ReplaceThings rewrites a story's ordered thing list. Positions are
// renumbered densely from zero in the order given.
func (r *pgStoryRepository) ReplaceThings(ctx context.Context, q DBTX, storyID uuid.UUID, links []models.StoryThing) error {
	if _, err := q.Exec(ctx, `DELETE FROM story_things WHERE story_id = $1`, storyID); err != nil {
		return fmt.Errorf("failed to clear story things for %s: %w", storyID, err)
	}
	for i := range links {
		links[i].StoryID = storyID
		links[i].Position = i
		if err := r.AddThing(ctx, q, &links[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *pgStoryRepository) ListEntries(ctx context.Context, q DBTX, storyID uuid.UUID) ([]models.StoryEntry, error) {
	query := `
        SELECT st.id, st.story_id, st.thing_id, st.position, st.duration, st.transition, st.notes, st.added_at,
               ` + prefixedThingColumns("t") + `
        FROM story_things st
        JOIN things t ON t.id = st.thing_id
        WHERE st.story_id = $1
        ORDER BY st.position, st.added_at
    `
	rows, err := q.Query(ctx, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list story entries for %s: %w", storyID, err)
	}
	defer rows.Close()

	var entries []models.StoryEntry
	for rows.Next() {
		var e models.StoryEntry
		if err := rows.Scan(
			&e.Link.ID, &e.Link.StoryID, &e.Link.ThingID, &e.Link.Position,
			&e.Link.Duration, &e.Link.Transition, &e.Link.Notes, &e.Link.AddedAt,
			&e.Thing.ID, &e.Thing.UserID, &e.Thing.Title, &e.Thing.Description,
			&e.Thing.VoiceRecording, &e.Thing.Transcription,
			&e.Thing.PrivacyLevel, &e.Thing.ThingDate, &e.Thing.Mood, &e.Thing.LucidityLevel,
			&e.Thing.Themes, &e.Thing.Symbols, &e.Thing.Entities,
			&e.Thing.SemanticVerbs, &e.Thing.SemanticNouns, &e.Thing.SemanticBits,
			&e.Thing.CreatedAt, &e.Thing.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *pgStoryRepository) ListStoryIDsByThing(ctx context.Context, q DBTX, thingID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, `SELECT story_id FROM story_things WHERE thing_id = $1`, thingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories for thing %s: %w", thingID, err)
	}
	defer rows.Close()

	var storyIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan story id: %w", err)
		}
		storyIDs = append(storyIDs, id)
	}
	return storyIDs, rows.Err()
}

// CompactPositions renumbers a story's links densely from zero, keeping
// their current relative order.
func (r *pgStoryRepository) CompactPositions(ctx context.Context, q DBTX, storyID uuid.UUID) error {
	query := `
        UPDATE story_things st
        SET position = ranked.new_position
        FROM (
            SELECT id, ROW_NUMBER() OVER (ORDER BY position, added_at) - 1 AS new_position
            FROM story_things
            WHERE story_id = $1
        ) ranked
        WHERE st.id = ranked.id AND st.position <> ranked.new_position
    `
	if _, err := q.Exec(ctx, query, storyID); err != nil {
		return fmt.Errorf("failed to compact positions for story %s: %w", storyID, err)
	}
	return nil
}

func (r *pgStoryRepository) RecordPlay(ctx context.Context, q DBTX, storyID uuid.UUID) error {
	tag, err := q.Exec(ctx,
		`UPDATE stories SET played_count = played_count + 1, last_played = NOW() WHERE id = $1`, storyID)
	if err != nil {
		return fmt.Errorf("failed to record story play for %s: %w", storyID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// prefixedThingColumns qualifies the thing column list with a table alias
// for join queries.
func prefixedThingColumns(alias string) string {
	cols := []string{
		"id", "user_id", "title", "description", "voice_recording", "transcription",
		"privacy_level", "thing_date", "mood", "lucidity_level",
		"themes", "symbols", "entities", "semantic_verbs", "semantic_nouns", "semantic_bits",
		"created_at", "updated_at",
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}
