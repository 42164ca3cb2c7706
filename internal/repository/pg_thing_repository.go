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
var _ ThingRepository = (*pgThingRepository)(nil)

type pgThingRepository struct {
	logger *zap.Logger
}

// NewPgThingRepository creates a new PostgreSQL-backed ThingRepository.
func NewPgThingRepository(logger *zap.Logger) ThingRepository {
	return &pgThingRepository{logger: logger.Named("PgThingRepo")}
}

const thingColumns = `id, user_id, title, description, voice_recording, transcription,
	privacy_level, thing_date, mood, lucidity_level,
	themes, symbols, entities, semantic_verbs, semantic_nouns, semantic_bits,
	created_at, updated_at`

func scanThing(row pgx.Row, t *models.Thing) error {
	return row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.VoiceRecording, &t.Transcription,
		&t.PrivacyLevel, &t.ThingDate, &t.Mood, &t.LucidityLevel,
		&t.Themes, &t.Symbols, &t.Entities, &t.SemanticVerbs, &t.SemanticNouns, &t.SemanticBits,
		&t.CreatedAt, &t.UpdatedAt,
	)
}

// emptyIfNil keeps jsonb columns as empty arrays instead of nulls.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *pgThingRepository) Create(ctx context.Context, q DBTX, thing *models.Thing) error {
	query := `
        INSERT INTO things
            (id, user_id, title, description, voice_recording, transcription,
             privacy_level, thing_date, mood, lucidity_level,
             themes, symbols, entities, semantic_verbs, semantic_nouns, semantic_bits,
             created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
    `
	logFields := []zap.Field{zap.String("thingID", thing.ID.String()), zap.String("userID", thing.UserID.String())}
	r.logger.Debug("Creating thing", logFields...)

	_, err := q.Exec(ctx, query,
		thing.ID, thing.UserID, thing.Title, thing.Description, thing.VoiceRecording, thing.Transcription,
		thing.PrivacyLevel, thing.ThingDate, thing.Mood, thing.LucidityLevel,
		emptyIfNil(thing.Themes), emptyIfNil(thing.Symbols), emptyIfNil(thing.Entities),
		emptyIfNil(thing.SemanticVerbs), emptyIfNil(thing.SemanticNouns), thing.SemanticBits,
		thing.CreatedAt, thing.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create thing", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create thing: %w", err)
	}
	r.logger.Info("Thing created", logFields...)
	return nil
}

func (r *pgThingRepository) GetByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.Thing, error) {
	query := `SELECT ` + thingColumns + ` FROM things WHERE id = $1`
	thing := &models.Thing{}
	if err := scanThing(q.QueryRow(ctx, query, id), thing); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get thing by ID", zap.String("thingID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get thing %s: %w", id, err)
	}
	return thing, nil
}

func (r *pgThingRepository) Update(ctx context.Context, q DBTX, thing *models.Thing) error {
	query := `
        UPDATE things SET
            title = $2, description = $3, voice_recording = $4, transcription = $5,
            privacy_level = $6, thing_date = $7, mood = $8, lucidity_level = $9,
            themes = $10, symbols = $11, entities = $12,
            semantic_verbs = $13, semantic_nouns = $14, semantic_bits = $15,
            updated_at = NOW()
        WHERE id = $1
    `
	logFields := []zap.Field{zap.String("thingID", thing.ID.String())}
	tag, err := q.Exec(ctx, query,
		thing.ID, thing.Title, thing.Description, thing.VoiceRecording, thing.Transcription,
		thing.PrivacyLevel, thing.ThingDate, thing.Mood, thing.LucidityLevel,
		emptyIfNil(thing.Themes), emptyIfNil(thing.Symbols), emptyIfNil(thing.Entities),
		emptyIfNil(thing.SemanticVerbs), emptyIfNil(thing.SemanticNouns), thing.SemanticBits,
	)
	if err != nil {
		r.logger.Error("Failed to update thing", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to update thing %s: %w", thing.ID, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Thing not found for update", logFields...)
		return models.ErrNotFound
	}
	r.logger.Debug("Thing updated", logFields...)
	return nil
}

func (r *pgThingRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM things WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete thing", zap.String("thingID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete thing %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Thing deleted", zap.String("thingID", id.String()))
	return nil
}

func (r *pgThingRepository) ListByUser(ctx context.Context, q DBTX, userID uuid.UUID, filter ThingFilter) ([]models.Thing, int, error) {
	var sb strings.Builder
	args := []any{userID}
	sb.WriteString(`FROM things WHERE user_id = $1`)

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		fmt.Fprintf(&sb, ` AND (title ILIKE $%d OR description ILIKE $%d OR transcription ILIKE $%d)`, n, n, n)
	}
	if filter.Privacy != "" {
		args = append(args, filter.Privacy)
		fmt.Fprintf(&sb, ` AND privacy_level = $%d`, len(args))
	}

	return r.list(ctx, q, sb.String(), `ORDER BY thing_date DESC, created_at DESC`, args, filter)
}

func (r *pgThingRepository) ListByUserChronological(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.Thing, error) {
	query := `SELECT ` + thingColumns + ` FROM things WHERE user_id = $1 ORDER BY thing_date ASC, created_at ASC`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list things for user %s: %w", userID, err)
	}
	defer rows.Close()
	return collectThings(rows)
}

func (r *pgThingRepository) ListCommunity(ctx context.Context, q DBTX, filter ThingFilter) ([]models.Thing, int, error) {
	var sb strings.Builder
	args := []any{models.PrivacyCommunity}
	sb.WriteString(`FROM things WHERE privacy_level = $1`)

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		fmt.Fprintf(&sb, ` AND (title ILIKE $%d OR description ILIKE $%d)`, n, n)
	}
	if filter.Mood != "" {
		args = append(args, "%"+filter.Mood+"%")
		fmt.Fprintf(&sb, ` AND mood ILIKE $%d`, len(args))
	}

	return r.list(ctx, q, sb.String(), `ORDER BY created_at DESC`, args, filter)
}

func (r *pgThingRepository) ListSharedWithGroup(ctx context.Context, q DBTX, groupID uuid.UUID, filter ThingFilter) ([]models.Thing, int, error) {
	var sb strings.Builder
	args := []any{models.PrivacyGroups, groupID}
	sb.WriteString(`FROM things
        WHERE privacy_level = $1
          AND id IN (SELECT thing_id FROM thing_shared_groups WHERE group_id = $2)`)

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		fmt.Fprintf(&sb, ` AND (title ILIKE $%d OR description ILIKE $%d)`, n, n)
	}

	return r.list(ctx, q, sb.String(), `ORDER BY thing_date DESC`, args, filter)
}

// list runs a count plus a page query over the same WHERE clause.
func (r *pgThingRepository) list(ctx context.Context, q DBTX, whereClause, orderClause string, args []any, filter ThingFilter) ([]models.Thing, int, error) {
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) `+whereClause, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count things", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count things: %w", err)
	}

	query := `SELECT ` + thingColumns + ` ` + whereClause + ` ` + orderClause
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list things", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list things: %w", err)
	}
	defer rows.Close()

	things, err := collectThings(rows)
	if err != nil {
		return nil, 0, err
	}
	return things, total, nil
}

func collectThings(rows pgx.Rows) ([]models.Thing, error) {
	var things []models.Thing
	for rows.Next() {
		var t models.Thing
		if err := scanThing(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan thing row: %w", err)
		}
		things = append(things, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate thing rows: %w", err)
	}
	return things, nil
}

func (r *pgThingRepository) CommunityMoods(ctx context.Context, q DBTX) ([]string, error) {
	query := `SELECT DISTINCT mood FROM things WHERE privacy_level = $1 AND mood <> '' ORDER BY mood`
	rows, err := q.Query(ctx, query, models.PrivacyCommunity)
	if err != nil {
		return nil, fmt.Errorf("failed to list community moods: %w", err)
	}
	defer rows.Close()

	var moods []string
	for rows.Next() {
		var mood string
		if err := rows.Scan(&mood); err != nil {
			return nil, fmt.Errorf("failed to scan mood: %w", err)
		}
		moods = append(moods, mood)
	}
	return moods, rows.Err()
}

func (r *pgThingRepository) SetSharedUsers(ctx context.Context, q DBTX, thingID uuid.UUID, userIDs []uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM thing_shared_users WHERE thing_id = $1`, thingID); err != nil {
		return fmt.Errorf("failed to clear shared users for thing %s: %w", thingID, err)
	}
	for _, userID := range userIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO thing_shared_users (thing_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			thingID, userID); err != nil {
			return fmt.Errorf("failed to add shared user for thing %s: %w", thingID, err)
		}
	}
	return nil
}

func (r *pgThingRepository) SetSharedGroups(ctx context.Context, q DBTX, thingID uuid.UUID, groupIDs []uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM thing_shared_groups WHERE thing_id = $1`, thingID); err != nil {
		return fmt.Errorf("failed to clear shared groups for thing %s: %w", thingID, err)
	}
	for _, groupID := range groupIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO thing_shared_groups (thing_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			thingID, groupID); err != nil {
			return fmt.Errorf("failed to add shared group for thing %s: %w", thingID, err)
		}
	}
	return nil
}

func (r *pgThingRepository) SharedUserIDs(ctx context.Context, q DBTX, thingID uuid.UUID) ([]uuid.UUID, error) {
	return r.collectIDs(ctx, q, `SELECT user_id FROM thing_shared_users WHERE thing_id = $1`, thingID)
}

func (r *pgThingRepository) SharedGroupIDs(ctx context.Context, q DBTX, thingID uuid.UUID) ([]uuid.UUID, error) {
	return r.collectIDs(ctx, q, `SELECT group_id FROM thing_shared_groups WHERE thing_id = $1`, thingID)
}

func (r *pgThingRepository) collectIDs(ctx context.Context, q DBTX, query string, thingID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, query, thingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query share associations: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan share association: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
