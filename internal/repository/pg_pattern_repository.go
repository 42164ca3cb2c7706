package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
)

// Compile-time check
var _ PatternRepository = (*pgPatternRepository)(nil)

type pgPatternRepository struct {
	logger *zap.Logger
}

// NewPgPatternRepository creates a new PostgreSQL-backed PatternRepository.
func NewPgPatternRepository(logger *zap.Logger) PatternRepository {
	return &pgPatternRepository{logger: logger.Named("PgPatternRepo")}
}

// Upsert inserts a pattern or, when (user, type, name) already exists,
// refreshes the analysis-owned fields. The row's ID is set to the stored
// value either way.
func (r *pgPatternRepository) Upsert(ctx context.Context, q DBTX, pattern *models.ThingPattern) error {
	query := `
        INSERT INTO thing_patterns
            (id, user_id, pattern_type, name, description, confidence_score, occurrence_count,
             first_occurrence, last_occurrence, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (user_id, pattern_type, name) DO UPDATE SET
            description = EXCLUDED.description,
            confidence_score = EXCLUDED.confidence_score,
            occurrence_count = EXCLUDED.occurrence_count,
            first_occurrence = COALESCE(EXCLUDED.first_occurrence, thing_patterns.first_occurrence),
            last_occurrence = COALESCE(EXCLUDED.last_occurrence, thing_patterns.last_occurrence),
            updated_at = EXCLUDED.updated_at
        RETURNING id
    `
	logFields := []zap.Field{
		zap.String("userID", pattern.UserID.String()),
		zap.String("type", string(pattern.PatternType)),
		zap.String("name", pattern.Name),
	}
	err := q.QueryRow(ctx, query,
		pattern.ID, pattern.UserID, pattern.PatternType, pattern.Name, pattern.Description,
		pattern.ConfidenceScore, pattern.OccurrenceCount,
		pattern.FirstOccurrence, pattern.LastOccurrence,
		pattern.CreatedAt, pattern.UpdatedAt,
	).Scan(&pattern.ID)
	if err != nil {
		r.logger.Error("Failed to upsert pattern", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to upsert pattern %q: %w", pattern.Name, err)
	}
	r.logger.Debug("Pattern upserted", logFields...)
	return nil
}

func (r *pgPatternRepository) ListByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.ThingPattern, error) {
	query := `
        SELECT id, user_id, pattern_type, name, description, confidence_score, occurrence_count,
               first_occurrence, last_occurrence, created_at, updated_at
        FROM thing_patterns
        WHERE user_id = $1
        ORDER BY confidence_score DESC, occurrence_count DESC
    `
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns for user %s: %w", userID, err)
	}
	defer rows.Close()

	var patterns []models.ThingPattern
	for rows.Next() {
		var p models.ThingPattern
		if err := rows.Scan(&p.ID, &p.UserID, &p.PatternType, &p.Name, &p.Description,
			&p.ConfidenceScore, &p.OccurrenceCount,
			&p.FirstOccurrence, &p.LastOccurrence, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

func (r *pgPatternRepository) CountByUser(ctx context.Context, q DBTX, userID uuid.UUID) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM thing_patterns WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count patterns: %w", err)
	}
	return count, nil
}

func (r *pgPatternRepository) CountRecurring(ctx context.Context, q DBTX, userID uuid.UUID, patternType models.PatternType, minOccurrences int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM thing_patterns WHERE user_id = $1 AND pattern_type = $2 AND occurrence_count >= $3`
	if err := q.QueryRow(ctx, query, userID, patternType, minOccurrences).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recurring patterns: %w", err)
	}
	return count, nil
}

// LinkOccurrence records a pattern sighting in one thing. Existing links
// are left untouched.
func (r *pgPatternRepository) LinkOccurrence(ctx context.Context, q DBTX, occurrence *models.PatternOccurrence) error {
	query := `
        INSERT INTO pattern_occurrences (id, thing_id, pattern_id, context, strength, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (thing_id, pattern_id) DO NOTHING
    `
	_, err := q.Exec(ctx, query,
		occurrence.ID, occurrence.ThingID, occurrence.PatternID,
		occurrence.Context, occurrence.Strength, occurrence.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to link pattern occurrence",
			zap.String("patternID", occurrence.PatternID.String()),
			zap.String("thingID", occurrence.ThingID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to link pattern occurrence: %w", err)
	}
	return nil
}

func (r *pgPatternRepository) ListOccurrencesByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.PatternOccurrence, error) {
	query := `
        SELECT o.id, o.thing_id, o.pattern_id, o.context, o.strength, o.created_at
        FROM pattern_occurrences o
        JOIN thing_patterns p ON p.id = o.pattern_id
        WHERE p.user_id = $1
    `
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pattern occurrences: %w", err)
	}
	defer rows.Close()

	var occurrences []models.PatternOccurrence
	for rows.Next() {
		var o models.PatternOccurrence
		if err := rows.Scan(&o.ID, &o.ThingID, &o.PatternID, &o.Context, &o.Strength, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern occurrence: %w", err)
		}
		occurrences = append(occurrences, o)
	}
	return occurrences, rows.Err()
}

// UpsertConnection records a pairwise pattern connection, refreshing the
// strength when the pair already exists.
func (r *pgPatternRepository) UpsertConnection(ctx context.Context, q DBTX, conn *models.PatternConnection) error {
	query := `
        INSERT INTO pattern_connections (id, pattern1_id, pattern2_id, strength, connection_type, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (pattern1_id, pattern2_id) DO UPDATE SET
            strength = EXCLUDED.strength,
            connection_type = EXCLUDED.connection_type
    `
	_, err := q.Exec(ctx, query,
		conn.ID, conn.Pattern1ID, conn.Pattern2ID, conn.Strength, conn.ConnectionType, conn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert pattern connection: %w", err)
	}
	return nil
}

func (r *pgPatternRepository) ListConnectionsByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.PatternConnection, error) {
	query := `
        SELECT c.id, c.pattern1_id, c.pattern2_id, c.strength, c.connection_type, c.created_at
        FROM pattern_connections c
        JOIN thing_patterns p ON p.id = c.pattern1_id
        WHERE p.user_id = $1
    `
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pattern connections: %w", err)
	}
	defer rows.Close()

	var conns []models.PatternConnection
	for rows.Next() {
		var c models.PatternConnection
		if err := rows.Scan(&c.ID, &c.Pattern1ID, &c.Pattern2ID, &c.Strength, &c.ConnectionType, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern connection: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}
