package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
)

// Compile-time check
var _ TagRepository = (*pgTagRepository)(nil)

type pgTagRepository struct {
	logger *zap.Logger
}

// NewPgTagRepository creates a new PostgreSQL-backed TagRepository.
func NewPgTagRepository(logger *zap.Logger) TagRepository {
	return &pgTagRepository{logger: logger.Named("PgTagRepo")}
}

// GetOrCreate returns the tag with the given name, creating it on first use.
// Tag names are stored lowercase.
func (r *pgTagRepository) GetOrCreate(ctx context.Context, q DBTX, name string, createdBy uuid.UUID) (*models.ThingTag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, models.ErrInvalidInput
	}

	tag := &models.ThingTag{}
	query := `
        INSERT INTO thing_tags (id, name, created_by, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id, name, created_by, created_at
    `
	err := q.QueryRow(ctx, query, uuid.New(), name, createdBy, time.Now().UTC()).
		Scan(&tag.ID, &tag.Name, &tag.CreatedBy, &tag.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to get or create tag", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to get or create tag %q: %w", name, err)
	}
	return tag, nil
}

func (r *pgTagRepository) ReplaceThingTags(ctx context.Context, q DBTX, thingID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM thing_tag_links WHERE thing_id = $1`, thingID); err != nil {
		return fmt.Errorf("failed to clear tags for thing %s: %w", thingID, err)
	}
	for _, tagID := range tagIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO thing_tag_links (thing_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			thingID, tagID); err != nil {
			return fmt.Errorf("failed to link tag for thing %s: %w", thingID, err)
		}
	}
	return nil
}

func (r *pgTagRepository) ListByThing(ctx context.Context, q DBTX, thingID uuid.UUID) ([]models.ThingTag, error) {
	query := `
        SELECT t.id, t.name, t.created_by, t.created_at
        FROM thing_tags t
        JOIN thing_tag_links l ON l.tag_id = t.id
        WHERE l.thing_id = $1
        ORDER BY t.name
    `
	rows, err := q.Query(ctx, query, thingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for thing %s: %w", thingID, err)
	}
	defer rows.Close()

	var tags []models.ThingTag
	for rows.Next() {
		var tag models.ThingTag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedBy, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
