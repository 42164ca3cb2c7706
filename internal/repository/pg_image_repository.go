package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
)

// Compile-time check
var _ ImageRepository = (*pgImageRepository)(nil)

type pgImageRepository struct {
	logger *zap.Logger
}

// NewPgImageRepository creates a new PostgreSQL-backed ImageRepository.
func NewPgImageRepository(logger *zap.Logger) ImageRepository {
	return &pgImageRepository{logger: logger.Named("PgImageRepo")}
}

func (r *pgImageRepository) Create(ctx context.Context, q DBTX, image *models.ThingImage) error {
	query := `
        INSERT INTO thing_images (id, thing_id, object_key, image_url, caption, position, uploaded_at)
        VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
    `
	_, err := q.Exec(ctx, query,
		image.ID, image.ThingID, image.ObjectKey, image.ImageURL, image.Caption, image.Position, image.UploadedAt)
	if err != nil {
		r.logger.Error("Failed to create thing image",
			zap.String("thingID", image.ThingID.String()), zap.Error(err))
		return fmt.Errorf("failed to create thing image: %w", err)
	}
	return nil
}

func (r *pgImageRepository) ListByThing(ctx context.Context, q DBTX, thingID uuid.UUID) ([]models.ThingImage, error) {
	query := `
        SELECT id, thing_id, COALESCE(object_key, ''), COALESCE(image_url, ''), caption, position, uploaded_at
        FROM thing_images
        WHERE thing_id = $1
        ORDER BY position, uploaded_at
    `
	rows, err := q.Query(ctx, query, thingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images for thing %s: %w", thingID, err)
	}
	defer rows.Close()

	var images []models.ThingImage
	for rows.Next() {
		var img models.ThingImage
		if err := rows.Scan(&img.ID, &img.ThingID, &img.ObjectKey, &img.ImageURL, &img.Caption, &img.Position, &img.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thing image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
