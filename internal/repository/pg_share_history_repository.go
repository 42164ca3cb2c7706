package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
)

// Compile-time check
var _ ShareHistoryRepository = (*pgShareHistoryRepository)(nil)

type pgShareHistoryRepository struct {
	logger *zap.Logger
}

// NewPgShareHistoryRepository creates a new PostgreSQL-backed ShareHistoryRepository.
func NewPgShareHistoryRepository(logger *zap.Logger) ShareHistoryRepository {
	return &pgShareHistoryRepository{logger: logger.Named("PgShareHistoryRepo")}
}

// Create appends one audit record. The affected sets are stored as jsonb
// arrays so the record stays immutable regardless of later membership
// changes.
func (r *pgShareHistoryRepository) Create(ctx context.Context, q DBTX, record *models.ShareHistory) error {
	query := `
        INSERT INTO share_history
            (id, thing_id, action, old_privacy, new_privacy,
             affected_user_ids, affected_group_ids, performed_by, performed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	logFields := []zap.Field{
		zap.String("thingID", record.ThingID.String()),
		zap.String("action", string(record.Action)),
	}
	userIDs := record.AffectedUserIDs
	if userIDs == nil {
		userIDs = []uuid.UUID{}
	}
	groupIDs := record.AffectedGroupIDs
	if groupIDs == nil {
		groupIDs = []uuid.UUID{}
	}
	_, err := q.Exec(ctx, query,
		record.ID, record.ThingID, record.Action, record.OldPrivacy, record.NewPrivacy,
		userIDs, groupIDs, record.PerformedBy, record.PerformedAt)
	if err != nil {
		r.logger.Error("Failed to create share history record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create share history record: %w", err)
	}
	r.logger.Debug("Share history record created", logFields...)
	return nil
}

func (r *pgShareHistoryRepository) ListByThing(ctx context.Context, q DBTX, thingID uuid.UUID) ([]models.ShareHistory, error) {
	query := `
        SELECT id, thing_id, action, old_privacy, new_privacy,
               affected_user_ids, affected_group_ids, performed_by, performed_at
        FROM share_history
        WHERE thing_id = $1
        ORDER BY performed_at DESC
    `
	rows, err := q.Query(ctx, query, thingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list share history for thing %s: %w", thingID, err)
	}
	defer rows.Close()

	var records []models.ShareHistory
	for rows.Next() {
		var rec models.ShareHistory
		if err := rows.Scan(&rec.ID, &rec.ThingID, &rec.Action, &rec.OldPrivacy, &rec.NewPrivacy,
			&rec.AffectedUserIDs, &rec.AffectedGroupIDs, &rec.PerformedBy, &rec.PerformedAt); err != nil {
			return nil, fmt.Errorf("failed to scan share history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
