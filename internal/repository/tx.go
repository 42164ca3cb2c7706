package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TxRunner runs a function inside a database transaction with automatic
// rollback on error or panic.
type TxRunner struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// Compile-time check
var _ Transactor = (*TxRunner)(nil)

// NewTxRunner creates a new transaction runner over the pool.
func NewTxRunner(db *pgxpool.Pool, logger *zap.Logger) *TxRunner {
	return &TxRunner{db: db, logger: logger.Named("TxRunner")}
}

// Pool returns the underlying pool for non-transactional queries.
func (h *TxRunner) Pool() DBTX {
	return h.db
}

// WithTransaction executes fn in a transaction, committing on success.
func (h *TxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := h.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				h.logger.Error("Failed to rollback transaction after panic",
					zap.Error(rollbackErr), zap.Any("panic", p))
			}
			panic(p) // re-throw after rollback
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			h.logger.Error("Failed to rollback transaction",
				zap.Error(rollbackErr), zap.NamedError("original_error", err))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
