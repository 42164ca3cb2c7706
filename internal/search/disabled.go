package search

import (
	"context"
	"errors"

	"thing-journal-server/internal/models"
)

// ErrSearchDisabled is returned for queries when no backend is configured.
var ErrSearchDisabled = errors.New("search is disabled")

// Compile-time check
var _ Index = (*disabledIndex)(nil)

// disabledIndex is used when no search backend is configured. Writes are
// no-ops so the journal keeps working without an index.
type disabledIndex struct{}

// NewDisabledIndex returns an Index that stores nothing.
func NewDisabledIndex() Index { return &disabledIndex{} }

func (*disabledIndex) Enabled() bool { return false }

func (*disabledIndex) SaveThing(ctx context.Context, thing *models.Thing) error { return nil }

func (*disabledIndex) DeleteThing(ctx context.Context, thingID string) error { return nil }

func (*disabledIndex) Search(ctx context.Context, q Query) (*Result, error) {
	return nil, ErrSearchDisabled
}
