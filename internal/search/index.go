package search

import (
	"context"

	"thing-journal-server/internal/models"
)

// Hit is one search match.
type Hit struct {
	ThingID     string   `json:"thingId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Mood        string   `json:"mood"`
	Themes      []string `json:"themes"`
	ThingDate   string   `json:"thingDate"`
}

// Result is a page of search matches.
type Result struct {
	Hits    []Hit `json:"hits"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
}

// Query describes one search request against the community index.
type Query struct {
	Text    string
	Mood    string
	Page    int
	PerPage int
}

// Index mirrors community things into a full-text search index.
// Only community-visible things are ever stored; everything else is
// deleted on sight.
type Index interface {
	// SaveThing upserts one community thing into the index.
	SaveThing(ctx context.Context, thing *models.Thing) error
	// DeleteThing removes one thing from the index. Deleting an absent
	// document is not an error.
	DeleteThing(ctx context.Context, thingID string) error
	// Search runs a full-text query over indexed community things.
	Search(ctx context.Context, q Query) (*Result, error)
	// Enabled reports whether a search backend is configured.
	Enabled() bool
}
