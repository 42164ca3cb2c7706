package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"thing-journal-server/internal/models"
)

const defaultPerPage = 20

// Compile-time check
var _ Index = (*redisIndex)(nil)

type redisIndex struct {
	client    *redis.Client
	indexName string
	logger    *zap.Logger
}

// NewRedisIndex creates a RediSearch-backed Index. The FT index is created
// on first use if it does not exist yet.
func NewRedisIndex(ctx context.Context, client *redis.Client, indexName string, logger *zap.Logger) (Index, error) {
	idx := &redisIndex{
		client:    client,
		indexName: indexName,
		logger:    logger.Named("RedisSearchIndex"),
	}
	if err := idx.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (r *redisIndex) Enabled() bool { return true }

func (r *redisIndex) ensureIndex(ctx context.Context) error {
	err := r.client.FTCreate(ctx, r.indexName,
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []interface{}{r.keyPrefix()},
		},
		&redis.FieldSchema{FieldName: "title", FieldType: redis.SearchFieldTypeText, Weight: 2},
		&redis.FieldSchema{FieldName: "description", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "themes", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "symbols", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "mood", FieldType: redis.SearchFieldTypeTag},
		&redis.FieldSchema{FieldName: "lucidity_level", FieldType: redis.SearchFieldTypeNumeric},
		&redis.FieldSchema{FieldName: "created_at", FieldType: redis.SearchFieldTypeNumeric, Sortable: true},
	).Err()
	if err != nil {
		if strings.Contains(err.Error(), "Index already exists") {
			return nil
		}
		return fmt.Errorf("failed to create search index %s: %w", r.indexName, err)
	}
	r.logger.Info("Search index created", zap.String("index", r.indexName))
	return nil
}

func (r *redisIndex) keyPrefix() string {
	return r.indexName + ":thing:"
}

func (r *redisIndex) docKey(thingID string) string {
	return r.keyPrefix() + thingID
}

func (r *redisIndex) SaveThing(ctx context.Context, thing *models.Thing) error {
	fields := map[string]interface{}{
		"thing_id":       thing.ID.String(),
		"title":          thing.Title,
		"description":    thing.Description,
		"themes":         strings.Join(thing.Themes, " "),
		"symbols":        strings.Join(thing.Symbols, " "),
		"mood":           thing.Mood,
		"lucidity_level": thing.LucidityLevel,
		"thing_date":     thing.ThingDate.Format("2006-01-02"),
		"created_at":     thing.CreatedAt.Unix(),
	}
	if err := r.client.HSet(ctx, r.docKey(thing.ID.String()), fields).Err(); err != nil {
		r.logger.Error("Failed to index thing",
			zap.String("thingID", thing.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to index thing %s: %w", thing.ID, err)
	}
	r.logger.Debug("Thing indexed", zap.String("thingID", thing.ID.String()))
	return nil
}

func (r *redisIndex) DeleteThing(ctx context.Context, thingID string) error {
	if err := r.client.Del(ctx, r.docKey(thingID)).Err(); err != nil {
		r.logger.Error("Failed to remove thing from index",
			zap.String("thingID", thingID), zap.Error(err))
		return fmt.Errorf("failed to remove thing %s from index: %w", thingID, err)
	}
	r.logger.Debug("Thing removed from index", zap.String("thingID", thingID))
	return nil
}

func (r *redisIndex) Search(ctx context.Context, q Query) (*Result, error) {
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	page := q.Page
	if page < 0 {
		page = 0
	}

	query := buildQuery(q)
	res, err := r.client.FTSearchWithArgs(ctx, r.indexName, query, &redis.FTSearchOptions{
		LimitOffset: page * perPage,
		Limit:       perPage,
		SortBy:      []redis.FTSearchSortBy{{FieldName: "created_at", Desc: true}},
	}).Result()
	if err != nil {
		r.logger.Error("Search query failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("search query failed: %w", err)
	}

	result := &Result{
		Hits:    make([]Hit, 0, len(res.Docs)),
		Total:   int64(res.Total),
		Page:    page,
		PerPage: perPage,
	}
	for _, doc := range res.Docs {
		hit := Hit{
			ThingID:     doc.Fields["thing_id"],
			Title:       doc.Fields["title"],
			Description: doc.Fields["description"],
			Mood:        doc.Fields["mood"],
			ThingDate:   doc.Fields["thing_date"],
		}
		if themes := doc.Fields["themes"]; themes != "" {
			hit.Themes = strings.Fields(themes)
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// buildQuery assembles a RediSearch query string from free text and
// optional filters.
func buildQuery(q Query) string {
	var parts []string
	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, escapeQuery(text))
	}
	if q.Mood != "" {
		parts = append(parts, fmt.Sprintf("@mood:{%s}", escapeTag(q.Mood)))
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

var queryEscaper = strings.NewReplacer(
	"@", "\\@", "{", "\\{", "}", "\\}", "(", "\\(", ")", "\\)",
	"|", "\\|", "-", "\\-", "~", "\\~", "\"", "\\\"", ":", "\\:",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

func escapeTag(s string) string {
	return strings.NewReplacer(" ", "\\ ", ",", "\\,").Replace(escapeQuery(s))
}
