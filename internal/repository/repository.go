package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"thing-journal-server/internal/models"
)

// DBTX abstracts over a pgx pool or transaction so repositories can run
// inside or outside an explicit transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Transactor provides query access plus transactional execution. Services
// depend on this interface so tests can substitute a stub that skips real
// transactions.
type Transactor interface {
	Pool() DBTX
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// ThingFilter narrows thing listings.
type ThingFilter struct {
	Search  string // matches title, description or transcription
	Privacy models.PrivacyLevel
	Mood    string
	Limit   int
	Offset  int
}

// ThingRepository persists things and their share associations.
type ThingRepository interface {
	Create(ctx context.Context, q DBTX, thing *models.Thing) error
	GetByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.Thing, error)
	Update(ctx context.Context, q DBTX, thing *models.Thing) error
	Delete(ctx context.Context, q DBTX, id uuid.UUID) error

	ListByUser(ctx context.Context, q DBTX, userID uuid.UUID, filter ThingFilter) ([]models.Thing, int, error)
	ListByUserChronological(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.Thing, error)
	ListCommunity(ctx context.Context, q DBTX, filter ThingFilter) ([]models.Thing, int, error)
	ListSharedWithGroup(ctx context.Context, q DBTX, groupID uuid.UUID, filter ThingFilter) ([]models.Thing, int, error)
	CommunityMoods(ctx context.Context, q DBTX) ([]string, error)

	SetSharedUsers(ctx context.Context, q DBTX, thingID uuid.UUID, userIDs []uuid.UUID) error
	SetSharedGroups(ctx context.Context, q DBTX, thingID uuid.UUID, groupIDs []uuid.UUID) error
	SharedUserIDs(ctx context.Context, q DBTX, thingID uuid.UUID) ([]uuid.UUID, error)
	SharedGroupIDs(ctx context.Context, q DBTX, thingID uuid.UUID) ([]uuid.UUID, error)
}

// ImageRepository persists images attached to things.
type ImageRepository interface {
	Create(ctx context.Context, q DBTX, image *models.ThingImage) error
	ListByThing(ctx context.Context, q DBTX, thingID uuid.UUID) ([]models.ThingImage, error)
}

// TagRepository persists user-defined tags.
type TagRepository interface {
	GetOrCreate(ctx context.Context, q DBTX, name string, createdBy uuid.UUID) (*models.ThingTag, error)
	ReplaceThingTags(ctx context.Context, q DBTX, thingID uuid.UUID, tagIDs []uuid.UUID) error
	ListByThing(ctx context.Context, q DBTX, thingID uuid.UUID) ([]models.ThingTag, error)
}

// GroupMembershipInfo is a membership joined with its group, as listed on
// the groups page.
type GroupMembershipInfo struct {
	Group       models.ThingGroup
	Role        models.GroupRole
	JoinedAt    time.Time
	MemberCount int
}

// GroupRepository persists sharing groups and memberships.
type GroupRepository interface {
	Create(ctx context.Context, q DBTX, group *models.ThingGroup) error
	GetByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.ThingGroup, error)
	ListByMember(ctx context.Context, q DBTX, userID uuid.UUID) ([]GroupMembershipInfo, error)
	ListPublicExcludingMember(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.ThingGroup, error)

	AddMember(ctx context.Context, q DBTX, membership *models.GroupMembership) error
	GetMembership(ctx context.Context, q DBTX, userID, groupID uuid.UUID) (*models.GroupMembership, error)
	IsMemberOfAny(ctx context.Context, q DBTX, userID uuid.UUID, groupIDs []uuid.UUID) (bool, error)
	MemberCount(ctx context.Context, q DBTX, groupID uuid.UUID) (int, error)
}

// ShareHistoryRepository appends and reads the immutable sharing audit log.
type ShareHistoryRepository interface {
	Create(ctx context.Context, q DBTX, record *models.ShareHistory) error
	ListByThing(ctx context.Context, q DBTX, thingID uuid.UUID) ([]models.ShareHistory, error)
}

// StoryRepository persists stories and their ordered thing lists.
type StoryRepository interface {
	Create(ctx context.Context, q DBTX, story *models.Story) error
	GetByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.Story, error)
	Update(ctx context.Context, q DBTX, story *models.Story) error
	Delete(ctx context.Context, q DBTX, id uuid.UUID) error
	ListByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.Story, error)

	AddThing(ctx context.Context, q DBTX, link *models.StoryThing) error
	ReplaceThings(ctx context.Context, q DBTX, storyID uuid.UUID, links []models.StoryThing) error
	ListEntries(ctx context.Context, q DBTX, storyID uuid.UUID) ([]models.StoryEntry, error)
	ListStoryIDsByThing(ctx context.Context, q DBTX, thingID uuid.UUID) ([]uuid.UUID, error)
	// CompactPositions renumbers the story's links to 0..n-1 in their
	// current order, closing any gap left by a removed thing.
	CompactPositions(ctx context.Context, q DBTX, storyID uuid.UUID) error
	RecordPlay(ctx context.Context, q DBTX, storyID uuid.UUID) error
}

// PatternRepository persists AI-identified patterns and their links.
type PatternRepository interface {
	Upsert(ctx context.Context, q DBTX, pattern *models.ThingPattern) error
	ListByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.ThingPattern, error)
	CountByUser(ctx context.Context, q DBTX, userID uuid.UUID) (int, error)
	CountRecurring(ctx context.Context, q DBTX, userID uuid.UUID, patternType models.PatternType, minOccurrences int) (int, error)

	LinkOccurrence(ctx context.Context, q DBTX, occurrence *models.PatternOccurrence) error
	ListOccurrencesByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.PatternOccurrence, error)

	UpsertConnection(ctx context.Context, q DBTX, conn *models.PatternConnection) error
	ListConnectionsByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]models.PatternConnection, error)
}
