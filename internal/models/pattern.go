package models

import (
	"time"

	"github.com/google/uuid"
)

// PatternType classifies a recurring motif across a user's things.
type PatternType string

const (
	PatternTheme    PatternType = "theme"
	PatternSymbol   PatternType = "symbol"
	PatternEntity   PatternType = "entity"
	PatternEmotion  PatternType = "emotion"
	PatternSequence PatternType = "sequence"
)

// NormalizePatternType maps a model-reported type onto a known value,
// defaulting to "theme" for anything unrecognized.
func NormalizePatternType(s string) PatternType {
	switch PatternType(s) {
	case PatternTheme, PatternSymbol, PatternEntity, PatternEmotion, PatternSequence:
		return PatternType(s)
	}
	return PatternTheme
}

// ThingPattern is a recurring motif identified by the external analysis
// model. Patterns are materialized only by the batch analysis routine,
// never edited interactively.
type ThingPattern struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"userId"`

	PatternType PatternType `json:"patternType"`
	Name        string      `json:"name"`
	Description string      `json:"description"`

	ConfidenceScore float64 `json:"confidenceScore"` // 0-1
	OccurrenceCount int     `json:"occurrenceCount"`

	FirstOccurrence *time.Time `json:"firstOccurrence,omitempty"`
	LastOccurrence  *time.Time `json:"lastOccurrence,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PatternOccurrence links a pattern to one thing it appears in.
type PatternOccurrence struct {
	ID        uuid.UUID `json:"id"`
	ThingID   uuid.UUID `json:"thingId"`
	PatternID uuid.UUID `json:"patternId"`

	Context  string  `json:"context,omitempty"`
	Strength float64 `json:"strength"` // 0-1

	CreatedAt time.Time `json:"createdAt"`
}

// PatternConnection is a pairwise link between two patterns that share
// enough things.
type PatternConnection struct {
	ID         uuid.UUID `json:"id"`
	Pattern1ID uuid.UUID `json:"pattern1Id"`
	Pattern2ID uuid.UUID `json:"pattern2Id"`

	Strength       float64 `json:"strength"` // 0-1
	ConnectionType string  `json:"connectionType,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
