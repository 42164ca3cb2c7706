package models

import (
	"time"

	"github.com/google/uuid"
)

// TransitionType labels how playback moves from one chunk to the next.
type TransitionType string

const (
	TransitionFade  TransitionType = "fade"
	TransitionSlide TransitionType = "slide"
	TransitionNone  TransitionType = "none"
)

// IsValid reports whether the transition is a known value.
func (t TransitionType) IsValid() bool {
	switch t {
	case TransitionFade, TransitionSlide, TransitionNone:
		return true
	}
	return false
}

// Story is an ordered, timed sequence of things for sequential playback.
type Story struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"userId"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	PrivacyLevel PrivacyLevel `json:"privacyLevel"`

	PlayedCount int        `json:"playedCount"`
	LastPlayed  *time.Time `json:"lastPlayed,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StoryThing links a thing into a story at a position.
// Positions are unique within a story and kept dense after removals.
type StoryThing struct {
	ID      uuid.UUID `json:"id"`
	StoryID uuid.UUID `json:"storyId"`
	ThingID uuid.UUID `json:"thingId"`

	Position   int            `json:"position"`
	Duration   int            `json:"duration"` // display duration in seconds
	Transition TransitionType `json:"transition"`
	Notes      string         `json:"notes,omitempty"`

	AddedAt time.Time `json:"addedAt"`
}

// StoryEntry is a story link joined with its thing, as loaded for playback.
type StoryEntry struct {
	Link  StoryThing
	Thing Thing
}
