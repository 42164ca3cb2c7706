package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PrivacyLevel describes who may view a thing.
type PrivacyLevel string

const (
	PrivacyPrivate       PrivacyLevel = "private"
	PrivacySpecificUsers PrivacyLevel = "specific_users"
	PrivacyGroups        PrivacyLevel = "groups"
	PrivacyCommunity     PrivacyLevel = "community"
)

// PrivacyCycle is the fixed order the toggle action walks through.
var PrivacyCycle = []PrivacyLevel{
	PrivacyPrivate,
	PrivacySpecificUsers,
	PrivacyGroups,
	PrivacyCommunity,
}

// IsValid reports whether the level is one of the known values.
// When groupsEnabled is false the "groups" level is rejected on input,
// per the explicit feature flag instead of mutating form choices.
func (p PrivacyLevel) IsValid(groupsEnabled bool) bool {
	switch p {
	case PrivacyPrivate, PrivacySpecificUsers, PrivacyCommunity:
		return true
	case PrivacyGroups:
		return groupsEnabled
	}
	return false
}

// Next returns the next privacy level in the cycle. When groupsEnabled is
// false the cycle skips "groups" entirely.
func (p PrivacyLevel) Next(groupsEnabled bool) PrivacyLevel {
	cycle := PrivacyCycle
	if !groupsEnabled {
		cycle = []PrivacyLevel{PrivacyPrivate, PrivacySpecificUsers, PrivacyCommunity}
	}
	for i, level := range cycle {
		if level == p {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return PrivacyPrivate
}

// Thing is a single journal entry: free text or a transcribed voice
// recording, plus privacy settings and AI-derived analysis.
type Thing struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"userId"`

	Title          string `json:"title"`
	Description    string `json:"description"`
	VoiceRecording string `json:"voiceRecording,omitempty"` // object key of the uploaded audio, if any
	Transcription  string `json:"transcription,omitempty"`

	PrivacyLevel PrivacyLevel `json:"privacyLevel"`

	ThingDate     time.Time `json:"thingDate"`
	Mood          string    `json:"mood,omitempty"`
	LucidityLevel int       `json:"lucidityLevel"` // 0-10

	// AI analysis (opaque string lists from the model)
	Themes   []string `json:"themes"`
	Symbols  []string `json:"symbols"`
	Entities []string `json:"entities"`

	// Semantic analysis
	SemanticVerbs []string        `json:"semanticVerbs,omitempty"`
	SemanticNouns []string        `json:"semanticNouns,omitempty"`
	SemanticBits  json.RawMessage `json:"semanticBits,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsCommunity reports whether the thing belongs in the external search index.
func (t *Thing) IsCommunity() bool {
	return t.PrivacyLevel == PrivacyCommunity
}

// ThingImage belongs to exactly one thing and holds either an uploaded
// object key or an external URL, never both.
type ThingImage struct {
	ID         uuid.UUID `json:"id"`
	ThingID    uuid.UUID `json:"thingId"`
	ObjectKey  string    `json:"objectKey,omitempty"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	Caption    string    `json:"caption,omitempty"`
	Position   int       `json:"position"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// URL returns whichever image source is set.
func (i *ThingImage) URL() string {
	if i.ObjectKey != "" {
		return i.ObjectKey
	}
	return i.ImageURL
}

// ThingTag is a user-defined tag, unique by (lowercase) name.
type ThingTag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}
