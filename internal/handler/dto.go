package handler

import (
	"time"

	"github.com/google/uuid"
)

// ImageRequest describes one image attached to a thing. Exactly one of
// objectKey and imageUrl must be set.
type ImageRequest struct {
	ObjectKey string `json:"objectKey"`
	ImageURL  string `json:"imageUrl" validate:"omitempty,url"`
	Caption   string `json:"caption" validate:"max=500"`
	Position  int    `json:"position" validate:"min=0"`
}

// CreateThingRequest is the body for creating a journal entry.
type CreateThingRequest struct {
	Title         string         `json:"title" validate:"required,max=200"`
	Description   string         `json:"description"`
	Privacy       string         `json:"privacy" validate:"omitempty,oneof=private specific_users groups community"`
	ThingDate     *time.Time     `json:"thingDate"`
	Mood          string         `json:"mood" validate:"max=50"`
	LucidityLevel int            `json:"lucidityLevel" validate:"min=0,max=10"`
	Tags          []string       `json:"tags" validate:"max=20,dive,max=50"`
	Images        []ImageRequest `json:"images" validate:"max=10,dive"`
}

// UpdateThingRequest is the body for editing a journal entry.
type UpdateThingRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description"`
	Privacy       string     `json:"privacy" validate:"omitempty,oneof=private specific_users groups community"`
	ThingDate     *time.Time `json:"thingDate"`
	Mood          string     `json:"mood" validate:"max=50"`
	LucidityLevel int        `json:"lucidityLevel" validate:"min=0,max=10"`
	Tags          []string   `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

// QuickCaptureRequest is the body for low-friction text capture.
type QuickCaptureRequest struct {
	ThingID *uuid.UUID `json:"thingId"`
	Content string     `json:"content" validate:"required"`
}

// ShareThingRequest sets a thing's privacy and its exact share lists.
type ShareThingRequest struct {
	Privacy        string      `json:"privacy" validate:"required,oneof=private specific_users groups community"`
	SharedUserIDs  []uuid.UUID `json:"sharedUserIds"`
	SharedGroupIDs []uuid.UUID `json:"sharedGroupIds"`
}

// PromoteThingRequest optionally overrides the generated story title.
type PromoteThingRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// UpdateStoryRequest is the body for editing a story.
type UpdateStoryRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Privacy     string `json:"privacy" validate:"omitempty,oneof=private specific_users groups community"`
}

// ReorderStoryRequest replaces the story's playback order.
type ReorderStoryRequest struct {
	ThingIDs []uuid.UUID `json:"thingIds" validate:"required,min=1"`
}

// CreateGroupRequest is the body for creating a sharing group.
type CreateGroupRequest struct {
	Name             string `json:"name" validate:"required,max=100"`
	Description      string `json:"description" validate:"max=1000"`
	IsPrivate        bool   `json:"isPrivate"`
	RequiresApproval bool   `json:"requiresApproval"`
}

// InviteRequest invites users into a group.
type InviteRequest struct {
	UserIDs []uuid.UUID `json:"userIds" validate:"required,min=1,max=50"`
}
