package models

import (
	"time"

	"github.com/google/uuid"
)

// ShareAction classifies a sharing change.
type ShareAction string

const (
	ShareActionShared   ShareAction = "shared"
	ShareActionUnshared ShareAction = "unshared"
	ShareActionModified ShareAction = "modified"
)

// ShareHistory is an immutable audit record of one sharing action on a
// thing. The affected sets are stored as-is; later membership changes do
// not rewrite history.
type ShareHistory struct {
	ID      uuid.UUID `json:"id"`
	ThingID uuid.UUID `json:"thingId"`

	Action     ShareAction  `json:"action"`
	OldPrivacy PrivacyLevel `json:"oldPrivacy"`
	NewPrivacy PrivacyLevel `json:"newPrivacy"`

	AffectedUserIDs  []uuid.UUID `json:"affectedUserIds"`
	AffectedGroupIDs []uuid.UUID `json:"affectedGroupIds"`

	PerformedBy uuid.UUID `json:"performedBy"`
	PerformedAt time.Time `json:"performedAt"`
}
