package models

import (
	"time"

	"github.com/google/uuid"
)

// GroupRole is a member's role within a sharing group.
type GroupRole string

const (
	RoleMember    GroupRole = "member"
	RoleModerator GroupRole = "moderator"
	RoleAdmin     GroupRole = "admin"
)

// CanInvite reports whether the role may invite new members.
func (r GroupRole) CanInvite() bool {
	return r == RoleAdmin || r == RoleModerator
}

// ThingGroup is a group things can be shared with.
type ThingGroup struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatorID   uuid.UUID `json:"creatorId"`

	IsPrivate        bool `json:"isPrivate"`        // private groups require invitation
	RequiresApproval bool `json:"requiresApproval"` // new members need approval

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupMembership joins a user into a group with a role.
type GroupMembership struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"userId"`
	GroupID uuid.UUID `json:"groupId"`

	Role      GroupRole  `json:"role"`
	InvitedBy *uuid.UUID `json:"invitedBy,omitempty"`
	JoinedAt  time.Time  `json:"joinedAt"`
}
