package models

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// UserContextKey stores the authenticated user's ID in the request context.
	UserContextKey contextKey = "userID"
)

// GetUserIDFromContext extracts the user ID from the context, if present.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
