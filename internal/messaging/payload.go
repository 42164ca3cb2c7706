package messaging

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisTaskPayload asks the pattern worker to re-analyze one user's
// journal.
type AnalysisTaskPayload struct {
	TaskID      string    `json:"task_id"`
	UserID      uuid.UUID `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
}
