package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is emitted from domain logic to capture archive-lifecycle actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	Action    Action
	EventYear int
	Actor     string
	Detail    string
}

// Action identifies the lifecycle step being recorded.
type Action string

const (
	// ActionArchiveCreated records a successful snapshot build.
	ActionArchiveCreated Action = "archive_created"
	// ActionArchiveExpired records the one retention-window enforcement an
	// archive ever receives.
	ActionArchiveExpired Action = "archive_expired"
	// ActionDataReset records a destructive wipe of the live store.
	ActionDataReset Action = "data_reset"
)
