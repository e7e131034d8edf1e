package predictiondomain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is what happened to a wager or event.
type AuditAction string

const (
	AuditCreated   AuditAction = "created"
	AuditUpdated   AuditAction = "updated"
	AuditEvaluated AuditAction = "evaluated"
)

// AuditEntry is one best-effort audit record.
type AuditEntry struct {
	Action     AuditAction
	UserID     string
	LeagueID   uuid.UUID
	Kind       EventKind
	EventID    uuid.UUID
	Metadata   map[string]any
	Duration   time.Duration
	OccurredAt time.Time
}
