package predictionqueue

import (
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
)

// AuditQueue is the dedicated River queue for audit jobs.
const AuditQueue = "audit"

// AuditJob carries one audit entry from the request path to the audit worker.
type AuditJob struct {
	Action     string         `json:"action"`
	UserID     string         `json:"user_id"`
	LeagueID   uuid.UUID      `json:"league_id"`
	EventKind  string         `json:"event_kind"`
	EventID    uuid.UUID      `json:"event_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Kind returns the job type identifier for River
func (AuditJob) Kind() string { return "prediction_audit" }

// InsertOpts routes audit jobs to their own queue. Audit rows are not worth
// retrying for long.
func (AuditJob) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: AuditQueue, MaxAttempts: 5}
}

// NewAuditJob converts a domain audit entry into job args.
func NewAuditJob(entry predictiondomain.AuditEntry) AuditJob {
	occurred := entry.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return AuditJob{
		Action:     string(entry.Action),
		UserID:     entry.UserID,
		LeagueID:   entry.LeagueID,
		EventKind:  entry.Kind.String(),
		EventID:    entry.EventID,
		Metadata:   entry.Metadata,
		DurationMs: entry.Duration.Milliseconds(),
		OccurredAt: occurred,
	}
}

// AuditLog maps the job onto the stored row.
func (j AuditJob) AuditLog() *predictiondb.AuditLog {
	return &predictiondb.AuditLog{
		Action:     j.Action,
		UserID:     j.UserID,
		LeagueID:   j.LeagueID,
		EventKind:  j.EventKind,
		EventID:    j.EventID,
		Metadata:   j.Metadata,
		DurationMs: j.DurationMs,
		OccurredAt: j.OccurredAt,
	}
}
