package predictiondomain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EvaluatedEvent is published after an evaluation run commits.
type EvaluatedEvent struct {
	Kind           EventKind `json:"kind"`
	EventID        uuid.UUID `json:"eventId"`
	LeagueID       uuid.UUID `json:"leagueId"`
	FullRun        bool      `json:"fullRun"`
	UsersEvaluated int       `json:"usersEvaluated"`
	Tags           []string  `json:"tags"`
	EvaluatedAt    time.Time `json:"evaluatedAt"`
}

// EventTag is the cache tag of everything derived from one event.
func EventTag(kind EventKind, eventID uuid.UUID) string {
	return fmt.Sprintf("prediction:event:%s:%s", kind, eventID)
}

// LeagueTag is the cache tag of everything derived from a league's wagers.
func LeagueTag(leagueID uuid.UUID) string {
	return "prediction:league:" + leagueID.String()
}

// RevealKey is the cache key of an event's revealed wagers.
func RevealKey(kind EventKind, eventID uuid.UUID) string {
	return fmt.Sprintf("prediction:reveal:%s:%s", kind, eventID)
}

// CacheTags lists the tags invalidated when an event is re-scored.
func CacheTags(kind EventKind, eventID, leagueID uuid.UUID) []string {
	return []string{EventTag(kind, eventID), LeagueTag(leagueID)}
}
