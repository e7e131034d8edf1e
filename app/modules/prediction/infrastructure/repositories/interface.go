package predictiondb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
)

// Repository is the persistence contract for events and evaluator rules.
// Every read is scoped to rows that are not soft-deleted.
type Repository interface {
	// GetEventHeader loads the kind-independent columns of an event.
	GetEventHeader(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, eventID uuid.UUID) (*EventHeader, error)

	GetMatch(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*Match, error)
	GetSeries(ctx context.Context, db bun.IDB, seriesID uuid.UUID) (*Series, error)
	GetSpecialBet(ctx context.Context, db bun.IDB, specialBetID uuid.UUID) (*SpecialBet, error)
	GetQuestion(ctx context.Context, db bun.IDB, questionID uuid.UUID) (*Question, error)

	// MarkEvaluated sets is_evaluated on an event.
	MarkEvaluated(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, eventID uuid.UUID) error

	// ListUnevaluatedEventIDs returns a league's events of kind that are not yet evaluated,
	// oldest first.
	ListUnevaluatedEventIDs(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, leagueID uuid.UUID) ([]uuid.UUID, error)

	// ListActiveRules returns a league's active evaluator rules for kind.
	ListActiveRules(ctx context.Context, db bun.IDB, leagueID uuid.UUID, kind predictiondomain.EventKind) ([]EvaluatorRule, error)

	// GetRule loads a single evaluator rule.
	GetRule(ctx context.Context, db bun.IDB, ruleID uuid.UUID) (*EvaluatorRule, error)
}

// PointsUpdate is the score assigned to one wager by an evaluation run.
type PointsUpdate struct {
	WagerID uuid.UUID
	Points  int
}

// WagerStore is the persistence contract for one kind of wager. Reads only
// see live (non-deleted) wagers.
type WagerStore[W any] interface {
	// ListByEvent returns the live wagers on an event joined with their member,
	// ordered by display name. A non-nil userID restricts the list to that user.
	ListByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]W, error)

	// GetLive returns the member's live wager on the event or ErrNotFound.
	GetLive(ctx context.Context, db bun.IDB, memberID, eventID uuid.UUID) (*W, error)

	Insert(ctx context.Context, db bun.IDB, wager *W) error

	// UpdatePrediction rewrites the prediction columns and updated_at.
	UpdatePrediction(ctx context.Context, db bun.IDB, wager *W) error

	// SetPoints overwrites total_points for each listed wager.
	SetPoints(ctx context.Context, db bun.IDB, updates []PointsUpdate) error
}

// Wagers bundles the per-kind wager stores.
type Wagers struct {
	Match    WagerStore[MatchBet]
	Series   WagerStore[SeriesBet]
	Special  WagerStore[SpecialBetBet]
	Question WagerStore[QuestionBet]
}

// AuditRepository persists audit rows.
type AuditRepository interface {
	InsertAuditLog(ctx context.Context, db bun.IDB, entry *AuditLog) error
}
