package predictiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
)

var (
	// ErrNotFound is returned when a row does not exist or is soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrUnknownKind is returned for an event kind without a table.
	ErrUnknownKind = errors.New("unknown event kind")
)

// Impl implements Repository and AuditRepository using bun.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new prediction repository.
func NewRepository(db bun.IDB) *Impl {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// notDeleted scopes a query on a soft-deletable model to live rows.
func notDeleted(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Where("?TableAlias.deleted_at IS NULL")
}

func modelFor(kind predictiondomain.EventKind) (any, error) {
	switch kind {
	case predictiondomain.KindMatch:
		return (*Match)(nil), nil
	case predictiondomain.KindSeries:
		return (*Series)(nil), nil
	case predictiondomain.KindSpecial:
		return (*SpecialBet)(nil), nil
	case predictiondomain.KindQuestion:
		return (*Question)(nil), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// GetEventHeader loads the kind-independent columns of an event.
func (r *Impl) GetEventHeader(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, eventID uuid.UUID) (*EventHeader, error) {
	db = r.resolveDB(db)
	model, err := modelFor(kind)
	if err != nil {
		return nil, err
	}

	header := new(EventHeader)
	err = db.NewSelect().
		Model(model).
		Column("id", "league_id", "date_time", "is_evaluated").
		Where("?TableAlias.id = ?", eventID).
		Apply(notDeleted).
		Scan(ctx, header)
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get %s header: %w", kind, err)
	}
	return header, nil
}

// GetMatch loads a match with its scorers.
func (r *Impl) GetMatch(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*Match, error) {
	db = r.resolveDB(db)
	match := new(Match)
	err := db.NewSelect().
		Model(match).
		Relation("Scorers").
		Where("?TableAlias.id = ?", matchID).
		Apply(notDeleted).
		Scan(ctx)
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// GetSeries loads a series.
func (r *Impl) GetSeries(ctx context.Context, db bun.IDB, seriesID uuid.UUID) (*Series, error) {
	db = r.resolveDB(db)
	series := new(Series)
	err := db.NewSelect().
		Model(series).
		Where("?TableAlias.id = ?", seriesID).
		Apply(notDeleted).
		Scan(ctx)
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	return series, nil
}

// GetSpecialBet loads a special bet with its advancing teams.
func (r *Impl) GetSpecialBet(ctx context.Context, db bun.IDB, specialBetID uuid.UUID) (*SpecialBet, error) {
	db = r.resolveDB(db)
	specialBet := new(SpecialBet)
	err := db.NewSelect().
		Model(specialBet).
		Relation("AdvancingTeams").
		Where("?TableAlias.id = ?", specialBetID).
		Apply(notDeleted).
		Scan(ctx)
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get special bet: %w", err)
	}
	return specialBet, nil
}

// GetQuestion loads a question.
func (r *Impl) GetQuestion(ctx context.Context, db bun.IDB, questionID uuid.UUID) (*Question, error) {
	db = r.resolveDB(db)
	question := new(Question)
	err := db.NewSelect().
		Model(question).
		Where("?TableAlias.id = ?", questionID).
		Apply(notDeleted).
		Scan(ctx)
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

// MarkEvaluated sets is_evaluated on an event.
func (r *Impl) MarkEvaluated(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, eventID uuid.UUID) error {
	db = r.resolveDB(db)
	model, err := modelFor(kind)
	if err != nil {
		return err
	}

	result, err := db.NewUpdate().
		Model(model).
		Set("is_evaluated = TRUE").
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.id = ?", eventID).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark %s evaluated: %w", kind, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnevaluatedEventIDs returns a league's events of kind that are not yet evaluated.
func (r *Impl) ListUnevaluatedEventIDs(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, leagueID uuid.UUID) ([]uuid.UUID, error) {
	db = r.resolveDB(db)
	model, err := modelFor(kind)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	err = db.NewSelect().
		Model(model).
		Column("id").
		Where("?TableAlias.league_id = ?", leagueID).
		Where("?TableAlias.is_evaluated = FALSE").
		Apply(notDeleted).
		OrderExpr("?TableAlias.date_time ASC, ?TableAlias.id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list unevaluated %s events: %w", kind, err)
	}
	return ids, nil
}

// ListActiveRules returns a league's active evaluator rules for kind.
func (r *Impl) ListActiveRules(ctx context.Context, db bun.IDB, leagueID uuid.UUID, kind predictiondomain.EventKind) ([]EvaluatorRule, error) {
	db = r.resolveDB(db)
	var rules []EvaluatorRule
	err := db.NewSelect().
		Model(&rules).
		Where("?TableAlias.league_id = ?", leagueID).
		Where("?TableAlias.kind = ?", kind).
		Where("?TableAlias.is_active = TRUE").
		Apply(notDeleted).
		OrderExpr("?TableAlias.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluator rules: %w", err)
	}
	return rules, nil
}

// GetRule loads a single evaluator rule.
func (r *Impl) GetRule(ctx context.Context, db bun.IDB, ruleID uuid.UUID) (*EvaluatorRule, error) {
	db = r.resolveDB(db)
	rule := new(EvaluatorRule)
	err := db.NewSelect().
		Model(rule).
		Where("?TableAlias.id = ?", ruleID).
		Apply(notDeleted).
		Scan(ctx)
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get evaluator rule: %w", err)
	}
	return rule, nil
}

// InsertAuditLog persists one audit row.
func (r *Impl) InsertAuditLog(ctx context.Context, db bun.IDB, entry *AuditLog) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}
