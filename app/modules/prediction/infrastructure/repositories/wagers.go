package predictiondb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// wagerSpec describes the kind-specific columns of a wager table.
type wagerSpec struct {
	name              string
	eventColumn       string
	predictionColumns []string
}

// wagerStore is the bun implementation of WagerStore shared by all kinds.
type wagerStore[W any] struct {
	db   bun.IDB
	spec wagerSpec
}

// NewWagers builds the per-kind wager stores over db.
func NewWagers(db bun.IDB) Wagers {
	return Wagers{
		Match: &wagerStore[MatchBet]{db: db, spec: wagerSpec{
			name:              "match bet",
			eventColumn:       "match_id",
			predictionColumns: []string{"home_score", "away_score", "scorer_id", "overtime"},
		}},
		Series: &wagerStore[SeriesBet]{db: db, spec: wagerSpec{
			name:              "series bet",
			eventColumn:       "series_id",
			predictionColumns: []string{"home_team_score", "away_team_score"},
		}},
		Special: &wagerStore[SpecialBetBet]{db: db, spec: wagerSpec{
			name:              "special bet wager",
			eventColumn:       "special_bet_id",
			predictionColumns: []string{"team_id", "player_id", "value"},
		}},
		Question: &wagerStore[QuestionBet]{db: db, spec: wagerSpec{
			name:              "question bet",
			eventColumn:       "question_id",
			predictionColumns: []string{"prediction"},
		}},
	}
}

func (s *wagerStore[W]) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return s.db
	}
	return db
}

// ListByEvent returns the live wagers of live members on an event with the
// member's user id and display name.
func (s *wagerStore[W]) ListByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]W, error) {
	db = s.resolveDB(db)
	var wagers []W
	q := db.NewSelect().
		Model(&wagers).
		ColumnExpr("?TableAlias.*").
		ColumnExpr("lm.user_id, lm.display_name").
		Join("JOIN league_members AS lm ON lm.id = ?TableAlias.league_member_id AND lm.deleted_at IS NULL").
		Where("?TableAlias.? = ?", bun.Ident(s.spec.eventColumn), eventID).
		Apply(notDeleted).
		OrderExpr("lm.display_name ASC, ?TableAlias.id ASC")
	if userID != nil {
		q = q.Where("lm.user_id = ?", *userID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", s.spec.name, err)
	}
	return wagers, nil
}

// GetLive returns the member's live wager on the event.
func (s *wagerStore[W]) GetLive(ctx context.Context, db bun.IDB, memberID, eventID uuid.UUID) (*W, error) {
	db = s.resolveDB(db)
	wager := new(W)
	err := db.NewSelect().
		Model(wager).
		Where("?TableAlias.league_member_id = ?", memberID).
		Where("?TableAlias.? = ?", bun.Ident(s.spec.eventColumn), eventID).
		Apply(notDeleted).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get %s: %w", s.spec.name, err)
	}
	return wager, nil
}

// Insert creates a wager row.
func (s *wagerStore[W]) Insert(ctx context.Context, db bun.IDB, wager *W) error {
	db = s.resolveDB(db)
	if _, err := db.NewInsert().Model(wager).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert %s: %w", s.spec.name, err)
	}
	return nil
}

// UpdatePrediction rewrites the prediction columns and updated_at of an existing wager.
func (s *wagerStore[W]) UpdatePrediction(ctx context.Context, db bun.IDB, wager *W) error {
	db = s.resolveDB(db)
	columns := append(append([]string{}, s.spec.predictionColumns...), "updated_at")
	result, err := db.NewUpdate().
		Model(wager).
		Column(columns...).
		WherePK().
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", s.spec.name, err)
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

// SetPoints overwrites total_points for each listed wager, in the given order.
func (s *wagerStore[W]) SetPoints(ctx context.Context, db bun.IDB, updates []PointsUpdate) error {
	db = s.resolveDB(db)
	now := time.Now()
	for _, u := range updates {
		_, err := db.NewUpdate().
			Model((*W)(nil)).
			Set("total_points = ?", u.Points).
			Set("updated_at = ?", now).
			Where("?TableAlias.id = ?", u.WagerID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to set points on %s %s: %w", s.spec.name, u.WagerID, err)
		}
	}
	return nil
}
