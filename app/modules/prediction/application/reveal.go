package predictionservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
	"github.com/tipping-league/prediction-core/app/shared/observability"
	"github.com/tipping-league/prediction-core/app/shared/results"
)

// WagerView is a wager as shown to league members. Only the fields of the
// wager's kind are set.
type WagerView struct {
	ID            uuid.UUID        `json:"id"`
	UserID        string           `json:"userId"`
	DisplayName   string           `json:"displayName"`
	TotalPoints   int              `json:"totalPoints"`
	HomeScore     *int             `json:"homeScore,omitempty"`
	AwayScore     *int             `json:"awayScore,omitempty"`
	ScorerID      *uuid.UUID       `json:"scorerId,omitempty"`
	Overtime      *bool            `json:"overtime,omitempty"`
	HomeTeamScore *int             `json:"homeTeamScore,omitempty"`
	AwayTeamScore *int             `json:"awayTeamScore,omitempty"`
	TeamID        *uuid.UUID       `json:"teamId,omitempty"`
	PlayerID      *uuid.UUID       `json:"playerId,omitempty"`
	Value         *decimal.Decimal `json:"value,omitempty"`
	Prediction    *bool            `json:"prediction,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// RevealResult is the other members' wagers on an event. Predictions is empty
// while betting is still open.
type RevealResult struct {
	IsLocked    bool        `json:"isLocked"`
	Predictions []WagerView `json:"predictions"`
}

func matchView(w predictiondb.MatchBet) WagerView {
	return WagerView{
		ID: w.ID, UserID: w.UserID, DisplayName: w.DisplayName, TotalPoints: w.TotalPoints,
		HomeScore: &w.HomeScore, AwayScore: &w.AwayScore, ScorerID: w.ScorerID, Overtime: &w.Overtime,
		UpdatedAt: w.UpdatedAt,
	}
}

func seriesView(w predictiondb.SeriesBet) WagerView {
	return WagerView{
		ID: w.ID, UserID: w.UserID, DisplayName: w.DisplayName, TotalPoints: w.TotalPoints,
		HomeTeamScore: &w.HomeTeamScore, AwayTeamScore: &w.AwayTeamScore,
		UpdatedAt: w.UpdatedAt,
	}
}

func specialView(w predictiondb.SpecialBetBet) WagerView {
	return WagerView{
		ID: w.ID, UserID: w.UserID, DisplayName: w.DisplayName, TotalPoints: w.TotalPoints,
		TeamID: w.TeamID, PlayerID: w.PlayerID, Value: w.Value,
		UpdatedAt: w.UpdatedAt,
	}
}

func questionView(w predictiondb.QuestionBet) WagerView {
	return WagerView{
		ID: w.ID, UserID: w.UserID, DisplayName: w.DisplayName, TotalPoints: w.TotalPoints,
		Prediction: w.Prediction,
		UpdatedAt:  w.UpdatedAt,
	}
}

func viewsOf[W any](ctx context.Context, db bun.IDB, store predictiondb.WagerStore[W], eventID uuid.UUID, userID *string, view func(W) WagerView) ([]WagerView, error) {
	wagers, err := store.ListByEvent(ctx, db, eventID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]WagerView, 0, len(wagers))
	for _, w := range wagers {
		out = append(out, view(w))
	}
	return out, nil
}

// listViews returns the live wagers on an event, ordered by display name.
func (s *PredictionService) listViews(ctx context.Context, kind predictiondomain.EventKind, eventID uuid.UUID, userID *string) ([]WagerView, error) {
	db := s.idb()
	switch kind {
	case predictiondomain.KindMatch:
		return viewsOf(ctx, db, s.wagers.Match, eventID, userID, matchView)
	case predictiondomain.KindSeries:
		return viewsOf(ctx, db, s.wagers.Series, eventID, userID, seriesView)
	case predictiondomain.KindSpecial:
		return viewsOf(ctx, db, s.wagers.Special, eventID, userID, specialView)
	case predictiondomain.KindQuestion:
		return viewsOf(ctx, db, s.wagers.Question, eventID, userID, questionView)
	}
	return nil, fmt.Errorf("%w: %s", predictiondb.ErrUnknownKind, kind)
}

// FriendPredictions returns the other members' wagers on an event once its
// betting window has closed. Closed-window lists are served through the
// reveal cache when one is configured.
func (s *PredictionService) FriendPredictions(ctx context.Context, kind predictiondomain.EventKind, eventID uuid.UUID, userID string) (*RevealResult, error) {
	result, err := withTelemetry(s, ctx, "FriendPredictions", eventID.String(), func(ctx context.Context) (results.OperationResult[RevealResult, *apperr.Error], error) {
		header, _, failure, err := s.requireMember(ctx, kind, eventID, userID)
		if err != nil {
			return results.OperationResult[RevealResult, *apperr.Error]{}, err
		}
		if failure != nil {
			return results.FailureResult[RevealResult](failure), nil
		}

		if s.collab.Window.IsOpen(header.DateTime) {
			return results.SuccessResult[RevealResult, *apperr.Error](RevealResult{IsLocked: false, Predictions: []WagerView{}}), nil
		}

		all, err := s.revealed(ctx, kind, header)
		if err != nil {
			return results.OperationResult[RevealResult, *apperr.Error]{}, err
		}

		others := make([]WagerView, 0, len(all))
		for _, v := range all {
			if v.UserID != userID {
				others = append(others, v)
			}
		}
		return results.SuccessResult[RevealResult, *apperr.Error](RevealResult{IsLocked: true, Predictions: others}), nil
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return result.Success, nil
}

// revealed loads every live wager on a closed event, read through the cache.
func (s *PredictionService) revealed(ctx context.Context, kind predictiondomain.EventKind, header *predictiondb.EventHeader) ([]WagerView, error) {
	key := predictiondomain.RevealKey(kind, header.ID)
	if s.collab.Cache != nil {
		raw, ok, err := s.collab.Cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "Reveal cache read failed", observability.CorrelationID(ctx), slog.String("key", key), observability.Err(err))
		case ok:
			var cached []WagerView
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	views, err := s.listViews(ctx, kind, header.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}

	if s.collab.Cache != nil {
		raw, err := json.Marshal(views)
		if err == nil {
			err = s.collab.Cache.Set(ctx, key, raw, s.cfg.RevealCacheTTL, predictiondomain.CacheTags(kind, header.ID, header.LeagueID)...)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "Reveal cache write failed", observability.CorrelationID(ctx), slog.String("key", key), observability.Err(err))
		}
	}
	return views, nil
}

// GetMyWager returns the caller's own live wager on an event.
func (s *PredictionService) GetMyWager(ctx context.Context, kind predictiondomain.EventKind, eventID uuid.UUID, userID string) (*WagerView, error) {
	result, err := withTelemetry(s, ctx, "GetMyWager", eventID.String(), func(ctx context.Context) (results.OperationResult[WagerView, *apperr.Error], error) {
		_, _, failure, err := s.requireMember(ctx, kind, eventID, userID)
		if err != nil {
			return results.OperationResult[WagerView, *apperr.Error]{}, err
		}
		if failure != nil {
			return results.FailureResult[WagerView](failure), nil
		}

		views, err := s.listViews(ctx, kind, eventID, &userID)
		if err != nil {
			return results.OperationResult[WagerView, *apperr.Error]{}, fmt.Errorf("failed to load wager: %w", err)
		}
		if len(views) == 0 {
			return results.FailureResult[WagerView](apperr.NotFound("No prediction placed for this " + kind.Noun())), nil
		}
		return results.SuccessResult[WagerView, *apperr.Error](views[0]), nil
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return result.Success, nil
}
