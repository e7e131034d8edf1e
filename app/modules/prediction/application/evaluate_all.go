package predictionservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
)

// SkippedEvent is an event EvaluateAll could not score.
type SkippedEvent struct {
	EventID uuid.UUID     `json:"eventId"`
	Error   *apperr.Error `json:"error"`
}

// EvaluateAllResponse summarises a league-wide evaluation sweep.
type EvaluateAllResponse struct {
	Evaluated           []uuid.UUID    `json:"evaluated"`
	Skipped             []SkippedEvent `json:"skipped"`
	TotalUsersEvaluated int            `json:"totalUsersEvaluated"`
}

// EvaluateAll runs a full evaluation of every unevaluated event of kind in a
// league, one transaction per event, oldest first. Events that fail with a
// domain error (typically a missing result) are skipped; the first storage
// error stops the sweep and is returned with the partial summary.
func (s *PredictionService) EvaluateAll(ctx context.Context, leagueID uuid.UUID, kind predictiondomain.EventKind, requestedBy string) (*EvaluateAllResponse, error) {
	ids, err := s.repo.ListUnevaluatedEventIDs(ctx, s.idb(), kind, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unevaluated %s events: %w", kind, err)
	}

	summary := &EvaluateAllResponse{Evaluated: []uuid.UUID{}, Skipped: []SkippedEvent{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		resp, err := s.Evaluate(ctx, kind, EvaluateRequest{EventID: id, RequestedBy: requestedBy})
		if err != nil {
			return summary, fmt.Errorf("evaluation of %s %s failed: %w", kind, id, err)
		}
		if !resp.Success {
			summary.Skipped = append(summary.Skipped, SkippedEvent{EventID: id, Error: resp.Error})
			continue
		}
		summary.Evaluated = append(summary.Evaluated, id)
		summary.TotalUsersEvaluated += resp.TotalUsersEvaluated
	}
	return summary, nil
}
