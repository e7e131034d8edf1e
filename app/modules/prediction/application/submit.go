package predictionservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leagueservice "github.com/tipping-league/prediction-core/app/modules/league/application"
	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
	"github.com/tipping-league/prediction-core/app/shared/results"
	"github.com/tipping-league/prediction-core/app/shared/txrunner"
)

// SubmitResult is the outcome of a wager submission. Error is set only when
// Success is false.
type SubmitResult struct {
	Success bool          `json:"success"`
	Updated bool          `json:"updated,omitempty"`
	Error   *apperr.Error `json:"error,omitempty"`
}

// WagerEventAdapter supplies the kind-specific steps of a wager submission.
type WagerEventAdapter[P any] interface {
	Kind() predictiondomain.EventKind
	Validate(payload P) error
	EventID(payload P) uuid.UUID

	// FindLeagueID resolves the owning league without a transaction.
	// A missing event returns predictiondb.ErrNotFound.
	FindLeagueID(ctx context.Context, db bun.IDB, payload P) (uuid.UUID, error)

	// Upsert re-reads the event inside the transaction, enforces the betting
	// window and creates or updates the member's live wager. It reports true
	// when an existing wager was updated. Domain refusals are *apperr.Error.
	Upsert(ctx context.Context, db bun.IDB, member *leagueservice.Member, payload P, now time.Time) (bool, error)

	AuditMetadata(payload P) map[string]any
}

// submitWager is the single submission algorithm shared by every event kind.
func submitWager[P any](
	s *PredictionService,
	ctx context.Context,
	operationName string,
	adapter WagerEventAdapter[P],
	userID string,
	payload P,
) (*SubmitResult, error) {
	kind := adapter.Kind()
	started := time.Now()

	result, err := withTelemetry(s, ctx, operationName, userID, func(ctx context.Context) (results.OperationResult[bool, *apperr.Error], error) {
		if err := adapter.Validate(payload); err != nil {
			return results.FailureResult[bool](validationFailure(err)), nil
		}

		eventID := adapter.EventID(payload)
		leagueID, err := adapter.FindLeagueID(ctx, s.idb(), payload)
		if err != nil {
			if errors.Is(err, predictiondb.ErrNotFound) {
				return results.FailureResult[bool](notFound(kind)), nil
			}
			return results.OperationResult[bool, *apperr.Error]{}, fmt.Errorf("failed to resolve league: %w", err)
		}

		member, err := s.collab.Gate.RequireLeagueMember(ctx, leagueID, userID)
		if err != nil {
			return results.OperationResult[bool, *apperr.Error]{}, err
		}

		txResult, err := runSerializable(s, ctx, s.cfg.Submission, func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, *apperr.Error], error) {
			updated, err := adapter.Upsert(ctx, db, member, payload, s.collab.Window.Now())
			if err != nil {
				if appErr, ok := apperr.As(err); ok {
					return results.FailureResult[bool](appErr), nil
				}
				return results.OperationResult[bool, *apperr.Error]{}, err
			}
			return results.SuccessResult[bool, *apperr.Error](updated), nil
		})
		if err != nil {
			if txrunner.IsConflict(err) {
				s.metrics.RecordConflict(ctx, operationName)
			}
			return results.OperationResult[bool, *apperr.Error]{}, fmt.Errorf("failed to save %s wager: %w", kind, err)
		}
		if txResult.IsFailure() {
			return txResult, nil
		}

		action := predictiondomain.AuditCreated
		if *txResult.Success {
			action = predictiondomain.AuditUpdated
		}
		s.audit(ctx, predictiondomain.AuditEntry{
			Action:     action,
			UserID:     userID,
			LeagueID:   leagueID,
			Kind:       kind,
			EventID:    eventID,
			Metadata:   adapter.AuditMetadata(payload),
			Duration:   time.Since(started),
			OccurredAt: time.Now().UTC(),
		})
		return txResult, nil
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return &SubmitResult{Success: false, Error: *result.Failure}, nil
	}
	return &SubmitResult{Success: true, Updated: *result.Success}, nil
}

// SubmitMatchBet creates or updates the caller's prediction for a match.
func (s *PredictionService) SubmitMatchBet(ctx context.Context, userID string, payload MatchBetPayload) (*SubmitResult, error) {
	return submitWager(s, ctx, "SubmitMatchBet", matchAdapter{repo: s.repo, wagers: s.wagers.Match}, userID, payload)
}

// SubmitSeriesBet creates or updates the caller's prediction for a series.
func (s *PredictionService) SubmitSeriesBet(ctx context.Context, userID string, payload SeriesBetPayload) (*SubmitResult, error) {
	return submitWager(s, ctx, "SubmitSeriesBet", seriesAdapter{repo: s.repo, wagers: s.wagers.Series}, userID, payload)
}

// SubmitSpecialBet creates or updates the caller's pick for a special bet.
func (s *PredictionService) SubmitSpecialBet(ctx context.Context, userID string, payload SpecialBetPayload) (*SubmitResult, error) {
	return submitWager(s, ctx, "SubmitSpecialBet", specialAdapter{repo: s.repo, wagers: s.wagers.Special}, userID, payload)
}

// SubmitQuestionBet creates or updates the caller's answer to a question.
func (s *PredictionService) SubmitQuestionBet(ctx context.Context, userID string, payload QuestionBetPayload) (*SubmitResult, error) {
	return submitWager(s, ctx, "SubmitQuestionBet", questionAdapter{repo: s.repo, wagers: s.wagers.Question}, userID, payload)
}
