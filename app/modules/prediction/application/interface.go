package predictionservice

import (
	"context"

	"github.com/google/uuid"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
)

// Service is the prediction core consumed by the HTTP handlers.
type Service interface {
	SubmitMatchBet(ctx context.Context, userID string, payload MatchBetPayload) (*SubmitResult, error)
	SubmitSeriesBet(ctx context.Context, userID string, payload SeriesBetPayload) (*SubmitResult, error)
	SubmitSpecialBet(ctx context.Context, userID string, payload SpecialBetPayload) (*SubmitResult, error)
	SubmitQuestionBet(ctx context.Context, userID string, payload QuestionBetPayload) (*SubmitResult, error)

	EvaluateMatch(ctx context.Context, req EvaluateRequest) (*EvaluationResponse, error)
	EvaluateSeries(ctx context.Context, req EvaluateRequest) (*EvaluationResponse, error)
	EvaluateSpecialBet(ctx context.Context, req EvaluateRequest) (*EvaluationResponse, error)
	EvaluateQuestion(ctx context.Context, req EvaluateRequest) (*EvaluationResponse, error)
	Evaluate(ctx context.Context, kind predictiondomain.EventKind, req EvaluateRequest) (*EvaluationResponse, error)
	EvaluateAll(ctx context.Context, leagueID uuid.UUID, kind predictiondomain.EventKind, requestedBy string) (*EvaluateAllResponse, error)

	FriendPredictions(ctx context.Context, kind predictiondomain.EventKind, eventID uuid.UUID, userID string) (*RevealResult, error)
	GetMyWager(ctx context.Context, kind predictiondomain.EventKind, eventID uuid.UUID, userID string) (*WagerView, error)
}

var _ Service = (*PredictionService)(nil)
