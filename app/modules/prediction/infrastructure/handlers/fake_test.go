package predictionhandlers

import (
	"context"
	"errors"

	"github.com/google/uuid"

	predictionservice "github.com/tipping-league/prediction-core/app/modules/prediction/application"
	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
)

var errNotStubbed = errors.New("not stubbed")

type FakeService struct {
	trace []string

	SubmitMatchBetFunc    func(ctx context.Context, userID string, payload predictionservice.MatchBetPayload) (*predictionservice.SubmitResult, error)
	SubmitSeriesBetFunc   func(ctx context.Context, userID string, payload predictionservice.SeriesBetPayload) (*predictionservice.SubmitResult, error)
	SubmitSpecialBetFunc  func(ctx context.Context, userID string, payload predictionservice.SpecialBetPayload) (*predictionservice.SubmitResult, error)
	SubmitQuestionBetFunc func(ctx context.Context, userID string, payload predictionservice.QuestionBetPayload) (*predictionservice.SubmitResult, error)
	EvaluateFunc          func(ctx context.Context, kind predictiondomain.EventKind, req predictionservice.EvaluateRequest) (*predictionservice.EvaluationResponse, error)
	EvaluateAllFunc       func(ctx context.Context, leagueID uuid.UUID, kind predictiondomain.EventKind, requestedBy string) (*predictionservice.EvaluateAllResponse, error)
	FriendPredictionsFunc func(ctx context.Context, kind predictiondomain.EventKind, eventID uuid.UUID, userID string) (*predictionservice.RevealResult, error)
	GetMyWagerFunc        func(ctx context.Context, kind predictiondomain.EventKind, eventID uuid.UUID, userID string) (*predictionservice.WagerView, error)
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	return append([]string(nil), f.trace...)
}

func (f *FakeService) SubmitMatchBet(ctx context.Context, userID string, payload predictionservice.MatchBetPayload) (*predictionservice.SubmitResult, error) {
	f.record("SubmitMatchBet")
	if f.SubmitMatchBetFunc != nil {
		return f.SubmitMatchBetFunc(ctx, userID, payload)
	}
	return nil, errNotStubbed
}

func (f *FakeService) SubmitSeriesBet(ctx context.Context, userID string, payload predictionservice.SeriesBetPayload) (*predictionservice.SubmitResult, error) {
	f.record("SubmitSeriesBet")
	if f.SubmitSeriesBetFunc != nil {
		return f.SubmitSeriesBetFunc(ctx, userID, payload)
	}
	return nil, errNotStubbed
}

func (f *FakeService) SubmitSpecialBet(ctx context.Context, userID string, payload predictionservice.SpecialBetPayload) (*predictionservice.SubmitResult, error) {
	f.record("SubmitSpecialBet")
	if f.SubmitSpecialBetFunc != nil {
		return f.SubmitSpecialBetFunc(ctx, userID, payload)
	}
	return nil, errNotStubbed
}

func (f *FakeService) SubmitQuestionBet(ctx context.Context, userID string, payload predictionservice.QuestionBetPayload) (*predictionservice.SubmitResult, error) {
	f.record("SubmitQuestionBet")
	if f.SubmitQuestionBetFunc != nil {
		return f.SubmitQuestionBetFunc(ctx, userID, payload)
	}
	return nil, errNotStubbed
}

func (f *FakeService) EvaluateMatch(ctx context.Context, req predictionservice.EvaluateRequest) (*predictionservice.EvaluationResponse, error) {
	return f.Evaluate(ctx, predictiondomain.KindMatch, req)
}

func (f *FakeService) EvaluateSeries(ctx context.Context, req predictionservice.EvaluateRequest) (*predictionservice.EvaluationResponse, error) {
	return f.Evaluate(ctx, predictiondomain.KindSeries, req)
}

func (f *FakeService) EvaluateSpecialBet(ctx context.Context, req predictionservice.EvaluateRequest) (*predictionservice.EvaluationResponse, error) {
	return f.Evaluate(ctx, predictiondomain.KindSpecial, req)
}

func (f *FakeService) EvaluateQuestion(ctx context.Context, req predictionservice.EvaluateRequest) (*predictionservice.EvaluationResponse, error) {
	return f.Evaluate(ctx, predictiondomain.KindQuestion, req)
}

func (f *FakeService) Evaluate(ctx context.Context, kind predictiondomain.EventKind, req predictionservice.EvaluateRequest) (*predictionservice.EvaluationResponse, error) {
	f.record("Evaluate")
	if f.EvaluateFunc != nil {
		return f.EvaluateFunc(ctx, kind, req)
	}
	return nil, errNotStubbed
}

func (f *FakeService) EvaluateAll(ctx context.Context, leagueID uuid.UUID, kind predictiondomain.EventKind, requestedBy string) (*predictionservice.EvaluateAllResponse, error) {
	f.record("EvaluateAll")
	if f.EvaluateAllFunc != nil {
		return f.EvaluateAllFunc(ctx, leagueID, kind, requestedBy)
	}
	return nil, errNotStubbed
}

func (f *FakeService) FriendPredictions(ctx context.Context, kind predictiondomain.EventKind, eventID uuid.UUID, userID string) (*predictionservice.RevealResult, error) {
	f.record("FriendPredictions")
	if f.FriendPredictionsFunc != nil {
		return f.FriendPredictionsFunc(ctx, kind, eventID, userID)
	}
	return nil, errNotStubbed
}

func (f *FakeService) GetMyWager(ctx context.Context, kind predictiondomain.EventKind, eventID uuid.UUID, userID string) (*predictionservice.WagerView, error) {
	f.record("GetMyWager")
	if f.GetMyWagerFunc != nil {
		return f.GetMyWagerFunc(ctx, kind, eventID, userID)
	}
	return nil, errNotStubbed
}

var _ predictionservice.Service = (*FakeService)(nil)
