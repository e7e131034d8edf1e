package predictionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	"github.com/tipping-league/prediction-core/app/modules/prediction/domain/evaluators"
	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
	"github.com/tipping-league/prediction-core/app/shared/observability"
	"github.com/tipping-league/prediction-core/app/shared/results"
	"github.com/tipping-league/prediction-core/app/shared/txrunner"
)

// EvaluateRequest selects what an evaluation run scores. A nil UserID is a
// full run over every live wager; otherwise only that user's wager is scored.
type EvaluateRequest struct {
	EventID     uuid.UUID
	UserID      *string
	RequestedBy string
}

// EvaluationResult is the score of one member's wager.
type EvaluationResult struct {
	UserID      string         `json:"userId"`
	DisplayName string         `json:"displayName,omitempty"`
	TotalPoints int            `json:"totalPoints"`
	Breakdown   map[string]int `json:"breakdown"`
	IsCorrect   *bool          `json:"isCorrect"`
}

// EvaluationResponse is the outcome of one evaluation run.
type EvaluationResponse struct {
	Success             bool               `json:"success"`
	Error               *apperr.Error      `json:"error,omitempty"`
	Results             []EvaluationResult `json:"results,omitempty"`
	TotalUsersEvaluated int                `json:"totalUsersEvaluated"`
}

// evaluation is what a run's transaction body hands back to the caller side.
type evaluation struct {
	leagueID uuid.UUID
	results  []EvaluationResult
}

// scoringRule is an evaluator rule whose type has been resolved.
type scoringRule struct {
	id     uuid.UUID
	typ    evaluators.Type
	points int
	config *predictiondb.RuleConfig
}

type evaluateFunc func(ctx context.Context, db bun.IDB, req EvaluateRequest) (results.OperationResult[evaluation, *apperr.Error], error)

// EvaluateMatch scores the wagers on a match.
func (s *PredictionService) EvaluateMatch(ctx context.Context, req EvaluateRequest) (*EvaluationResponse, error) {
	return s.runEvaluation(ctx, "EvaluateMatch", predictiondomain.KindMatch, req, s.evaluateMatchLogic)
}

// EvaluateSeries scores the wagers on a series.
func (s *PredictionService) EvaluateSeries(ctx context.Context, req EvaluateRequest) (*EvaluationResponse, error) {
	return s.runEvaluation(ctx, "EvaluateSeries", predictiondomain.KindSeries, req, s.evaluateSeriesLogic)
}

// EvaluateSpecialBet scores the wagers on a special bet.
func (s *PredictionService) EvaluateSpecialBet(ctx context.Context, req EvaluateRequest) (*EvaluationResponse, error) {
	return s.runEvaluation(ctx, "EvaluateSpecialBet", predictiondomain.KindSpecial, req, s.evaluateSpecialLogic)
}

// EvaluateQuestion scores the answers to a question.
func (s *PredictionService) EvaluateQuestion(ctx context.Context, req EvaluateRequest) (*EvaluationResponse, error) {
	return s.runEvaluation(ctx, "EvaluateQuestion", predictiondomain.KindQuestion, req, s.evaluateQuestionLogic)
}

// Evaluate dispatches to the orchestrator of kind.
func (s *PredictionService) Evaluate(ctx context.Context, kind predictiondomain.EventKind, req EvaluateRequest) (*EvaluationResponse, error) {
	switch kind {
	case predictiondomain.KindMatch:
		return s.EvaluateMatch(ctx, req)
	case predictiondomain.KindSeries:
		return s.EvaluateSeries(ctx, req)
	case predictiondomain.KindSpecial:
		return s.EvaluateSpecialBet(ctx, req)
	case predictiondomain.KindQuestion:
		return s.EvaluateQuestion(ctx, req)
	}
	return nil, fmt.Errorf("%w: %s", predictiondb.ErrUnknownKind, kind)
}

func (s *PredictionService) runEvaluation(
	ctx context.Context,
	operationName string,
	kind predictiondomain.EventKind,
	req EvaluateRequest,
	logic evaluateFunc,
) (*EvaluationResponse, error) {
	started := time.Now()
	limits := txrunner.Limits{Timeout: s.cfg.EvaluationTimeout}

	result, err := withTelemetry(s, ctx, operationName, req.EventID.String(), func(ctx context.Context) (results.OperationResult[evaluation, *apperr.Error], error) {
		return runSerializable(s, ctx, limits, func(ctx context.Context, db bun.IDB) (results.OperationResult[evaluation, *apperr.Error], error) {
			return logic(ctx, db, req)
		})
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return &EvaluationResponse{Success: false, Error: *result.Failure}, nil
	}

	eval := *result.Success
	s.afterEvaluation(ctx, kind, req, eval, time.Since(started))

	return &EvaluationResponse{
		Success:             true,
		Results:             eval.results,
		TotalUsersEvaluated: len(eval.results),
	}, nil
}

// afterEvaluation runs the best-effort side effects of a committed run.
func (s *PredictionService) afterEvaluation(ctx context.Context, kind predictiondomain.EventKind, req EvaluateRequest, eval evaluation, took time.Duration) {
	fullRun := req.UserID == nil
	s.metrics.RecordEvaluation(ctx, string(kind), len(eval.results))

	metadata := map[string]any{
		"fullRun":        fullRun,
		"usersEvaluated": len(eval.results),
	}
	if req.UserID != nil {
		metadata["userId"] = *req.UserID
	}
	s.audit(ctx, predictiondomain.AuditEntry{
		Action:     predictiondomain.AuditEvaluated,
		UserID:     req.RequestedBy,
		LeagueID:   eval.leagueID,
		Kind:       kind,
		EventID:    req.EventID,
		Metadata:   metadata,
		Duration:   took,
		OccurredAt: time.Now().UTC(),
	})

	if s.collab.Publisher == nil {
		return
	}
	pubCtx, cancel := s.detach(ctx)
	defer cancel()
	err := s.collab.Publisher.PublishEvaluated(pubCtx, predictiondomain.EvaluatedEvent{
		Kind:           kind,
		EventID:        req.EventID,
		LeagueID:       eval.leagueID,
		FullRun:        fullRun,
		UsersEvaluated: len(eval.results),
		Tags:           predictiondomain.CacheTags(kind, req.EventID, eval.leagueID),
		EvaluatedAt:    time.Now().UTC(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish evaluation event",
			observability.CorrelationID(ctx),
			slog.String("event_id", req.EventID.String()),
			observability.Err(err),
		)
	}
}

func evaluationFailure(err *apperr.Error) (results.OperationResult[evaluation, *apperr.Error], error) {
	return results.FailureResult[evaluation](err), nil
}

func evaluationError(err error) (results.OperationResult[evaluation, *apperr.Error], error) {
	return results.OperationResult[evaluation, *apperr.Error]{}, err
}

func resultNotSet(kind predictiondomain.EventKind) *apperr.Error {
	return apperr.BadRequest(kind.Title() + " result must be set before evaluation")
}

func noEvaluator(kind predictiondomain.EventKind) *apperr.Error {
	return apperr.BadRequest("No evaluator configured for this " + kind.Noun())
}

// parseRule resolves a stored rule for kind.
func parseRule(kind predictiondomain.EventKind, rule predictiondb.EvaluatorRule) (scoringRule, *apperr.Error) {
	t, err := evaluators.ParseType(rule.Type)
	if err != nil || t.Kind() != kind {
		return scoringRule{}, apperr.Wrap(apperr.CodeBadRequest, "Unknown evaluator type: "+rule.Type, err)
	}
	return scoringRule{id: rule.ID, typ: t, points: rule.Points, config: rule.Config}, nil
}

// loadRules returns the league's active rules for kind. Each variant may be
// configured at most once; at least one rule must exist.
func (s *PredictionService) loadRules(ctx context.Context, db bun.IDB, leagueID uuid.UUID, kind predictiondomain.EventKind) ([]scoringRule, *apperr.Error, error) {
	rows, err := s.repo.ListActiveRules(ctx, db, leagueID, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load evaluators: %w", err)
	}
	if len(rows) == 0 {
		return nil, noEvaluator(kind), nil
	}

	seen := make(map[evaluators.Type]bool, len(rows))
	rules := make([]scoringRule, 0, len(rows))
	for _, row := range rows {
		rule, failure := parseRule(kind, row)
		if failure != nil {
			return nil, failure, nil
		}
		if seen[rule.typ] {
			return nil, apperr.BadRequest("Multiple evaluators configured for " + rule.typ.String()), nil
		}
		seen[rule.typ] = true
		rules = append(rules, rule)
	}
	return rules, nil, nil
}

// score applies every rule through check and returns the total and breakdown.
func score(rules []scoringRule, check func(evaluators.Type) (bool, error)) (int, map[string]int, error) {
	total := 0
	breakdown := make(map[string]int, len(rules))
	for _, rule := range rules {
		ok, err := check(rule.typ)
		if err != nil {
			return 0, nil, err
		}
		points := evaluators.Award(ok, rule.points)
		breakdown[rule.typ.String()] = points
		total += points
	}
	return total, breakdown, nil
}

func (s *PredictionService) persist(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, req EvaluateRequest, setPoints func() error) error {
	if err := setPoints(); err != nil {
		return fmt.Errorf("failed to persist points: %w", err)
	}
	if req.UserID != nil {
		return nil
	}
	if err := s.repo.MarkEvaluated(ctx, db, kind, req.EventID); err != nil {
		return fmt.Errorf("failed to mark %s evaluated: %w", kind, err)
	}
	return nil
}

func (s *PredictionService) evaluateMatchLogic(ctx context.Context, db bun.IDB, req EvaluateRequest) (results.OperationResult[evaluation, *apperr.Error], error) {
	kind := predictiondomain.KindMatch
	match, err := s.repo.GetMatch(ctx, db, req.EventID)
	if err != nil {
		if errors.Is(err, predictiondb.ErrNotFound) {
			return evaluationFailure(notFound(kind))
		}
		return evaluationError(fmt.Errorf("failed to load match: %w", err))
	}
	if !match.ResultSet() {
		return evaluationFailure(resultNotSet(kind))
	}

	rules, failure, err := s.loadRules(ctx, db, match.LeagueID, kind)
	if err != nil {
		return evaluationError(err)
	}
	if failure != nil {
		return evaluationFailure(failure)
	}

	wagers, err := s.wagers.Match.ListByEvent(ctx, db, match.ID, req.UserID)
	if err != nil {
		return evaluationError(err)
	}

	outcome := evaluators.MatchResult{
		Score:      evaluators.Score{Home: *match.HomeFinalScore, Away: *match.AwayFinalScore},
		ScorerIDs:  match.ScorerIDs(),
		IsOvertime: match.IsOvertime,
		IsShootout: match.IsShootout,
	}

	out := make([]EvaluationResult, 0, len(wagers))
	updates := make([]predictiondb.PointsUpdate, 0, len(wagers))
	for _, w := range wagers {
		mc := evaluators.MatchContext{
			Prediction: evaluators.MatchPrediction{
				Score:    evaluators.Score{Home: w.HomeScore, Away: w.AwayScore},
				ScorerID: w.ScorerID,
				Overtime: w.Overtime,
			},
			Result: outcome,
		}
		total, breakdown, err := score(rules, func(t evaluators.Type) (bool, error) {
			return evaluators.EvaluateMatch(t, mc)
		})
		if err != nil {
			return evaluationFailure(apperr.Wrap(apperr.CodeBadRequest, "Unknown evaluator type", err))
		}
		updates = append(updates, predictiondb.PointsUpdate{WagerID: w.ID, Points: total})
		out = append(out, EvaluationResult{UserID: w.UserID, DisplayName: w.DisplayName, TotalPoints: total, Breakdown: breakdown})
	}

	err = s.persist(ctx, db, kind, req, func() error {
		return s.wagers.Match.SetPoints(ctx, db, updates)
	})
	if err != nil {
		return evaluationError(err)
	}
	return results.SuccessResult[evaluation, *apperr.Error](evaluation{leagueID: match.LeagueID, results: out}), nil
}

func (s *PredictionService) evaluateSeriesLogic(ctx context.Context, db bun.IDB, req EvaluateRequest) (results.OperationResult[evaluation, *apperr.Error], error) {
	kind := predictiondomain.KindSeries
	series, err := s.repo.GetSeries(ctx, db, req.EventID)
	if err != nil {
		if errors.Is(err, predictiondb.ErrNotFound) {
			return evaluationFailure(notFound(kind))
		}
		return evaluationError(fmt.Errorf("failed to load series: %w", err))
	}
	if !series.ResultSet() {
		return evaluationFailure(resultNotSet(kind))
	}

	rules, failure, err := s.loadRules(ctx, db, series.LeagueID, kind)
	if err != nil {
		return evaluationError(err)
	}
	if failure != nil {
		return evaluationFailure(failure)
	}

	wagers, err := s.wagers.Series.ListByEvent(ctx, db, series.ID, req.UserID)
	if err != nil {
		return evaluationError(err)
	}

	outcome := evaluators.Score{Home: *series.HomeTeamScore, Away: *series.AwayTeamScore}
	out := make([]EvaluationResult, 0, len(wagers))
	updates := make([]predictiondb.PointsUpdate, 0, len(wagers))
	for _, w := range wagers {
		sc := evaluators.SeriesContext{
			Prediction: evaluators.Score{Home: w.HomeTeamScore, Away: w.AwayTeamScore},
			Result:     outcome,
		}
		total, breakdown, err := score(rules, func(t evaluators.Type) (bool, error) {
			return evaluators.EvaluateSeries(t, sc)
		})
		if err != nil {
			return evaluationFailure(apperr.Wrap(apperr.CodeBadRequest, "Unknown evaluator type", err))
		}
		updates = append(updates, predictiondb.PointsUpdate{WagerID: w.ID, Points: total})
		out = append(out, EvaluationResult{UserID: w.UserID, DisplayName: w.DisplayName, TotalPoints: total, Breakdown: breakdown})
	}

	err = s.persist(ctx, db, kind, req, func() error {
		return s.wagers.Series.SetPoints(ctx, db, updates)
	})
	if err != nil {
		return evaluationError(err)
	}
	return results.SuccessResult[evaluation, *apperr.Error](evaluation{leagueID: series.LeagueID, results: out}), nil
}

// specialRule loads the rule a special bet references. It must be active, in
// the bet's league and of the special kind.
func (s *PredictionService) specialRule(ctx context.Context, db bun.IDB, sb *predictiondb.SpecialBet) (scoringRule, *apperr.Error, error) {
	kind := predictiondomain.KindSpecial
	row, err := s.repo.GetRule(ctx, db, sb.EvaluatorID)
	if err != nil {
		if errors.Is(err, predictiondb.ErrNotFound) {
			return scoringRule{}, noEvaluator(kind), nil
		}
		return scoringRule{}, nil, fmt.Errorf("failed to load evaluator: %w", err)
	}
	if !row.IsActive || row.Kind != kind || row.LeagueID != sb.LeagueID {
		return scoringRule{}, noEvaluator(kind), nil
	}
	rule, failure := parseRule(kind, *row)
	return rule, failure, nil
}

func (s *PredictionService) evaluateSpecialLogic(ctx context.Context, db bun.IDB, req EvaluateRequest) (results.OperationResult[evaluation, *apperr.Error], error) {
	kind := predictiondomain.KindSpecial
	sb, err := s.repo.GetSpecialBet(ctx, db, req.EventID)
	if err != nil {
		if errors.Is(err, predictiondb.ErrNotFound) {
			return evaluationFailure(notFound(kind))
		}
		return evaluationError(fmt.Errorf("failed to load special bet: %w", err))
	}
	if !sb.ResultSet() {
		return evaluationFailure(resultNotSet(kind))
	}

	rule, failure, err := s.specialRule(ctx, db, sb)
	if err != nil {
		return evaluationError(err)
	}
	if failure != nil {
		return evaluationFailure(failure)
	}

	actual := evaluators.SpecialValue{TeamID: sb.ResultTeamID, PlayerID: sb.ResultPlayerID, Value: sb.ResultValue}

	var groupCfg evaluators.GroupStageConfig
	if rule.typ == evaluators.GroupStageTeam {
		if actual.TeamID == nil {
			return evaluationFailure(apperr.BadRequest("Group stage evaluator requires a team result"))
		}
		if rule.config != nil {
			groupCfg.WinnerPoints, groupCfg.AdvancePoints = rule.config.WinnerPoints, rule.config.AdvancePoints
		}
		if err := groupCfg.Validate(); err != nil {
			return evaluationFailure(apperr.Wrap(apperr.CodeBadRequest, "Group stage evaluator requires winnerPoints and advancePoints", err))
		}
	}

	// closest_value ranks every wager on the event even when one user is scored.
	scope := req.UserID
	if rule.typ == evaluators.ClosestValue {
		scope = nil
	}
	wagers, err := s.wagers.Special.ListByEvent(ctx, db, sb.ID, scope)
	if err != nil {
		return evaluationError(err)
	}

	points := make([]int, len(wagers))
	switch rule.typ {
	case evaluators.ClosestValue:
		if actual.Value == nil {
			return evaluationFailure(apperr.BadRequest("Closest value evaluator requires a numeric result"))
		}
		values := make([]*decimal.Decimal, len(wagers))
		for i := range wagers {
			values[i] = wagers[i].Value
		}
		for i, m := range evaluators.ClosestValueMultipliers(*actual.Value, values) {
			points[i] = evaluators.MultipliedPoints(m, rule.points)
		}
	case evaluators.GroupStageTeam:
		advancing := sb.AdvancingTeamIDs()
		for i, w := range wagers {
			p, err := evaluators.GroupStageTeamPoints(w.TeamID, *actual.TeamID, advancing, groupCfg)
			if err != nil {
				return evaluationFailure(apperr.Wrap(apperr.CodeBadRequest, "Group stage evaluator requires winnerPoints and advancePoints", err))
			}
			points[i] = p
		}
	default:
		for i, w := range wagers {
			ok, err := evaluators.EvaluateSpecial(rule.typ, evaluators.SpecialContext{
				Prediction: evaluators.SpecialValue{TeamID: w.TeamID, PlayerID: w.PlayerID, Value: w.Value},
				Result:     actual,
			})
			if err != nil {
				return evaluationFailure(apperr.Wrap(apperr.CodeBadRequest, "Unknown evaluator type", err))
			}
			points[i] = evaluators.Award(ok, rule.points)
		}
	}

	out := make([]EvaluationResult, 0, len(wagers))
	updates := make([]predictiondb.PointsUpdate, 0, len(wagers))
	for i, w := range wagers {
		if req.UserID != nil && w.UserID != *req.UserID {
			continue
		}
		updates = append(updates, predictiondb.PointsUpdate{WagerID: w.ID, Points: points[i]})
		out = append(out, EvaluationResult{
			UserID:      w.UserID,
			DisplayName: w.DisplayName,
			TotalPoints: points[i],
			Breakdown:   map[string]int{rule.typ.String(): points[i]},
		})
	}

	err = s.persist(ctx, db, kind, req, func() error {
		return s.wagers.Special.SetPoints(ctx, db, updates)
	})
	if err != nil {
		return evaluationError(err)
	}
	return results.SuccessResult[evaluation, *apperr.Error](evaluation{leagueID: sb.LeagueID, results: out}), nil
}

func (s *PredictionService) evaluateQuestionLogic(ctx context.Context, db bun.IDB, req EvaluateRequest) (results.OperationResult[evaluation, *apperr.Error], error) {
	kind := predictiondomain.KindQuestion
	q, err := s.repo.GetQuestion(ctx, db, req.EventID)
	if err != nil {
		if errors.Is(err, predictiondb.ErrNotFound) {
			return evaluationFailure(notFound(kind))
		}
		return evaluationError(fmt.Errorf("failed to load question: %w", err))
	}
	if q.Result == nil {
		return evaluationFailure(resultNotSet(kind))
	}

	rules, failure, err := s.loadRules(ctx, db, q.LeagueID, kind)
	if err != nil {
		return evaluationError(err)
	}
	if failure != nil {
		return evaluationFailure(failure)
	}
	rule := rules[0]

	wagers, err := s.wagers.Question.ListByEvent(ctx, db, q.ID, req.UserID)
	if err != nil {
		return evaluationError(err)
	}

	out := make([]EvaluationResult, 0, len(wagers))
	updates := make([]predictiondb.PointsUpdate, 0, len(wagers))
	for _, w := range wagers {
		points, correct := evaluators.QuestionPoints(w.Prediction, *q.Result, rule.points)
		updates = append(updates, predictiondb.PointsUpdate{WagerID: w.ID, Points: points})
		out = append(out, EvaluationResult{
			UserID:      w.UserID,
			DisplayName: w.DisplayName,
			TotalPoints: points,
			Breakdown:   map[string]int{rule.typ.String(): points},
			IsCorrect:   correct,
		})
	}
	if req.UserID != nil && len(wagers) == 0 {
		out = append(out, EvaluationResult{
			UserID:      *req.UserID,
			TotalPoints: 0,
			Breakdown:   map[string]int{rule.typ.String(): 0},
			IsCorrect:   nil,
		})
	}

	err = s.persist(ctx, db, kind, req, func() error {
		return s.wagers.Question.SetPoints(ctx, db, updates)
	})
	if err != nil {
		return evaluationError(err)
	}
	return results.SuccessResult[evaluation, *apperr.Error](evaluation{leagueID: q.LeagueID, results: out}), nil
}
