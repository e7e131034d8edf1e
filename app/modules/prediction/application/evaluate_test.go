package predictionservice

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
)

func rule(kind predictiondomain.EventKind, typ string, points int) predictiondb.EvaluatorRule {
	return predictiondb.EvaluatorRule{ID: uuid.New(), Kind: kind, Type: typ, Points: points, IsActive: true}
}

func (h *harness) rules(rules ...predictiondb.EvaluatorRule) {
	h.repo.ListActiveRulesFunc = func(ctx context.Context, db bun.IDB, leagueID uuid.UUID, kind predictiondomain.EventKind) ([]predictiondb.EvaluatorRule, error) {
		return rules, nil
	}
}

// finishedMatch records a 2:1 final score.
func (h *harness) finishedMatch(leagueID uuid.UUID) {
	h.repo.GetMatchFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*predictiondb.Match, error) {
		return &predictiondb.Match{
			ID: id, LeagueID: leagueID,
			HomeRegularScore: ptr(2), AwayRegularScore: ptr(1),
			HomeFinalScore: ptr(2), AwayFinalScore: ptr(1),
		}, nil
	}
}

func matchWagers(userID *string) []predictiondb.MatchBet {
	all := []predictiondb.MatchBet{
		{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), UserID: "alice", DisplayName: "Alice", HomeScore: 2, AwayScore: 1},
		{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), UserID: "bob", DisplayName: "Bob", HomeScore: 1, AwayScore: 0},
		{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000c"), UserID: "carol", DisplayName: "Carol", HomeScore: 0, AwayScore: 2},
	}
	if userID == nil {
		return all
	}
	for _, w := range all {
		if w.UserID == *userID {
			return []predictiondb.MatchBet{w}
		}
	}
	return nil
}

func TestEvaluateMatch(t *testing.T) {
	leagueID := uuid.New()
	matchID := uuid.New()

	t.Run("full run scores every wager and marks the match evaluated", func(t *testing.T) {
		h := newHarness()
		h.finishedMatch(leagueID)
		h.rules(rule(predictiondomain.KindMatch, "exact_score", 5), rule(predictiondomain.KindMatch, "winner", 2))
		h.wagers.match.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.MatchBet, error) {
			return matchWagers(userID), nil
		}

		resp, err := h.svc.EvaluateMatch(context.Background(), EvaluateRequest{EventID: matchID, RequestedBy: "admin"})
		require.NoError(t, err)
		require.True(t, resp.Success)
		assert.Equal(t, 3, resp.TotalUsersEvaluated)

		want := []EvaluationResult{
			{UserID: "alice", DisplayName: "Alice", TotalPoints: 7, Breakdown: map[string]int{"exact_score": 5, "winner": 2}},
			{UserID: "bob", DisplayName: "Bob", TotalPoints: 2, Breakdown: map[string]int{"exact_score": 0, "winner": 2}},
			{UserID: "carol", DisplayName: "Carol", TotalPoints: 0, Breakdown: map[string]int{"exact_score": 0, "winner": 0}},
		}
		if diff := cmp.Diff(want, resp.Results); diff != "" {
			t.Errorf("results mismatch (-want +got):\n%s", diff)
		}

		assert.Equal(t, []predictiondb.PointsUpdate{
			{WagerID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), Points: 7},
			{WagerID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), Points: 2},
			{WagerID: uuid.MustParse("00000000-0000-0000-0000-00000000000c"), Points: 0},
		}, h.wagers.match.PointsSet)
		assert.Contains(t, h.repo.Trace(), "MarkEvaluated")

		require.Len(t, h.publisher.Events, 1)
		ev := h.publisher.Events[0]
		assert.True(t, ev.FullRun)
		assert.Equal(t, leagueID, ev.LeagueID)
		assert.Equal(t, predictiondomain.CacheTags(predictiondomain.KindMatch, matchID, leagueID), ev.Tags)

		require.Len(t, h.auditor.Entries, 1)
		assert.Equal(t, predictiondomain.AuditEvaluated, h.auditor.Entries[0].Action)
		assert.Equal(t, "admin", h.auditor.Entries[0].UserID)
	})

	t.Run("single-user run never marks the match evaluated", func(t *testing.T) {
		h := newHarness()
		h.finishedMatch(leagueID)
		h.rules(rule(predictiondomain.KindMatch, "exact_score", 5))
		h.wagers.match.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.MatchBet, error) {
			return matchWagers(userID), nil
		}

		resp, err := h.svc.EvaluateMatch(context.Background(), EvaluateRequest{EventID: matchID, UserID: ptr("bob")})
		require.NoError(t, err)
		require.True(t, resp.Success)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "bob", resp.Results[0].UserID)
		assert.NotContains(t, h.repo.Trace(), "MarkEvaluated")
		assert.Len(t, h.wagers.match.PointsSet, 1)
		assert.False(t, h.publisher.Events[0].FullRun)
	})

	t.Run("re-evaluation overwrites instead of accumulating", func(t *testing.T) {
		h := newHarness()
		h.finishedMatch(leagueID)
		h.rules(rule(predictiondomain.KindMatch, "winner", 3))
		h.wagers.match.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.MatchBet, error) {
			return matchWagers(userID), nil
		}

		first, err := h.svc.EvaluateMatch(context.Background(), EvaluateRequest{EventID: matchID})
		require.NoError(t, err)
		second, err := h.svc.EvaluateMatch(context.Background(), EvaluateRequest{EventID: matchID})
		require.NoError(t, err)

		assert.Equal(t, first.Results, second.Results)
		require.Len(t, h.wagers.match.PointsSet, 6)
		assert.Equal(t, h.wagers.match.PointsSet[:3], h.wagers.match.PointsSet[3:])
	})

	failures := []struct {
		name      string
		setup     func(h *harness)
		wantCode  apperr.Code
		wantMatch string
	}{
		{
			name:     "unknown match",
			setup:    func(h *harness) {},
			wantCode: apperr.CodeNotFound,
		},
		{
			name: "result not recorded",
			setup: func(h *harness) {
				h.repo.GetMatchFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*predictiondb.Match, error) {
					return &predictiondb.Match{ID: id, LeagueID: leagueID, HomeFinalScore: ptr(1), AwayFinalScore: ptr(0)}, nil
				}
				h.rules(rule(predictiondomain.KindMatch, "winner", 3))
			},
			wantCode:  apperr.CodeBadRequest,
			wantMatch: "result must be set",
		},
		{
			name:      "no evaluator configured",
			setup:     func(h *harness) { h.finishedMatch(leagueID) },
			wantCode:  apperr.CodeBadRequest,
			wantMatch: "No evaluator configured",
		},
		{
			name: "unknown evaluator type",
			setup: func(h *harness) {
				h.finishedMatch(leagueID)
				h.rules(rule(predictiondomain.KindMatch, "first_blood", 3))
			},
			wantCode:  apperr.CodeBadRequest,
			wantMatch: "Unknown evaluator type",
		},
		{
			name: "evaluator of another kind",
			setup: func(h *harness) {
				h.finishedMatch(leagueID)
				h.rules(rule(predictiondomain.KindMatch, "series_exact", 3))
			},
			wantCode:  apperr.CodeBadRequest,
			wantMatch: "Unknown evaluator type",
		},
		{
			name: "same variant configured twice",
			setup: func(h *harness) {
				h.finishedMatch(leagueID)
				h.rules(rule(predictiondomain.KindMatch, "winner", 3), rule(predictiondomain.KindMatch, "winner", 1))
			},
			wantCode:  apperr.CodeBadRequest,
			wantMatch: "Multiple evaluators",
		},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.setup(h)

			resp, err := h.svc.EvaluateMatch(context.Background(), EvaluateRequest{EventID: matchID})
			require.NoError(t, err)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantMatch != "" {
				assert.Contains(t, resp.Error.Message, tt.wantMatch)
			}
			assert.Empty(t, h.wagers.match.PointsSet)
			assert.NotContains(t, h.repo.Trace(), "MarkEvaluated")
			assert.Empty(t, h.publisher.Events)
		})
	}

	t.Run("storage error propagates", func(t *testing.T) {
		h := newHarness()
		h.finishedMatch(leagueID)
		h.rules(rule(predictiondomain.KindMatch, "winner", 3))
		h.wagers.match.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.MatchBet, error) {
			return matchWagers(userID), nil
		}
		h.wagers.match.SetPointsFunc = func(ctx context.Context, db bun.IDB, updates []predictiondb.PointsUpdate) error {
			return errors.New("connection lost")
		}

		resp, err := h.svc.EvaluateMatch(context.Background(), EvaluateRequest{EventID: matchID})
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.Empty(t, h.publisher.Events)
	})

	t.Run("publish failure does not fail the run", func(t *testing.T) {
		h := newHarness()
		h.finishedMatch(leagueID)
		h.rules(rule(predictiondomain.KindMatch, "winner", 3))
		h.publisher.Err = errors.New("nats down")

		resp, err := h.svc.EvaluateMatch(context.Background(), EvaluateRequest{EventID: matchID})
		require.NoError(t, err)
		assert.True(t, resp.Success)
	})
}

func TestEvaluateSeries(t *testing.T) {
	leagueID := uuid.New()
	h := newHarness()
	h.repo.GetSeriesFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*predictiondb.Series, error) {
		return &predictiondb.Series{ID: id, LeagueID: leagueID, BestOf: 7, HomeTeamScore: ptr(4), AwayTeamScore: ptr(2)}, nil
	}
	h.rules(
		rule(predictiondomain.KindSeries, "series_exact", 10),
		rule(predictiondomain.KindSeries, "series_winner", 4),
		rule(predictiondomain.KindSeries, "series_loser_wins", 2),
	)
	h.wagers.series.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.SeriesBet, error) {
		return []predictiondb.SeriesBet{
			{ID: uuid.New(), UserID: "alice", HomeTeamScore: 4, AwayTeamScore: 2},
			{ID: uuid.New(), UserID: "bob", HomeTeamScore: 4, AwayTeamScore: 1},
			{ID: uuid.New(), UserID: "carol", HomeTeamScore: 2, AwayTeamScore: 4},
		}, nil
	}

	resp, err := h.svc.EvaluateSeries(context.Background(), EvaluateRequest{EventID: uuid.New()})
	require.NoError(t, err)
	require.True(t, resp.Success)

	got := map[string]int{}
	for _, r := range resp.Results {
		got[r.UserID] = r.TotalPoints
	}
	assert.Equal(t, map[string]int{"alice": 16, "bob": 4, "carol": 0}, got)
	assert.Contains(t, h.repo.Trace(), "MarkEvaluated")
}

func TestEvaluateSpecialBet(t *testing.T) {
	leagueID := uuid.New()
	ruleID := uuid.New()
	winner := uuid.New()
	runnerUp := uuid.New()
	eliminated := uuid.New()

	specialWith := func(h *harness, sb predictiondb.SpecialBet, r predictiondb.EvaluatorRule) {
		sb.LeagueID = leagueID
		sb.EvaluatorID = ruleID
		h.repo.GetSpecialBetFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*predictiondb.SpecialBet, error) {
			sb.ID = id
			return &sb, nil
		}
		r.ID = ruleID
		r.LeagueID = leagueID
		h.repo.GetRuleFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*predictiondb.EvaluatorRule, error) {
			return &r, nil
		}
	}
	dec := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	closestWagers := []predictiondb.SpecialBetBet{
		{ID: uuid.New(), UserID: "alice", Value: dec("98")},
		{ID: uuid.New(), UserID: "bob", Value: dec("102")},
		{ID: uuid.New(), UserID: "carol", Value: dec("110")},
	}

	t.Run("closest value ties share the partial multiplier", func(t *testing.T) {
		h := newHarness()
		specialWith(h, predictiondb.SpecialBet{ResultValue: dec("100")}, rule(predictiondomain.KindSpecial, "closest_value", 30))
		h.wagers.special.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.SpecialBetBet, error) {
			return closestWagers, nil
		}

		resp, err := h.svc.EvaluateSpecialBet(context.Background(), EvaluateRequest{EventID: uuid.New()})
		require.NoError(t, err)
		require.True(t, resp.Success)
		got := map[string]int{}
		for _, r := range resp.Results {
			got[r.UserID] = r.TotalPoints
		}
		assert.Equal(t, map[string]int{"alice": 10, "bob": 10, "carol": 0}, got)
	})

	t.Run("closest value single user is ranked against everyone", func(t *testing.T) {
		h := newHarness()
		specialWith(h, predictiondb.SpecialBet{ResultValue: dec("100")}, rule(predictiondomain.KindSpecial, "closest_value", 30))
		var scopes []*string
		h.wagers.special.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.SpecialBetBet, error) {
			scopes = append(scopes, userID)
			return closestWagers, nil
		}

		resp, err := h.svc.EvaluateSpecialBet(context.Background(), EvaluateRequest{EventID: uuid.New(), UserID: ptr("bob")})
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, 10, resp.Results[0].TotalPoints)
		assert.Equal(t, []*string{nil}, scopes)
		require.Len(t, h.wagers.special.PointsSet, 1)
		assert.Equal(t, closestWagers[1].ID, h.wagers.special.PointsSet[0].WagerID)
		assert.NotContains(t, h.repo.Trace(), "MarkEvaluated")
	})

	t.Run("closest value exact hit", func(t *testing.T) {
		h := newHarness()
		specialWith(h, predictiondb.SpecialBet{ResultValue: dec("102")}, rule(predictiondomain.KindSpecial, "closest_value", 30))
		h.wagers.special.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.SpecialBetBet, error) {
			return closestWagers, nil
		}

		resp, err := h.svc.EvaluateSpecialBet(context.Background(), EvaluateRequest{EventID: uuid.New()})
		require.NoError(t, err)
		got := map[string]int{}
		for _, r := range resp.Results {
			got[r.UserID] = r.TotalPoints
		}
		assert.Equal(t, map[string]int{"alice": 0, "bob": 30, "carol": 0}, got)
	})

	groupRule := rule(predictiondomain.KindSpecial, "group_stage_team", 0)
	groupRule.Config = &predictiondb.RuleConfig{WinnerPoints: ptr(8), AdvancePoints: ptr(3)}
	groupBet := predictiondb.SpecialBet{
		ResultTeamID: &winner,
		AdvancingTeams: []predictiondb.SpecialBetAdvancingTeam{
			{TeamID: winner}, {TeamID: runnerUp},
		},
	}

	t.Run("group stage team", func(t *testing.T) {
		h := newHarness()
		specialWith(h, groupBet, groupRule)
		h.wagers.special.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.SpecialBetBet, error) {
			return []predictiondb.SpecialBetBet{
				{ID: uuid.New(), UserID: "alice", TeamID: &winner},
				{ID: uuid.New(), UserID: "bob", TeamID: &runnerUp},
				{ID: uuid.New(), UserID: "carol", TeamID: &eliminated},
			}, nil
		}

		resp, err := h.svc.EvaluateSpecialBet(context.Background(), EvaluateRequest{EventID: uuid.New()})
		require.NoError(t, err)
		got := map[string]int{}
		for _, r := range resp.Results {
			got[r.UserID] = r.TotalPoints
		}
		assert.Equal(t, map[string]int{"alice": 8, "bob": 3, "carol": 0}, got)
	})

	t.Run("group stage without config fails", func(t *testing.T) {
		h := newHarness()
		specialWith(h, groupBet, rule(predictiondomain.KindSpecial, "group_stage_team", 5))
		h.wagers.special.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.SpecialBetBet, error) {
			return []predictiondb.SpecialBetBet{{ID: uuid.New(), UserID: "alice", TeamID: &winner}}, nil
		}

		resp, err := h.svc.EvaluateSpecialBet(context.Background(), EvaluateRequest{EventID: uuid.New()})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, apperr.CodeBadRequest, resp.Error.Code)
		assert.Empty(t, h.wagers.special.PointsSet)
	})

	t.Run("group stage without config fails with no wagers", func(t *testing.T) {
		h := newHarness()
		specialWith(h, groupBet, rule(predictiondomain.KindSpecial, "group_stage_team", 5))
		h.wagers.special.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.SpecialBetBet, error) {
			return nil, nil
		}

		for _, req := range []EvaluateRequest{
			{EventID: uuid.New()},
			{EventID: uuid.New(), UserID: ptr("dave")},
		} {
			resp, err := h.svc.EvaluateSpecialBet(context.Background(), req)
			require.NoError(t, err)
			assert.False(t, resp.Success)
			assert.Equal(t, apperr.CodeBadRequest, resp.Error.Code)
		}
		assert.NotContains(t, h.repo.Trace(), "MarkEvaluated")
		assert.NotContains(t, h.wagers.special.Trace(), "ListByEvent")
	})

	t.Run("exact team", func(t *testing.T) {
		h := newHarness()
		specialWith(h, predictiondb.SpecialBet{ResultTeamID: &winner}, rule(predictiondomain.KindSpecial, "exact_team", 12))
		h.wagers.special.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.SpecialBetBet, error) {
			return []predictiondb.SpecialBetBet{
				{ID: uuid.New(), UserID: "alice", TeamID: &winner},
				{ID: uuid.New(), UserID: "bob", TeamID: &runnerUp},
			}, nil
		}

		resp, err := h.svc.EvaluateSpecialBet(context.Background(), EvaluateRequest{EventID: uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, 12, resp.Results[0].TotalPoints)
		assert.Equal(t, 0, resp.Results[1].TotalPoints)
	})

	t.Run("inactive referenced rule", func(t *testing.T) {
		h := newHarness()
		inactive := rule(predictiondomain.KindSpecial, "exact_team", 12)
		inactive.IsActive = false
		specialWith(h, predictiondb.SpecialBet{ResultTeamID: &winner}, inactive)

		resp, err := h.svc.EvaluateSpecialBet(context.Background(), EvaluateRequest{EventID: uuid.New()})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error.Message, "No evaluator configured")
	})

	t.Run("result not set", func(t *testing.T) {
		h := newHarness()
		specialWith(h, predictiondb.SpecialBet{}, rule(predictiondomain.KindSpecial, "exact_team", 12))

		resp, err := h.svc.EvaluateSpecialBet(context.Background(), EvaluateRequest{EventID: uuid.New()})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error.Message, "result must be set")
	})
}

func TestEvaluateQuestion(t *testing.T) {
	leagueID := uuid.New()
	questionWith := func(h *harness, result *bool) {
		h.repo.GetQuestionFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*predictiondb.Question, error) {
			return &predictiondb.Question{ID: id, LeagueID: leagueID, Result: result}, nil
		}
	}

	t.Run("correct, wrong and empty answers", func(t *testing.T) {
		h := newHarness()
		questionWith(h, ptr(true))
		h.rules(rule(predictiondomain.KindQuestion, "question", 15))
		h.wagers.question.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.QuestionBet, error) {
			return []predictiondb.QuestionBet{
				{ID: uuid.New(), UserID: "alice", Prediction: ptr(true)},
				{ID: uuid.New(), UserID: "bob", Prediction: ptr(false)},
				{ID: uuid.New(), UserID: "carol", Prediction: nil},
			}, nil
		}

		resp, err := h.svc.EvaluateQuestion(context.Background(), EvaluateRequest{EventID: uuid.New()})
		require.NoError(t, err)
		require.Len(t, resp.Results, 3)

		assert.Equal(t, 15, resp.Results[0].TotalPoints)
		assert.Equal(t, ptr(true), resp.Results[0].IsCorrect)
		assert.Equal(t, -7, resp.Results[1].TotalPoints)
		assert.Equal(t, ptr(false), resp.Results[1].IsCorrect)
		assert.Equal(t, 0, resp.Results[2].TotalPoints)
		assert.Nil(t, resp.Results[2].IsCorrect)
	})

	t.Run("single user without a wager scores zero with unknown correctness", func(t *testing.T) {
		h := newHarness()
		questionWith(h, ptr(false))
		h.rules(rule(predictiondomain.KindQuestion, "question", 15))

		resp, err := h.svc.EvaluateQuestion(context.Background(), EvaluateRequest{EventID: uuid.New(), UserID: ptr("dave")})
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "dave", resp.Results[0].UserID)
		assert.Equal(t, 0, resp.Results[0].TotalPoints)
		assert.Nil(t, resp.Results[0].IsCorrect)
		assert.Empty(t, h.wagers.question.PointsSet)
		assert.NotContains(t, h.repo.Trace(), "MarkEvaluated")
	})

	t.Run("two question rules", func(t *testing.T) {
		h := newHarness()
		questionWith(h, ptr(true))
		h.rules(rule(predictiondomain.KindQuestion, "question", 15), rule(predictiondomain.KindQuestion, "question", 10))

		resp, err := h.svc.EvaluateQuestion(context.Background(), EvaluateRequest{EventID: uuid.New()})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error.Message, "Multiple evaluators")
	})

	t.Run("unanswered question", func(t *testing.T) {
		h := newHarness()
		questionWith(h, nil)
		h.rules(rule(predictiondomain.KindQuestion, "question", 15))

		resp, err := h.svc.EvaluateQuestion(context.Background(), EvaluateRequest{EventID: uuid.New()})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, apperr.CodeBadRequest, resp.Error.Code)
	})
}

func TestEvaluateAll(t *testing.T) {
	leagueID := uuid.New()
	done := uuid.New()
	pending := uuid.New()

	h := newHarness()
	h.repo.ListUnevaluatedEventIDsFunc = func(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, id uuid.UUID) ([]uuid.UUID, error) {
		return []uuid.UUID{done, pending}, nil
	}
	h.repo.GetMatchFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*predictiondb.Match, error) {
		m := &predictiondb.Match{ID: id, LeagueID: leagueID}
		if id == done {
			m.HomeRegularScore, m.AwayRegularScore = ptr(1), ptr(1)
			m.HomeFinalScore, m.AwayFinalScore = ptr(1), ptr(1)
		}
		return m, nil
	}
	h.rules(rule(predictiondomain.KindMatch, "winner", 3))
	h.wagers.match.ListByEventFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]predictiondb.MatchBet, error) {
		return matchWagers(userID), nil
	}

	summary, err := h.svc.EvaluateAll(context.Background(), leagueID, predictiondomain.KindMatch, "admin")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{done}, summary.Evaluated)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, pending, summary.Skipped[0].EventID)
	assert.Equal(t, 3, summary.TotalUsersEvaluated)

	t.Run("stops at the first storage error", func(t *testing.T) {
		h.wagers.match.SetPointsFunc = func(ctx context.Context, db bun.IDB, updates []predictiondb.PointsUpdate) error {
			return errors.New("connection lost")
		}
		summary, err := h.svc.EvaluateAll(context.Background(), leagueID, predictiondomain.KindMatch, "admin")
		require.Error(t, err)
		assert.Empty(t, summary.Evaluated)
		assert.Empty(t, summary.Skipped)
	})
}
