// Package evaluators holds the pure scoring rules that turn a recorded result
// and a member's prediction into points. Nothing here performs I/O.
package evaluators

import (
	"errors"
	"fmt"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
)

// Type is the closed set of scoring variants a league rule can select.
type Type string

const (
	ExactScore     Type = "exact_score"
	Winner         Type = "winner"
	GoalDifference Type = "goal_difference"
	TotalGoals     Type = "total_goals"
	OneTeamScore   Type = "one_team_score"
	Scorer         Type = "scorer"
	Overtime       Type = "overtime"

	SeriesExact     Type = "series_exact"
	SeriesWinner    Type = "series_winner"
	SeriesLoserWins Type = "series_loser_wins"

	ExactTeam      Type = "exact_team"
	ExactPlayer    Type = "exact_player"
	ExactValue     Type = "exact_value"
	ClosestValue   Type = "closest_value"
	GroupStageTeam Type = "group_stage_team"

	Question Type = "question"
)

var (
	// ErrUnknownType is returned for a rule whose stored name is not a known variant.
	ErrUnknownType = errors.New("unknown evaluator type")

	// ErrWrongKind is returned when a variant is dispatched for another event kind.
	ErrWrongKind = errors.New("evaluator type does not apply to this event kind")

	// ErrGroupStageConfigMissing is returned when group_stage_team lacks its point split.
	ErrGroupStageConfigMissing = errors.New("group stage evaluator requires winnerPoints and advancePoints")
)

var kindByType = map[Type]predictiondomain.EventKind{
	ExactScore:      predictiondomain.KindMatch,
	Winner:          predictiondomain.KindMatch,
	GoalDifference:  predictiondomain.KindMatch,
	TotalGoals:      predictiondomain.KindMatch,
	OneTeamScore:    predictiondomain.KindMatch,
	Scorer:          predictiondomain.KindMatch,
	Overtime:        predictiondomain.KindMatch,
	SeriesExact:     predictiondomain.KindSeries,
	SeriesWinner:    predictiondomain.KindSeries,
	SeriesLoserWins: predictiondomain.KindSeries,
	ExactTeam:       predictiondomain.KindSpecial,
	ExactPlayer:     predictiondomain.KindSpecial,
	ExactValue:      predictiondomain.KindSpecial,
	ClosestValue:    predictiondomain.KindSpecial,
	GroupStageTeam:  predictiondomain.KindSpecial,
	Question:        predictiondomain.KindQuestion,
}

// ParseType resolves a stored rule name. Only rule rows read from storage go
// through this path; code refers to the constants directly.
func ParseType(name string) (Type, error) {
	t := Type(name)
	if _, ok := kindByType[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}

// Kind reports which event kind the variant scores.
func (t Type) Kind() predictiondomain.EventKind {
	return kindByType[t]
}

func (t Type) String() string {
	return string(t)
}

// Award converts a boolean verdict into points.
func Award(correct bool, points int) int {
	if correct {
		return points
	}
	return 0
}
