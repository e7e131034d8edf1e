package evaluators

import (
	"slices"

	"github.com/google/uuid"
)

// Score is a home/away pair of goals or series wins.
type Score struct {
	Home int
	Away int
}

// Outcome is the side that won, or a draw.
type Outcome int

const (
	Draw Outcome = iota
	HomeWin
	AwayWin
)

// Outcome returns the winning side of the score.
func (s Score) Outcome() Outcome {
	switch {
	case s.Home > s.Away:
		return HomeWin
	case s.Away > s.Home:
		return AwayWin
	default:
		return Draw
	}
}

// MatchPrediction is a member's pick for one match.
type MatchPrediction struct {
	Score    Score
	ScorerID *uuid.UUID
	Overtime bool
}

// MatchResult is the recorded outcome; Score is the final score.
type MatchResult struct {
	Score      Score
	ScorerIDs  []uuid.UUID
	IsOvertime bool
	IsShootout bool
}

// MatchContext is the input of every match variant.
type MatchContext struct {
	Prediction MatchPrediction
	Result     MatchResult
}

// EvaluateMatch dispatches a match variant.
func EvaluateMatch(t Type, c MatchContext) (bool, error) {
	p, r := c.Prediction, c.Result
	switch t {
	case ExactScore:
		return p.Score == r.Score, nil
	case Winner:
		return p.Score.Outcome() == r.Score.Outcome(), nil
	case GoalDifference:
		return p.Score.Home-p.Score.Away == r.Score.Home-r.Score.Away, nil
	case TotalGoals:
		return p.Score.Home+p.Score.Away == r.Score.Home+r.Score.Away, nil
	case OneTeamScore:
		return p.Score.Home == r.Score.Home || p.Score.Away == r.Score.Away, nil
	case Scorer:
		return p.ScorerID != nil && slices.Contains(r.ScorerIDs, *p.ScorerID), nil
	case Overtime:
		return p.Overtime == (r.IsOvertime || r.IsShootout), nil
	}
	return false, wrongKind(t)
}

func wrongKind(t Type) error {
	if _, ok := kindByType[t]; !ok {
		return ErrUnknownType
	}
	return ErrWrongKind
}
