package evaluators

import (
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ExactMultiplier is awarded to a closest_value prediction that hits the result.
	ExactMultiplier = decimal.NewFromInt(1)
	// ClosestMultiplier is awarded to every prediction at the minimum non-zero distance.
	ClosestMultiplier = decimal.RequireFromString("0.33")
)

// SpecialValue is the single field a special bet is decided on. Exactly one
// member is set on a well-formed prediction or result.
type SpecialValue struct {
	TeamID   *uuid.UUID
	PlayerID *uuid.UUID
	Value    *decimal.Decimal
}

// SpecialContext is the input of the boolean special-bet variants.
type SpecialContext struct {
	Prediction SpecialValue
	Result     SpecialValue
}

// EvaluateSpecial dispatches the boolean special-bet variants. closest_value
// and group_stage_team need more than one wager or a config and have their own
// functions.
func EvaluateSpecial(t Type, c SpecialContext) (bool, error) {
	p, r := c.Prediction, c.Result
	switch t {
	case ExactTeam:
		return equalID(p.TeamID, r.TeamID), nil
	case ExactPlayer:
		return equalID(p.PlayerID, r.PlayerID), nil
	case ExactValue:
		return p.Value != nil && r.Value != nil && p.Value.Equal(*r.Value), nil
	}
	return false, wrongKind(t)
}

func equalID(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}

// ClosestValueMultipliers scores every prediction on one event against actual.
// The result is index-aligned with predictions; a nil prediction scores zero.
// An exact hit earns ExactMultiplier; when nobody hit, all predictions at the
// minimum distance earn ClosestMultiplier each.
func ClosestValueMultipliers(actual decimal.Decimal, predictions []*decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(predictions))
	distances := make([]*decimal.Decimal, len(predictions))

	var best *decimal.Decimal
	for i, p := range predictions {
		out[i] = decimal.Zero
		if p == nil {
			continue
		}
		d := p.Sub(actual).Abs()
		distances[i] = &d
		if best == nil || d.LessThan(*best) {
			best = &d
		}
	}
	if best == nil {
		return out
	}

	for i, d := range distances {
		switch {
		case d == nil:
		case d.IsZero():
			out[i] = ExactMultiplier
		case !best.IsZero() && d.Equal(*best):
			out[i] = ClosestMultiplier
		}
	}
	return out
}

// MultipliedPoints returns round(multiplier * points), halves away from zero.
func MultipliedPoints(multiplier decimal.Decimal, points int) int {
	return int(multiplier.Mul(decimal.NewFromInt(int64(points))).Round(0).IntPart())
}

// GroupStageConfig is the winner/advance split carried by a group_stage_team rule.
type GroupStageConfig struct {
	WinnerPoints  *int
	AdvancePoints *int
}

// Validate reports ErrGroupStageConfigMissing unless both point values are set.
func (c GroupStageConfig) Validate() error {
	if c.WinnerPoints == nil || c.AdvancePoints == nil {
		return ErrGroupStageConfigMissing
	}
	return nil
}

// GroupStageTeamPoints scores a predicted group winner. A pick that names the
// recorded winner earns WinnerPoints; a pick in the advancing set earns
// AdvancePoints.
func GroupStageTeamPoints(predicted *uuid.UUID, winner uuid.UUID, advancing []uuid.UUID, cfg GroupStageConfig) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	switch {
	case predicted == nil:
		return 0, nil
	case *predicted == winner:
		return *cfg.WinnerPoints, nil
	case slices.Contains(advancing, *predicted):
		return *cfg.AdvancePoints, nil
	}
	return 0, nil
}
