package predictionservice

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tipping-league/prediction-core/app/shared/apperr"
)

// MatchBetPayload is a member's score prediction for a match.
type MatchBetPayload struct {
	MatchID   uuid.UUID  `json:"matchId" validate:"required"`
	HomeScore *int       `json:"homeScore" validate:"required,min=0,max=99"`
	AwayScore *int       `json:"awayScore" validate:"required,min=0,max=99"`
	ScorerID  *uuid.UUID `json:"scorerId,omitempty"`
	Overtime  bool       `json:"overtime"`
}

// SeriesBetPayload is a member's win-count prediction for a best-of-N series.
// BestOf is the series format the member saw when predicting.
type SeriesBetPayload struct {
	SeriesID      uuid.UUID `json:"seriesId" validate:"required"`
	BestOf        int       `json:"bestOf" validate:"required,min=1,max=15"`
	HomeTeamScore *int      `json:"homeTeamScore" validate:"required,min=0"`
	AwayTeamScore *int      `json:"awayTeamScore" validate:"required,min=0"`
}

// SpecialBetPayload is a member's pick for a special bet. Exactly one of
// TeamID, PlayerID and Value must be set.
type SpecialBetPayload struct {
	SpecialBetID uuid.UUID        `json:"specialBetId" validate:"required"`
	TeamID       *uuid.UUID       `json:"teamId,omitempty"`
	PlayerID     *uuid.UUID       `json:"playerId,omitempty"`
	Value        *decimal.Decimal `json:"value,omitempty"`
}

// QuestionBetPayload is a member's yes/no answer.
type QuestionBetPayload struct {
	QuestionID uuid.UUID `json:"questionId" validate:"required"`
	Prediction *bool     `json:"prediction" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateSeriesBet, SeriesBetPayload{})
	v.RegisterStructValidation(validateSpecialBet, SpecialBetPayload{})
	return v
}

// SeriesWinThreshold is the number of wins that decides a best-of-N series.
func SeriesWinThreshold(bestOf int) int {
	return (bestOf + 1) / 2
}

func validateSeriesBet(sl validator.StructLevel) {
	p := sl.Current().Interface().(SeriesBetPayload)
	if p.HomeTeamScore == nil || p.AwayTeamScore == nil || p.BestOf < 1 {
		return
	}
	home, away := *p.HomeTeamScore, *p.AwayTeamScore
	if home > p.BestOf {
		sl.ReportError(p.HomeTeamScore, "homeTeamScore", "HomeTeamScore", "lte_best_of", "")
	}
	if away > p.BestOf {
		sl.ReportError(p.AwayTeamScore, "awayTeamScore", "AwayTeamScore", "lte_best_of", "")
	}

	threshold := SeriesWinThreshold(p.BestOf)
	switch {
	case home < threshold && away < threshold:
		sl.ReportError(p.HomeTeamScore, "homeTeamScore", "HomeTeamScore", "series_decided", "")
	case home >= threshold && away >= threshold:
		sl.ReportError(p.HomeTeamScore, "homeTeamScore", "HomeTeamScore", "series_single_winner", "")
	case home+away > p.BestOf:
		sl.ReportError(p.HomeTeamScore, "homeTeamScore", "HomeTeamScore", "series_games", "")
	}
}

func validateSpecialBet(sl validator.StructLevel) {
	p := sl.Current().Interface().(SpecialBetPayload)
	set := 0
	if p.TeamID != nil {
		set++
	}
	if p.PlayerID != nil {
		set++
	}
	if p.Value != nil {
		set++
	}
	if set != 1 {
		sl.ReportError(p.TeamID, "teamId", "TeamID", "exactly_one_pick", "")
	}
}

var tagMessages = map[string]string{
	"required":             "is required",
	"min":                  "is below the minimum",
	"max":                  "is above the maximum",
	"lte_best_of":          "cannot exceed the series length",
	"series_decided":       "one side must reach the series win threshold",
	"series_single_winner": "only one side can win the series",
	"series_games":         "more games than the series allows",
	"exactly_one_pick":     "exactly one of team, player or value must be set",
}

// validationFailure converts a validator error into a VALIDATION_ERROR.
func validationFailure(err error) *apperr.Error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Validation("Invalid prediction", err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "failed " + fe.Tag()
		}
		parts = append(parts, fmt.Sprintf("%s %s", fe.Field(), msg))
	}
	return apperr.Validation(strings.Join(parts, "; "), err)
}
