package evaluators

// SeriesContext compares predicted and recorded series win counts.
type SeriesContext struct {
	Prediction Score
	Result     Score
}

// EvaluateSeries dispatches a series variant.
func EvaluateSeries(t Type, c SeriesContext) (bool, error) {
	p, r := c.Prediction, c.Result
	switch t {
	case SeriesExact:
		return p == r, nil
	case SeriesWinner:
		return p.Outcome() != Draw && p.Outcome() == r.Outcome(), nil
	case SeriesLoserWins:
		if p.Outcome() == Draw || p.Outcome() != r.Outcome() {
			return false, nil
		}
		return loserWins(p) == loserWins(r), nil
	}
	return false, wrongKind(t)
}

func loserWins(s Score) int {
	return min(s.Home, s.Away)
}
