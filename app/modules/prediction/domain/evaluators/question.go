package evaluators

// QuestionPoints scores a yes/no answer. A correct answer earns points, a
// wrong one loses floor(points/2), and a missing answer scores zero with a nil
// verdict so callers can tell "no answer" from "wrong".
func QuestionPoints(prediction *bool, result bool, points int) (int, *bool) {
	if prediction == nil {
		return 0, nil
	}
	correct := *prediction == result
	if correct {
		return points, &correct
	}
	return -floorHalf(points), &correct
}

func floorHalf(n int) int {
	if n < 0 && n%2 != 0 {
		return n/2 - 1
	}
	return n / 2
}
