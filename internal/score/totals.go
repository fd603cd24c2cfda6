package score

import "fmt"

// RaterTotal is the unweighted arithmetic mean of one rater's scores.
// Criteria the rater has not touched are present in the map as 0 and count
// toward the denominator. An empty map yields 0.
func RaterTotal(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range scores {
		sum += Clamp(v)
	}
	return sum / float64(len(scores))
}

// GlobalTotal is the mean of per-rater totals: a mean of means, not a
// pooled mean. With raters carrying different numbers of scores the two
// disagree; the mean of means is the session's display rule.
func GlobalTotal(perRater []map[string]float64) float64 {
	if len(perRater) == 0 {
		return 0
	}
	sum := 0.0
	for _, scores := range perRater {
		sum += RaterTotal(scores)
	}
	return sum / float64(len(perRater))
}

// Display formats a total the way panels show it: one decimal place.
func Display(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// DisplayAverage formats evaluation-summary averages: two decimal places.
func DisplayAverage(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
