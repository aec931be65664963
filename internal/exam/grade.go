package exam

import "math"

// band is one step of the monotonic grade ladder. Thresholds are the
// minimum fraction of the maximum total score required for the label.
type band struct {
	threshold float64
	label     string
}

var gradeBands = []band{
	{0.90, "A*"},
	{0.80, "A"},
	{0.70, "B"},
	{0.60, "C"},
	{0.50, "D"},
	{0.40, "E"},
}

// Overall normalizes a score total onto the 0-10 scale, rounded to one
// decimal place. The scale is independent of how many examiners produced
// the total, so catalog size can change without moving the goalposts.
func Overall(totalScore, maxTotalScore float64) float64 {
	if maxTotalScore <= 0 {
		return 0
	}
	return math.Round(totalScore/maxTotalScore*100) / 10
}

// Band maps a score total onto its letter grade.
func Band(totalScore, maxTotalScore float64) string {
	if maxTotalScore <= 0 {
		return "U"
	}
	fraction := totalScore / maxTotalScore
	for _, b := range gradeBands {
		if fraction >= b.threshold {
			return b.label
		}
	}
	return "U"
}

// Clamp bounds a score into [0, max]. Upstream replies are never trusted
// to stay in range.
func Clamp(score, max float64) float64 {
	if score < 0 {
		return 0
	}
	if score > max {
		return max
	}
	return score
}
