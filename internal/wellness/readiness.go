package wellness

import "math"

// Readiness weights. They sum to 1.0.
const (
	weightSleep    = 0.25
	weightFatigue  = 0.25
	weightSoreness = 0.15
	weightStress   = 0.20
	weightMood     = 0.15
)

// Status thresholds.
const (
	riskThreshold      Level   = 8
	warningThreshold   Level   = 6
	warningReadinessLT float64 = 5
)

// Status is the three-level readiness classification shown to staff.
type Status string

const (
	StatusReady   Status = "ready"
	StatusWarning Status = "warning"
	StatusRisk    Status = "risk"
)

// Readiness computes the weighted readiness score, rounded to one decimal.
// Every level is inverted as 11-level, so the result runs from 1.0 (all tens)
// to 10.0 (all ones). Missing levels are rejected with ErrIncomplete, never
// imputed.
//
// The same function computes the stored score at submission and the score
// shown on the dashboard.
func Readiness(s Scores) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	raw := weightSleep*invert(s.Sleep) +
		weightFatigue*invert(s.Fatigue) +
		weightSoreness*invert(s.Soreness) +
		weightStress*invert(s.Stress) +
		weightMood*invert(s.Mood)
	return math.Round(raw*10) / 10, nil
}

func invert(l Level) float64 {
	return float64(11 - l)
}

// Classify returns risk when any level reaches 8, warning when fatigue or
// sleep reaches 6 or readiness drops below 5, and ready otherwise.
func Classify(s Scores, readiness float64) Status {
	if anyAtLeast(s, riskThreshold) {
		return StatusRisk
	}
	if s.Fatigue >= warningThreshold || s.Sleep >= warningThreshold || readiness < warningReadinessLT {
		return StatusWarning
	}
	return StatusReady
}

func anyAtLeast(s Scores, threshold Level) bool {
	return s.Fatigue >= threshold ||
		s.Sleep >= threshold ||
		s.Soreness >= threshold ||
		s.Stress >= threshold ||
		s.Mood >= threshold
}
