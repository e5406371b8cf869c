package wellness

import "fmt"

// ScoreInput is the strict submission form of Scores. Unlike stored rows,
// submitted levels are never coerced: a missing level is ErrIncomplete and a
// level outside 1..10 is ErrOutOfRange.
type ScoreInput struct {
	Sleep    *int `json:"sleepQuality"`
	Fatigue  *int `json:"fatigueLevel"`
	Soreness *int `json:"muscleSoreness"`
	Stress   *int `json:"stressLevel"`
	Mood     *int `json:"mood"`
}

// Scores validates every level and returns the typed scores.
func (in ScoreInput) Scores() (Scores, error) {
	var s Scores
	fields := []struct {
		name string
		v    *int
		dst  *Level
	}{
		{"sleepQuality", in.Sleep, &s.Sleep},
		{"fatigueLevel", in.Fatigue, &s.Fatigue},
		{"muscleSoreness", in.Soreness, &s.Soreness},
		{"stressLevel", in.Stress, &s.Stress},
		{"mood", in.Mood, &s.Mood},
	}
	for _, f := range fields {
		if f.v == nil {
			return Scores{}, fmt.Errorf("%w: %s", ErrIncomplete, f.name)
		}
		if *f.v < int(MinLevel) || *f.v > int(MaxLevel) {
			return Scores{}, fmt.Errorf("%w: %s %d", ErrOutOfRange, f.name, *f.v)
		}
		*f.dst = Level(*f.v)
	}
	return s, nil
}
