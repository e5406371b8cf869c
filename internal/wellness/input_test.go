package wellness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreInput(t *testing.T) {
	var in ScoreInput
	require.NoError(t, json.Unmarshal([]byte(
		`{"sleepQuality":4,"fatigueLevel":9,"muscleSoreness":5,"stressLevel":3,"mood":3}`), &in))

	s, err := in.Scores()
	require.NoError(t, err)
	assert.Equal(t, Scores{Sleep: 4, Fatigue: 9, Soreness: 5, Stress: 3, Mood: 3}, s)
}

func TestScoreInput_Rejects(t *testing.T) {
	cases := map[string]struct {
		body string
		want error
	}{
		"missing mood": {`{"sleepQuality":4,"fatigueLevel":9,"muscleSoreness":5,"stressLevel":3}`, ErrIncomplete},
		"zero":         {`{"sleepQuality":0,"fatigueLevel":9,"muscleSoreness":5,"stressLevel":3,"mood":3}`, ErrOutOfRange},
		"eleven":       {`{"sleepQuality":4,"fatigueLevel":11,"muscleSoreness":5,"stressLevel":3,"mood":3}`, ErrOutOfRange},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var in ScoreInput
			require.NoError(t, json.Unmarshal([]byte(tc.body), &in))
			_, err := in.Scores()
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
