package wellness

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Level is a 1–10 wellness rating. The zero value means unset.
type Level int

const (
	LevelUnset Level = 0
	MinLevel   Level = 1
	MaxLevel   Level = 10
)

// Valid reports whether l lies on the 1–10 scale.
func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// CoerceLevel turns a loosely typed stored value into a Level.
//
// Numbers and numeric strings are floored and capped at MaxLevel, which keeps
// every integer threshold comparison identical to comparing the raw number.
// Anything else, including values below 1, becomes LevelUnset and never
// crosses a threshold.
func CoerceLevel(v any) Level {
	var f float64
	switch t := v.(type) {
	case nil:
		return LevelUnset
	case Level:
		f = float64(t)
	case int:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case float32:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return LevelUnset
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return LevelUnset
		}
		f = n
	default:
		return LevelUnset
	}

	if math.IsNaN(f) || f < float64(MinLevel) {
		return LevelUnset
	}
	if f > float64(MaxLevel) {
		return MaxLevel
	}
	return Level(math.Floor(f))
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (l *Level) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*l = CoerceLevel(v)
	return nil
}
