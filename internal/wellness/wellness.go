// Package wellness holds the typed athlete submissions and the pure decision
// logic applied to them: the readiness score, the ready/warning/risk status
// and the staff risk alert.
//
// All five wellness levels share one convention: 1 is best, 10 is worst.
// Both the scorer and the risk detector read them that way.
package wellness

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrIncomplete is returned when a required level is missing.
	ErrIncomplete = errors.New("wellness: incomplete input")

	// ErrOutOfRange is returned when a submitted value is outside its scale.
	ErrOutOfRange = errors.New("wellness: value out of range")
)

// --------------------------------------------------------------------------
// Menstruation status
// --------------------------------------------------------------------------

// Menstruation is the cycle phase reported alongside a wellness log.
type Menstruation string

const (
	MenstruationNone   Menstruation = "none"
	MenstruationActive Menstruation = "active"
	MenstruationPMS    Menstruation = "pms"
)

// ParseMenstruation maps a stored or submitted value to the enum.
// Empty means none.
func ParseMenstruation(s string) (Menstruation, error) {
	switch m := Menstruation(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MenstruationNone, nil
	case MenstruationNone, MenstruationActive, MenstruationPMS:
		return m, nil
	default:
		return "", fmt.Errorf("%w: menstruation status %q", ErrOutOfRange, s)
	}
}

// --------------------------------------------------------------------------
// Records
// --------------------------------------------------------------------------

// Scores are the five subjective wellness levels.
type Scores struct {
	Sleep    Level `json:"sleepQuality"`
	Fatigue  Level `json:"fatigueLevel"`
	Soreness Level `json:"muscleSoreness"`
	Stress   Level `json:"stressLevel"`
	Mood     Level `json:"mood"`
}

// Validate reports ErrIncomplete if any level is unset.
func (s Scores) Validate() error {
	fields := []struct {
		name string
		v    Level
	}{
		{"sleepQuality", s.Sleep},
		{"fatigueLevel", s.Fatigue},
		{"muscleSoreness", s.Soreness},
		{"stressLevel", s.Stress},
		{"mood", s.Mood},
	}
	for _, f := range fields {
		if !f.v.Valid() {
			return fmt.Errorf("%w: %s", ErrIncomplete, f.name)
		}
	}
	return nil
}

// WellnessRecord is one athlete's daily wellness submission.
type WellnessRecord struct {
	ID           uuid.UUID    `json:"id"`
	AthleteID    *uuid.UUID   `json:"athleteId,omitempty"`
	PlayerName   string       `json:"playerName"`
	Scores
	Menstruation Menstruation `json:"menstruationStatus"`
	Notes        string       `json:"notes,omitempty"`
	Readiness    float64      `json:"readinessScore"`
	Timestamp    int64        `json:"timestamp"` // epoch milliseconds
}

// MaxNotesLength caps free-text notes, in characters.
const MaxNotesLength = 1000

func checkNotes(notes string) error {
	if n := utf8.RuneCountInString(notes); n > MaxNotesLength {
		return fmt.Errorf("%w: notes has %d characters, max %d", ErrOutOfRange, n, MaxNotesLength)
	}
	return nil
}

// SubmittedAt returns the record's creation time in loc.
func (r WellnessRecord) SubmittedAt(loc *time.Location) time.Time {
	return time.UnixMilli(r.Timestamp).In(loc)
}

// NewWellnessRecord validates the scores, computes the readiness score and
// stamps the record with now.
func NewWellnessRecord(playerName string, athleteID *uuid.UUID, s Scores, m Menstruation, notes string, now time.Time) (*WellnessRecord, error) {
	if strings.TrimSpace(playerName) == "" {
		return nil, fmt.Errorf("%w: playerName", ErrIncomplete)
	}
	readiness, err := Readiness(s)
	if err != nil {
		return nil, err
	}
	if err := checkNotes(notes); err != nil {
		return nil, err
	}
	if m == "" {
		m = MenstruationNone
	}
	return &WellnessRecord{
		ID:           uuid.New(),
		AthleteID:    athleteID,
		PlayerName:   playerName,
		Scores:       s,
		Menstruation: m,
		Notes:        notes,
		Readiness:    readiness,
		Timestamp:    now.UnixMilli(),
	}, nil
}

// RPE scale bounds. 0 is a rest day, 10 maximal effort.
const (
	MinRPE = 0
	MaxRPE = 10
)

// RPERecord is one athlete's post-session exertion rating.
type RPERecord struct {
	ID         uuid.UUID  `json:"id"`
	AthleteID  *uuid.UUID `json:"athleteId,omitempty"`
	PlayerName string     `json:"playerName"`
	Value      int        `json:"rpeValue"`
	Notes      string     `json:"notes,omitempty"`
	Timestamp  int64      `json:"timestamp"`
}

// SubmittedAt returns the record's creation time in loc.
func (r RPERecord) SubmittedAt(loc *time.Location) time.Time {
	return time.UnixMilli(r.Timestamp).In(loc)
}

// NewRPERecord validates the value and stamps the record with now.
func NewRPERecord(playerName string, athleteID *uuid.UUID, value int, notes string, now time.Time) (*RPERecord, error) {
	if strings.TrimSpace(playerName) == "" {
		return nil, fmt.Errorf("%w: playerName", ErrIncomplete)
	}
	if value < MinRPE || value > MaxRPE {
		return nil, fmt.Errorf("%w: rpeValue %d", ErrOutOfRange, value)
	}
	if err := checkNotes(notes); err != nil {
		return nil, err
	}
	return &RPERecord{
		ID:         uuid.New(),
		AthleteID:  athleteID,
		PlayerName: playerName,
		Value:      value,
		Notes:      notes,
		Timestamp:  now.UnixMilli(),
	}, nil
}

// --------------------------------------------------------------------------
// Late submissions
// --------------------------------------------------------------------------

const (
	wellnessLateHour = 12
	rpeLateHour      = 22
)

// IsLateWellness reports whether a wellness log arrived at or after noon local time.
func IsLateWellness(submitted time.Time) bool {
	return submitted.Hour() >= wellnessLateHour
}

// IsLateRPE reports whether an RPE log arrived at or after 22:00 local time.
func IsLateRPE(submitted time.Time) bool {
	return submitted.Hour() >= rpeLateHour
}
