// Package team defines the people and shared team resources the service
// works with: users and their notification preferences, calendar events and
// the staff's planned RPE per day.
package team

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrInvalid is returned when a user-supplied value fails validation.
var ErrInvalid = errors.New("team: invalid value")

// --------------------------------------------------------------------------
// Users
// --------------------------------------------------------------------------

// Role distinguishes athletes from coaching staff.
type Role string

const (
	RolePlayer Role = "player"
	RoleStaff  Role = "staff"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RolePlayer, RoleStaff:
		return r, nil
	default:
		return "", fmt.Errorf("%w: role %q", ErrInvalid, s)
	}
}

// User is an athlete or staff member. ID is stable; Name is a mutable
// display attribute.
type User struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Role        Role         `json:"role"`
	Tokens      []string     `json:"fcmTokens"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// HasTokens reports whether the user can receive a push.
func (u User) HasTokens() bool {
	return len(u.Tokens) > 0
}

// --------------------------------------------------------------------------
// Notification preferences
// --------------------------------------------------------------------------

// Disabled marks a weekday without a reminder.
const Disabled = "disabled"

var hourSlot = regexp.MustCompile(`^([01][0-9]|2[0-3]):00$`)

// WeeklySchedule maps each weekday to "disabled" or an "HH:00" slot.
type WeeklySchedule struct {
	Monday    string `json:"monday"`
	Tuesday   string `json:"tuesday"`
	Wednesday string `json:"wednesday"`
	Thursday  string `json:"thursday"`
	Friday    string `json:"friday"`
	Saturday  string `json:"saturday"`
	Sunday    string `json:"sunday"`
}

// DefaultSchedule has every day disabled.
func DefaultSchedule() WeeklySchedule {
	return WeeklySchedule{
		Monday: Disabled, Tuesday: Disabled, Wednesday: Disabled, Thursday: Disabled,
		Friday: Disabled, Saturday: Disabled, Sunday: Disabled,
	}
}

// On returns the slot configured for d.
func (w WeeklySchedule) On(d time.Weekday) string {
	switch d {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	default:
		return w.Sunday
	}
}

// Validate checks every slot. Empty slots are treated as disabled.
func (w WeeklySchedule) Validate() error {
	for _, d := range []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	} {
		v := w.On(d)
		if v == "" || v == Disabled || hourSlot.MatchString(v) {
			continue
		}
		return fmt.Errorf("%w: %s slot %q", ErrInvalid, strings.ToLower(d.String()), v)
	}
	return nil
}

// Preferences is a user's reminder configuration.
type Preferences struct {
	Wellness        WeeklySchedule `json:"wellness"`
	RPE             WeeklySchedule `json:"rpe"`
	CalendarEnabled bool           `json:"calendarEnabled"`
}

// DefaultPreferences disables every reminder.
func DefaultPreferences() Preferences {
	return Preferences{Wellness: DefaultSchedule(), RPE: DefaultSchedule()}
}

// Validate checks both schedules.
func (p Preferences) Validate() error {
	if err := p.Wellness.Validate(); err != nil {
		return fmt.Errorf("wellness: %w", err)
	}
	if err := p.RPE.Validate(); err != nil {
		return fmt.Errorf("rpe: %w", err)
	}
	return nil
}

// HourSlot formats an hour the way schedules store it.
func HourSlot(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// --------------------------------------------------------------------------
// Calendar
// --------------------------------------------------------------------------

// EventType is the kind of calendar activity.
type EventType string

const (
	EventCitation EventType = "citation"
	EventGym      EventType = "gym"
	EventSession  EventType = "session"
	EventVideo    EventType = "video"
	EventMatch    EventType = "match"
	EventOther    EventType = "other"
)

// EventLabels are the display labels used in notifications.
var EventLabels = map[EventType]string{
	EventCitation: "CITACIÓN",
	EventGym:      "GYM",
	EventSession:  "SESIÓN",
	EventVideo:    "VÍDEO",
	EventMatch:    "PARTIDO",
	EventOther:    "OTRO",
}

// Text limits, in characters.
const (
	MaxTitleLength    = 120
	MaxLocationLength = 120
	MaxNotesLength    = 1000
)

var clock = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// CalendarEvent is one team activity.
type CalendarEvent struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`      // YYYY-MM-DD
	StartTime string    `json:"startTime"` // HH:MM
	EndTime   string    `json:"endTime"`   // HH:MM
	Location  string    `json:"location"`
	Type      EventType `json:"type"`
	Notes     string    `json:"notes,omitempty"`
}

// Validate checks required fields and formats.
func (e CalendarEvent) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if _, err := time.Parse(time.DateOnly, e.Date); err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalid, e.Date)
	}
	if !clock.MatchString(e.StartTime) {
		return fmt.Errorf("%w: startTime %q", ErrInvalid, e.StartTime)
	}
	if e.EndTime != "" && !clock.MatchString(e.EndTime) {
		return fmt.Errorf("%w: endTime %q", ErrInvalid, e.EndTime)
	}
	if _, ok := EventLabels[e.Type]; !ok {
		return fmt.Errorf("%w: type %q", ErrInvalid, e.Type)
	}
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"title", e.Title, MaxTitleLength},
		{"location", e.Location, MaxLocationLength},
		{"notes", e.Notes, MaxNotesLength},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			return fmt.Errorf("%w: %s longer than %d characters", ErrInvalid, f.name, f.max)
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// RPE targets
// --------------------------------------------------------------------------

// DefaultRPETarget is the planned exertion when staff have not set one.
const DefaultRPETarget = 5.0

// RPETarget is the staff-planned exertion for a day.
type RPETarget struct {
	Date   string  `json:"date"`
	Target float64 `json:"target"`
}

// Validate checks the target is on the 0–10 scale.
func (t RPETarget) Validate() error {
	if _, err := time.Parse(time.DateOnly, t.Date); err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalid, t.Date)
	}
	if t.Target < 0 || t.Target > 10 {
		return fmt.Errorf("%w: target %.1f", ErrInvalid, t.Target)
	}
	return nil
}
