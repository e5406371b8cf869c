// Package notifications decides who gets a push and what it says.
//
// Triggers: a new wellness log (staff risk alert), a calendar change (player
// notice), and clock ticks (hourly scheduled reminders, the daily athlete
// reminder and the staff missing report). Every trigger resolves recipient
// device tokens, deduplicates them and hands one multicast to the Pusher.
// Delivery is best-effort: failures are logged, never retried.
package notifications

import (
	"time"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	fcmMulticastLimit = 500
	pushSendTimeout   = 30 * time.Second
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Kind is a submission type athletes are reminded about.
type Kind string

const (
	KindWellness Kind = "wellness"
	KindRPE      Kind = "rpe"
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindWellness, KindRPE:
		return k, true
	default:
		return "", false
	}
}

// Message is the payload of one multicast push.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Report is the push sender's outcome for one multicast.
type Report struct {
	Tokens  int
	Success int
	Failure int
	Failed  []string
}

// Add merges other into r.
func (r *Report) Add(other Report) {
	r.Tokens += other.Tokens
	r.Success += other.Success
	r.Failure += other.Failure
	r.Failed = append(r.Failed, other.Failed...)
}

// ReminderKey identifies one reminder delivery for idempotency.
// AthleteID is uuid.Nil for team-wide notices such as the missing report.
type ReminderKey struct {
	Day       string // YYYY-MM-DD in the team timezone
	Hour      int
	AthleteID uuid.UUID
	Kind      string
}

// --------------------------------------------------------------------------
// Copy
// --------------------------------------------------------------------------

var (
	msgDailyReminder = Message{
		Title: "¡Buenos días, Gloriosa!",
		Body:  "No olvides registrar tu Wellness antes del entrenamiento 📝",
	}
	msgWellnessReminder = Message{
		Title: "⏰ Hora del Wellness",
		Body:  "Tienes pendiente el Wellness de hoy. ¡Solo te lleva un minuto! 📝",
	}
	msgRPEReminder = Message{
		Title: "⏰ Hora del RPE",
		Body:  "¿Qué tal la sesión? Registra tu RPE de hoy 💪",
	}
)

const titleMissingReport = "📋 Wellness pendiente"

// StartOfDay returns local midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}
