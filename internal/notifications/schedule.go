package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/gloriosas/wellness/internal/team"
)

// Tick is one hourly evaluation point in the team timezone.
type Tick struct {
	Day     string // YYYY-MM-DD
	Weekday time.Weekday
	Hour    int
}

// TickAt places now on the team's civil clock.
func TickAt(now time.Time, loc *time.Location) Tick {
	l := now.In(loc)
	return Tick{
		Day:     l.Format(time.DateOnly),
		Weekday: l.Weekday(),
		Hour:    l.Hour(),
	}
}

// Slot is the schedule value that matches this tick, e.g. "09:00".
func (t Tick) Slot() string {
	return team.HourSlot(t.Hour)
}

// Recipient is an athlete owed a reminder.
type Recipient struct {
	AthleteID uuid.UUID
	Name      string
	Tokens    []string
}

// Due lists the athletes owed each reminder at a tick.
type Due struct {
	Wellness []Recipient
	RPE      []Recipient
}

// DueReminders applies the hourly rule to every athlete: a reminder of a kind
// is due when that kind's schedule for the weekday equals the tick's "HH:00"
// slot and the athlete has not submitted that kind today. Athletes without
// preferences or tokens are skipped.
//
// The result depends only on its inputs; idempotence across repeated ticks is
// the ledger's job.
func DueReminders(tick Tick, athletes []team.User, wellnessDone, rpeDone *Submissions) Due {
	var due Due
	slot := tick.Slot()

	for _, a := range athletes {
		if a.Preferences == nil || !a.HasTokens() {
			continue
		}
		r := Recipient{AthleteID: a.ID, Name: a.Name, Tokens: a.Tokens}

		if a.Preferences.Wellness.On(tick.Weekday) == slot && !wellnessDone.HasUser(a) {
			due.Wellness = append(due.Wellness, r)
		}
		if a.Preferences.RPE.On(tick.Weekday) == slot && !rpeDone.HasUser(a) {
			due.RPE = append(due.RPE, r)
		}
	}
	return due
}

// NextTopOfHour returns the next instant at minute 0 strictly after now.
func NextTopOfHour(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}

// NextDailyAt returns the next instant strictly after now at hour:00 local time.
func NextDailyAt(now time.Time, hour int, loc *time.Location) time.Time {
	l := now.In(loc)
	next := time.Date(l.Year(), l.Month(), l.Day(), hour, 0, 0, 0, loc)
	if !next.After(l) {
		next = time.Date(l.Year(), l.Month(), l.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}
