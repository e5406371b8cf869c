package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gloriosas/wellness/internal/team"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore serves users and submissions from memory.
type fakeStore struct {
	users     []team.User
	submitted map[Kind][]submission
	err       error
	usersErr  error // fails UsersByRole only
}

type submission struct {
	id   *uuid.UUID
	name string
	at   time.Time
}

func (f *fakeStore) UsersByRole(_ context.Context, role team.Role) ([]team.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	var out []team.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeStore) SubmittedSince(_ context.Context, kind Kind, since time.Time) (*Submissions, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := NewSubmissions()
	for _, sub := range f.submitted[kind] {
		if !sub.at.Before(since) {
			s.Add(sub.id, sub.name)
		}
	}
	return s, nil
}

// fakePusher records every multicast.
type fakePusher struct {
	mu    sync.Mutex
	sends []sentPush
	err   error
}

type sentPush struct {
	tokens []string
	msg    Message
}

func (p *fakePusher) SendMulti(_ context.Context, tokens []string, msg Message) (Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sends = append(p.sends, sentPush{tokens: append([]string(nil), tokens...), msg: msg})
	if p.err != nil {
		return Report{}, p.err
	}
	return Report{Tokens: len(tokens), Success: len(tokens)}, nil
}

// failingLedger always errors.
type failingLedger struct{}

func (failingLedger) Claim(context.Context, ReminderKey) (bool, error) {
	return false, errors.New("ledger down")
}

func (failingLedger) Purge(context.Context, time.Time) (int64, error) { return 0, nil }

func madrid() *time.Location {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		return time.FixedZone("CET", 3600)
	}
	return loc
}

func player(name string, prefs *team.Preferences, tokens ...string) team.User {
	return team.User{ID: uuid.New(), Name: name, Role: team.RolePlayer, Tokens: tokens, Preferences: prefs}
}

func staff(name string, tokens ...string) team.User {
	return team.User{ID: uuid.New(), Name: name, Role: team.RoleStaff, Tokens: tokens}
}

func prefsAt(weekday time.Weekday, wellnessSlot, rpeSlot string) *team.Preferences {
	p := team.DefaultPreferences()
	setSlot(&p.Wellness, weekday, wellnessSlot)
	setSlot(&p.RPE, weekday, rpeSlot)
	return &p
}

func setSlot(w *team.WeeklySchedule, d time.Weekday, v string) {
	switch d {
	case time.Monday:
		w.Monday = v
	case time.Tuesday:
		w.Tuesday = v
	case time.Wednesday:
		w.Wednesday = v
	case time.Thursday:
		w.Thursday = v
	case time.Friday:
		w.Friday = v
	case time.Saturday:
		w.Saturday = v
	default:
		w.Sunday = v
	}
}
