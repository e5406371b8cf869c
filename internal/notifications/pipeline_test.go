package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gloriosas/wellness/internal/team"
	"github.com/gloriosas/wellness/internal/wellness"
)

func newTestService(store *fakeStore, ledger Ledger, pusher Pusher, roster ...string) *Service {
	return NewService(store, ledger, pusher, Config{Location: madrid(), Roster: roster}, discardLogger())
}

func riskyRecord(t *testing.T, name, notes string) wellness.WellnessRecord {
	t.Helper()
	rec, err := wellness.NewWellnessRecord(name, nil, wellness.Scores{
		Sleep: 4, Fatigue: 9, Soreness: 5, Stress: 3, Mood: 3,
	}, wellness.MenstruationNone, notes, time.Now())
	require.NoError(t, err)
	return *rec
}

// --------------------------------------------------------------------------
// Risk alert
// --------------------------------------------------------------------------

func TestOnWellnessCreated_AlertsDeduplicatedStaffTokens(t *testing.T) {
	store := &fakeStore{users: []team.User{
		staff("Coach", "s1", "s2"),
		staff("Physio", "s2", "s3"),
		staff("Analyst"),
		player("Ana", nil, "p1"),
	}}
	pusher := &fakePusher{}
	svc := newTestService(store, NewMemoryLedger(), pusher)

	report, err := svc.OnWellnessCreated(context.Background(), riskyRecord(t, "Ana", ""))
	require.NoError(t, err)

	require.Len(t, pusher.sends, 1)
	sent := pusher.sends[0]
	assert.ElementsMatch(t, []string{"s1", "s2", "s3"}, sent.tokens)
	assert.Equal(t, "⚠️ Alerta de Wellness", sent.msg.Title)
	assert.Equal(t, "Ana ha reportado valores altos. Revisa el dashboard.", sent.msg.Body)
	assert.Equal(t, "risk", sent.msg.Data["outcome"])
	assert.Equal(t, 3, report.Success)
}

func TestOnWellnessCreated_NoteWithoutRisk(t *testing.T) {
	store := &fakeStore{users: []team.User{staff("Coach", "s1")}}
	pusher := &fakePusher{}
	svc := newTestService(store, nil, pusher)

	rec, err := wellness.NewWellnessRecord("Bea", nil, wellness.Scores{
		Sleep: 2, Fatigue: 2, Soreness: 2, Stress: 2, Mood: 2,
	}, wellness.MenstruationPMS, "me duele el tobillo", time.Now())
	require.NoError(t, err)

	_, err = svc.OnWellnessCreated(context.Background(), *rec)
	require.NoError(t, err)
	require.Len(t, pusher.sends, 1)
	assert.Equal(t, "note", pusher.sends[0].msg.Data["outcome"])
}

func TestOnWellnessCreated_NoRiskNoSend(t *testing.T) {
	store := &fakeStore{users: []team.User{staff("Coach", "s1")}}
	pusher := &fakePusher{}
	svc := newTestService(store, nil, pusher)

	rec, err := wellness.NewWellnessRecord("Bea", nil, wellness.Scores{
		Sleep: 7, Fatigue: 7, Soreness: 7, Stress: 7, Mood: 7,
	}, "", "", time.Now())
	require.NoError(t, err)

	_, err = svc.OnWellnessCreated(context.Background(), *rec)
	require.NoError(t, err)
	assert.Empty(t, pusher.sends)
}

func TestOnWellnessCreated_NoStaffTokens(t *testing.T) {
	store := &fakeStore{users: []team.User{staff("Coach")}}
	pusher := &fakePusher{}
	svc := newTestService(store, nil, pusher)

	report, err := svc.OnWellnessCreated(context.Background(), riskyRecord(t, "Ana", ""))
	require.NoError(t, err)
	assert.Empty(t, pusher.sends)
	assert.Zero(t, report.Tokens)
}

func TestOnWellnessCreated_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc := newTestService(store, nil, &fakePusher{})

	_, err := svc.OnWellnessCreated(context.Background(), riskyRecord(t, "Ana", ""))
	assert.Error(t, err)
}

func TestOnWellnessCreated_PushFailureIsReported(t *testing.T) {
	store := &fakeStore{users: []team.User{staff("Coach", "s1", "s2")}}
	pusher := &fakePusher{err: errors.New("fcm unavailable")}
	svc := newTestService(store, nil, pusher)

	report, err := svc.OnWellnessCreated(context.Background(), riskyRecord(t, "Ana", ""))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failure)
	assert.ElementsMatch(t, []string{"s1", "s2"}, report.Failed)
}

// --------------------------------------------------------------------------
// Calendar
// --------------------------------------------------------------------------

func TestOnCalendarChanged_OnlySubscribedPlayers(t *testing.T) {
	subscribed := team.DefaultPreferences()
	subscribed.CalendarEnabled = true
	muted := team.DefaultPreferences()

	store := &fakeStore{users: []team.User{
		player("Ana", &subscribed, "a1"),
		player("Bea", &muted, "b1"),
		player("Carla", nil, "c1"),
		staff("Coach", "s1"),
	}}
	pusher := &fakePusher{}
	svc := newTestService(store, nil, pusher)

	e := sampleEvent()
	_, err := svc.OnCalendarChanged(context.Background(), CalendarChange{Op: OpInsert, New: &e})
	require.NoError(t, err)

	require.Len(t, pusher.sends, 1)
	assert.Equal(t, []string{"a1"}, pusher.sends[0].tokens)

	notesOnly := e
	notesOnly.Notes = "cambio menor"
	_, err = svc.OnCalendarChanged(context.Background(), CalendarChange{Op: OpUpdate, Old: &e, New: &notesOnly})
	require.NoError(t, err)
	assert.Len(t, pusher.sends, 1)
}

// --------------------------------------------------------------------------
// Clock triggers
// --------------------------------------------------------------------------

func TestRunHourly_LedgerPreventsDoubleSend(t *testing.T) {
	loc := madrid()
	now := time.Date(2026, 3, 2, 9, 0, 5, 0, loc) // Monday

	ana := player("Ana", prefsAt(time.Monday, "09:00", "09:00"), "ana-phone", "ana-tablet")
	bea := player("Bea", prefsAt(time.Monday, "09:00", team.Disabled), "bea-phone")
	store := &fakeStore{
		users: []team.User{ana, bea},
		submitted: map[Kind][]submission{
			KindWellness: {{id: &bea.ID, name: "Bea", at: now.Add(-time.Hour)}},
		},
	}
	pusher := &fakePusher{}
	svc := newTestService(store, NewMemoryLedger(), pusher)

	first, err := svc.RunHourly(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "09:00", first.Tick.Slot())
	require.Len(t, first.Due.Wellness, 1)
	assert.Equal(t, "Ana", first.Due.Wellness[0].Name)
	assert.Equal(t, 2, first.Wellness.Success)
	assert.Equal(t, 2, first.RPE.Success)

	second, err := svc.RunHourly(context.Background(), now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Len(t, second.Due.Wellness, 1)
	assert.Zero(t, second.Wellness.Tokens)
	assert.Zero(t, second.RPE.Tokens)
	assert.Len(t, pusher.sends, 2)
}

func TestRunHourly_YesterdaysSubmissionDoesNotCount(t *testing.T) {
	loc := madrid()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)
	ana := player("Ana", prefsAt(time.Monday, "09:00", team.Disabled), "ana-phone")
	store := &fakeStore{
		users: []team.User{ana},
		submitted: map[Kind][]submission{
			KindWellness: {{name: "Ana", at: now.Add(-12 * time.Hour)}},
		},
	}
	svc := newTestService(store, nil, &fakePusher{})

	result, err := svc.RunHourly(context.Background(), now)
	require.NoError(t, err)
	assert.Len(t, result.Due.Wellness, 1)
}

func TestRunHourly_LedgerErrorSkips(t *testing.T) {
	loc := madrid()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)
	store := &fakeStore{users: []team.User{
		player("Ana", prefsAt(time.Monday, "09:00", "09:00"), "ana-phone"),
	}}
	pusher := &fakePusher{}
	svc := newTestService(store, failingLedger{}, pusher)

	result, err := svc.RunHourly(context.Background(), now)
	require.NoError(t, err)
	assert.Len(t, result.Due.Wellness, 1)
	assert.Empty(t, pusher.sends)
}

func TestRunDailyReminder(t *testing.T) {
	loc := madrid()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)

	ana := player("Ana", nil, "a1")
	bea := player("Bea", nil, "b1")
	store := &fakeStore{
		users: []team.User{ana, bea, player("Carla", nil), staff("Coach", "s1")},
		submitted: map[Kind][]submission{
			KindWellness: {{id: &bea.ID, name: "Bea", at: now.Add(-time.Hour)}},
		},
	}
	pusher := &fakePusher{}
	svc := newTestService(store, NewMemoryLedger(), pusher)

	_, err := svc.RunDailyReminder(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, pusher.sends, 1)
	assert.Equal(t, []string{"a1"}, pusher.sends[0].tokens)
	assert.Equal(t, "¡Buenos días, Gloriosa!", pusher.sends[0].msg.Title)

	_, err = svc.RunDailyReminder(context.Background(), now)
	require.NoError(t, err)
	assert.Len(t, pusher.sends, 1)
}

func TestRunMissingReport(t *testing.T) {
	loc := madrid()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, loc)
	store := &fakeStore{
		users: []team.User{staff("Coach", "s1"), staff("Physio", "s1", "s2")},
		submitted: map[Kind][]submission{
			KindWellness: {
				{name: "A", at: now.Add(-2 * time.Hour)},
				{name: "C", at: now.Add(-time.Hour)},
			},
		},
	}
	pusher := &fakePusher{}
	svc := newTestService(store, NewMemoryLedger(), pusher, "A", "B", "C", "D")

	result, err := svc.RunMissingReport(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D"}, result.Missing)
	assert.Equal(t, "Faltan: B, D", result.Body)

	require.Len(t, pusher.sends, 1)
	assert.Equal(t, "📋 Wellness pendiente", pusher.sends[0].msg.Title)
	assert.Equal(t, "Faltan: B, D", pusher.sends[0].msg.Body)
	assert.ElementsMatch(t, []string{"s1", "s2"}, pusher.sends[0].tokens)

	again, err := svc.RunMissingReport(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D"}, again.Missing)
	assert.Len(t, pusher.sends, 1)
}

func TestRunMissingReport_StaffLookupFailureLeavesSlotOpen(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, madrid())
	store := &fakeStore{
		users:     []team.User{staff("Coach", "s1")},
		submitted: map[Kind][]submission{KindWellness: {{name: "A", at: now}}},
		usersErr:  errors.New("connection reset"),
	}
	pusher := &fakePusher{}
	svc := newTestService(store, NewMemoryLedger(), pusher, "A", "B")

	_, err := svc.RunMissingReport(context.Background(), now)
	require.Error(t, err)
	assert.Empty(t, pusher.sends)

	store.usersErr = nil
	result, err := svc.RunMissingReport(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, result.Missing)
	require.Len(t, pusher.sends, 1)
	assert.Equal(t, []string{"s1"}, pusher.sends[0].tokens)
}

func TestRunMissingReport_EveryoneSubmitted(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, madrid())
	store := &fakeStore{
		users: []team.User{staff("Coach", "s1")},
		submitted: map[Kind][]submission{
			KindWellness: {{name: "A", at: now}},
		},
	}
	pusher := &fakePusher{}
	svc := newTestService(store, nil, pusher, "A")

	result, err := svc.RunMissingReport(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, result.Missing)
	assert.Empty(t, pusher.sends)
}

func TestRunMissingReport_NoRoster(t *testing.T) {
	pusher := &fakePusher{}
	svc := newTestService(&fakeStore{}, nil, pusher)

	result, err := svc.RunMissingReport(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, result.Missing)
	assert.Empty(t, pusher.sends)
}

// --------------------------------------------------------------------------
// Ledger
// --------------------------------------------------------------------------

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	key := ReminderKey{Day: "2026-03-02", Hour: 9, Kind: "wellness"}

	ok, err := l.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Claim(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	other := key
	other.Hour = 10
	ok, _ = l.Claim(ctx, other)
	assert.True(t, ok)

	n, err := l.Purge(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ok, _ = l.Claim(ctx, key)
	assert.True(t, ok)
}

func TestReminderKeyString(t *testing.T) {
	key := ReminderKey{Day: "2026-03-02", Hour: 9, Kind: "rpe"}
	assert.Equal(t, "2026-03-02/09/00000000-0000-0000-0000-000000000000/rpe", key.String())
}
