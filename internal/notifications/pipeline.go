package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gloriosas/wellness/internal/team"
	"github.com/gloriosas/wellness/internal/wellness"
)

// Directory lists users by role.
type Directory interface {
	UsersByRole(ctx context.Context, role team.Role) ([]team.User, error)
}

// SubmissionSource reports who submitted a kind since an instant.
type SubmissionSource interface {
	SubmittedSince(ctx context.Context, kind Kind, since time.Time) (*Submissions, error)
}

// Store is the data access the triggers need.
type Store interface {
	Directory
	SubmissionSource
}

// Config holds the team-level settings the triggers read.
type Config struct {
	Location *time.Location
	Roster   []string
}

// Service runs the notification triggers. Each call is independent: no state
// is shared between invocations beyond the ledger.
type Service struct {
	store  Store
	ledger Ledger
	pusher Pusher
	loc    *time.Location
	roster []string
	logger *slog.Logger
}

// NewService wires a Service. ledger may be nil to disable idempotency checks.
func NewService(store Store, ledger Ledger, pusher Pusher, cfg Config, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		store:  store,
		ledger: ledger,
		pusher: pusher,
		loc:    cfg.Location,
		roster: cfg.Roster,
		logger: logger,
	}
}

// Roster returns the configured athlete names.
func (s *Service) Roster() []string {
	return s.roster
}

// Location returns the team timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// --------------------------------------------------------------------------
// Event triggers
// --------------------------------------------------------------------------

// OnWellnessCreated alerts all staff when a new log is risky or carries a note.
func (s *Service) OnWellnessCreated(ctx context.Context, rec wellness.WellnessRecord) (Report, error) {
	s.logger.Info("Wellness received",
		"player", rec.PlayerName,
		"fatigue", rec.Fatigue, "sleep", rec.Sleep, "soreness", rec.Soreness,
		"stress", rec.Stress, "mood", rec.Mood)

	alert := wellness.RiskAlert(rec.PlayerName, rec.Scores, rec.Notes)
	if !alert.ShouldNotify {
		s.logger.Info("No risk detected", "player", rec.PlayerName)
		return Report{}, nil
	}

	staff, err := s.store.UsersByRole(ctx, team.RoleStaff)
	if err != nil {
		return Report{}, fmt.Errorf("list staff: %w", err)
	}
	tokens := tokensOf(staff, s.logger)
	if len(tokens) == 0 {
		s.logger.Error("Alert raised but no staff token found",
			"player", rec.PlayerName, "outcome", alert.Outcome.String())
		return Report{}, nil
	}

	msg := Message{
		Title: alert.Title,
		Body:  alert.Body,
		Data: map[string]string{
			"record_id":   rec.ID.String(),
			"player_name": rec.PlayerName,
			"outcome":     alert.Outcome.String(),
		},
	}
	return dispatch(ctx, s.pusher, s.logger, "risk_alert", msg, tokens), nil
}

// OnCalendarChanged notifies calendar-enabled players of salient changes.
func (s *Service) OnCalendarChanged(ctx context.Context, change CalendarChange) (Report, error) {
	msg, ok := CalendarNotice(change)
	if !ok {
		s.logger.Debug("Calendar change not salient", "op", change.Op)
		return Report{}, nil
	}

	players, err := s.store.UsersByRole(ctx, team.RolePlayer)
	if err != nil {
		return Report{}, fmt.Errorf("list players: %w", err)
	}
	var subscribed []team.User
	for _, p := range players {
		if p.Preferences != nil && p.Preferences.CalendarEnabled {
			subscribed = append(subscribed, p)
		}
	}
	return dispatch(ctx, s.pusher, s.logger, "calendar_change", msg, tokensOf(subscribed, s.logger)), nil
}

// --------------------------------------------------------------------------
// Clock triggers
// --------------------------------------------------------------------------

// HourlyResult summarizes one hourly reminder tick.
type HourlyResult struct {
	Tick     Tick
	Due      Due
	Wellness Report
	RPE      Report
}

// RunHourly sends the scheduled wellness and RPE reminders owed at now.
func (s *Service) RunHourly(ctx context.Context, now time.Time) (HourlyResult, error) {
	tick := TickAt(now, s.loc)
	result := HourlyResult{Tick: tick}

	players, err := s.store.UsersByRole(ctx, team.RolePlayer)
	if err != nil {
		return result, fmt.Errorf("list players: %w", err)
	}
	since := StartOfDay(now, s.loc)
	wellnessDone, err := s.store.SubmittedSince(ctx, KindWellness, since)
	if err != nil {
		return result, fmt.Errorf("wellness submissions: %w", err)
	}
	rpeDone, err := s.store.SubmittedSince(ctx, KindRPE, since)
	if err != nil {
		return result, fmt.Errorf("rpe submissions: %w", err)
	}

	result.Due = DueReminders(tick, players, wellnessDone, rpeDone)
	s.logger.Info("Hourly reminders evaluated",
		"day", tick.Day, "slot", tick.Slot(),
		"wellness_due", len(result.Due.Wellness), "rpe_due", len(result.Due.RPE))

	wTokens := s.claim(ctx, tick, string(KindWellness), result.Due.Wellness)
	rTokens := s.claim(ctx, tick, string(KindRPE), result.Due.RPE)

	result.Wellness = dispatch(ctx, s.pusher, s.logger, "wellness_reminder", msgWellnessReminder, wTokens)
	result.RPE = dispatch(ctx, s.pusher, s.logger, "rpe_reminder", msgRPEReminder, rTokens)
	return result, nil
}

// RunDailyReminder reminds every player who has not logged wellness today.
func (s *Service) RunDailyReminder(ctx context.Context, now time.Time) (Report, error) {
	tick := TickAt(now, s.loc)

	players, err := s.store.UsersByRole(ctx, team.RolePlayer)
	if err != nil {
		return Report{}, fmt.Errorf("list players: %w", err)
	}
	done, err := s.store.SubmittedSince(ctx, KindWellness, StartOfDay(now, s.loc))
	if err != nil {
		return Report{}, fmt.Errorf("wellness submissions: %w", err)
	}

	var pending []Recipient
	for _, p := range players {
		if done.HasUser(p) || !p.HasTokens() {
			continue
		}
		pending = append(pending, Recipient{AthleteID: p.ID, Name: p.Name, Tokens: p.Tokens})
	}

	tokens := s.claim(ctx, tick, "daily_wellness", pending)
	return dispatch(ctx, s.pusher, s.logger, "daily_reminder", msgDailyReminder, tokens), nil
}

// MissingResult summarizes a staff missing report.
type MissingResult struct {
	Missing []string
	Body    string
	Report  Report
}

// RunMissingReport tells staff which roster athletes have not logged wellness.
func (s *Service) RunMissingReport(ctx context.Context, now time.Time) (MissingResult, error) {
	var result MissingResult
	if len(s.roster) == 0 {
		s.logger.Warn("Missing report skipped: no roster configured")
		return result, nil
	}

	done, err := s.store.SubmittedSince(ctx, KindWellness, StartOfDay(now, s.loc))
	if err != nil {
		return result, fmt.Errorf("wellness submissions: %w", err)
	}
	result.Missing = Missing(s.roster, done)
	result.Body = MissingMessage(result.Missing)
	if len(result.Missing) == 0 {
		s.logger.Info("Everyone has submitted wellness", "roster", len(s.roster))
		return result, nil
	}

	staff, err := s.store.UsersByRole(ctx, team.RoleStaff)
	if err != nil {
		return result, fmt.Errorf("list staff: %w", err)
	}

	// Claim only once the recipients are known, so a failed lookup can be retried.
	tick := TickAt(now, s.loc)
	if !s.claimOne(ctx, ReminderKey{Day: tick.Day, Hour: tick.Hour, AthleteID: uuid.Nil, Kind: "missing_report"}) {
		return result, nil
	}
	msg := Message{Title: titleMissingReport, Body: result.Body}
	result.Report = dispatch(ctx, s.pusher, s.logger, "missing_report", msg, tokensOf(staff, s.logger))
	return result, nil
}

// PurgeLedger drops ledger entries older than retention.
func (s *Service) PurgeLedger(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	if s.ledger == nil {
		return 0, nil
	}
	return s.ledger.Purge(ctx, now.Add(-retention))
}

// --------------------------------------------------------------------------
// Ledger helpers
// --------------------------------------------------------------------------

// claim returns the tokens of recipients whose reminder has not been sent yet
// at this tick. A ledger error skips the athlete: a missed reminder is
// preferred over a duplicate.
func (s *Service) claim(ctx context.Context, tick Tick, kind string, recipients []Recipient) []string {
	var tokens []string
	for _, r := range recipients {
		key := ReminderKey{Day: tick.Day, Hour: tick.Hour, AthleteID: r.AthleteID, Kind: kind}
		if !s.claimOne(ctx, key) {
			continue
		}
		tokens = append(tokens, r.Tokens...)
	}
	return tokens
}

func (s *Service) claimOne(ctx context.Context, key ReminderKey) bool {
	if s.ledger == nil {
		return true
	}
	ok, err := s.ledger.Claim(ctx, key)
	if err != nil {
		s.logger.Warn("Reminder ledger unavailable, skipping", "key", key.String(), "error", err)
		return false
	}
	if !ok {
		s.logger.Debug("Reminder already sent", "key", key.String())
	}
	return ok
}
