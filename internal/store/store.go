// Package store is the Postgres persistence layer. Every query runs through a
// statement prepared in package db; rows are scanned into the typed records of
// packages wellness and team and validated before they leave this package.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gloriosas/wellness/internal/notifications"
	"github.com/gloriosas/wellness/internal/team"
	"github.com/gloriosas/wellness/internal/wellness"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidRecord is returned when a stored row fails validation.
	ErrInvalidRecord = errors.New("store: invalid record")
)

// Store reads and writes the wellness database.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New wraps a pool whose connections carry the prepared statements.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// --------------------------------------------------------------------------
// Users
// --------------------------------------------------------------------------

// UsersByRole returns every user with role, tokens included.
func (s *Store) UsersByRole(ctx context.Context, role team.Role) ([]team.User, error) {
	rows, err := s.pool.Query(ctx, "users_by_role", string(role))
	if err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}
	defer rows.Close()

	var users []team.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			if errors.Is(err, ErrInvalidRecord) {
				s.logger.Warn("Skipping invalid user row", "error", err)
				continue
			}
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserByName looks a user up by display name.
func (s *Store) UserByName(ctx context.Context, name string) (*team.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, "user_by_name", name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserID resolves a display name to the stable user ID, or nil when the
// name is unknown.
func (s *Store) UserID(ctx context.Context, name string) (*uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, "user_id_by_name", name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", name, err)
	}
	return &id, nil
}

// RegisterToken creates or updates the user and moves token to them in one
// transaction. A token belongs to at most one user afterwards. An empty role
// keeps an existing user's role and makes new users players. It returns the
// user's id and effective role.
func (s *Store) RegisterToken(ctx context.Context, name string, role team.Role, token string) (uuid.UUID, team.Role, error) {
	var (
		id     uuid.UUID
		stored string
	)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, "user_upsert", name, string(role)).Scan(&id, &stored); err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		if _, err := tx.Exec(ctx, "device_upsert", token, id); err != nil {
			return fmt.Errorf("upsert device: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("register token for %q: %w", name, err)
	}
	return id, team.Role(stored), nil
}

// Preferences returns a user's notification preferences, or the defaults
// when none were saved.
func (s *Store) Preferences(ctx context.Context, name string) (team.Preferences, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, "user_preferences_get", name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return team.Preferences{}, ErrNotFound
	}
	if err != nil {
		return team.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	p, err := decodePreferences(raw)
	if err != nil {
		return team.Preferences{}, err
	}
	if p == nil {
		return team.DefaultPreferences(), nil
	}
	return *p, nil
}

// SetPreferences replaces a user's preferences after validating them.
func (s *Store) SetPreferences(ctx context.Context, name string, p team.Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	tag, err := s.pool.Exec(ctx, "user_preferences_set", name, raw)
	if err != nil {
		return fmt.Errorf("set preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (team.User, error) {
	var (
		u     team.User
		role  string
		prefs []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &role, &prefs, &u.Tokens); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return u, err
		}
		return u, fmt.Errorf("scan user: %w", err)
	}
	r, err := team.ParseRole(role)
	if err != nil {
		return u, fmt.Errorf("%w: user %s: %v", ErrInvalidRecord, u.ID, err)
	}
	u.Role = r
	p, err := decodePreferences(prefs)
	if err != nil {
		return u, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Preferences = p
	return u, nil
}

// decodePreferences returns nil for a NULL column.
func decodePreferences(raw []byte) (*team.Preferences, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	p := team.DefaultPreferences()
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: preferences: %v", ErrInvalidRecord, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: preferences: %v", ErrInvalidRecord, err)
	}
	return &p, nil
}

// --------------------------------------------------------------------------
// Submissions
// --------------------------------------------------------------------------

// InsertWellness persists a scored record. The insert trigger announces it on
// the wellness_created channel.
func (s *Store) InsertWellness(ctx context.Context, r *wellness.WellnessRecord) error {
	_, err := s.pool.Exec(ctx, "wellness_insert",
		r.ID, r.AthleteID, r.PlayerName,
		int16(r.Sleep), int16(r.Fatigue), int16(r.Soreness), int16(r.Stress), int16(r.Mood),
		string(r.Menstruation), r.Notes, r.Readiness, r.Timestamp)
	if err != nil {
		return fmt.Errorf("insert wellness: %w", err)
	}
	return nil
}

// InsertRPE persists an RPE record.
func (s *Store) InsertRPE(ctx context.Context, r *wellness.RPERecord) error {
	_, err := s.pool.Exec(ctx, "rpe_insert",
		r.ID, r.AthleteID, r.PlayerName, int16(r.Value), r.Notes, r.Timestamp)
	if err != nil {
		return fmt.Errorf("insert rpe: %w", err)
	}
	return nil
}

// WellnessByID loads one record. A row that fails validation returns
// ErrInvalidRecord.
func (s *Store) WellnessByID(ctx context.Context, id uuid.UUID) (wellness.WellnessRecord, error) {
	r, err := scanWellness(s.pool.QueryRow(ctx, "wellness_by_id", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, err
	}
	if err := r.Scores.Validate(); err != nil {
		return r, fmt.Errorf("%w: wellness %s: %v", ErrInvalidRecord, id, err)
	}
	return s.withMenstruation(r), nil
}

// WellnessBetween lists records with from <= timestamp < to, oldest first.
// Rows that fail validation are logged and skipped.
func (s *Store) WellnessBetween(ctx context.Context, from, to time.Time) ([]wellness.WellnessRecord, error) {
	rows, err := s.pool.Query(ctx, "wellness_between", from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list wellness: %w", err)
	}
	defer rows.Close()

	var out []wellness.WellnessRecord
	for rows.Next() {
		r, err := scanWellness(rows)
		if err != nil {
			return nil, err
		}
		if err := r.Scores.Validate(); err != nil {
			s.logger.Warn("Skipping invalid wellness row", "id", r.ID, "error", err)
			continue
		}
		out = append(out, s.withMenstruation(r))
	}
	return out, rows.Err()
}

// scanWellness reads one row, coercing the levels. The menstruation column is
// kept raw in Menstruation until withMenstruation parses it.
func scanWellness(row pgx.Row) (wellness.WellnessRecord, error) {
	var (
		r                 wellness.WellnessRecord
		sl, fa, so, st, m int16
		menstruation      string
	)
	if err := row.Scan(&r.ID, &r.AthleteID, &r.PlayerName,
		&sl, &fa, &so, &st, &m, &menstruation, &r.Notes, &r.Readiness, &r.Timestamp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan wellness: %w", err)
	}
	r.Scores = wellness.Scores{
		Sleep:    wellness.CoerceLevel(sl),
		Fatigue:  wellness.CoerceLevel(fa),
		Soreness: wellness.CoerceLevel(so),
		Stress:   wellness.CoerceLevel(st),
		Mood:     wellness.CoerceLevel(m),
	}
	r.Menstruation = wellness.Menstruation(menstruation)
	return r, nil
}

func (s *Store) withMenstruation(r wellness.WellnessRecord) wellness.WellnessRecord {
	m, err := wellness.ParseMenstruation(string(r.Menstruation))
	if err != nil {
		s.logger.Warn("Unknown menstruation status, treating as none", "id", r.ID, "value", r.Menstruation)
		m = wellness.MenstruationNone
	}
	r.Menstruation = m
	return r
}

// RPEBetween lists RPE records with from <= timestamp < to, oldest first.
func (s *Store) RPEBetween(ctx context.Context, from, to time.Time) ([]wellness.RPERecord, error) {
	rows, err := s.pool.Query(ctx, "rpe_between", from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list rpe: %w", err)
	}
	defer rows.Close()

	var out []wellness.RPERecord
	for rows.Next() {
		var (
			r     wellness.RPERecord
			value int16
		)
		if err := rows.Scan(&r.ID, &r.AthleteID, &r.PlayerName, &value, &r.Notes, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan rpe: %w", err)
		}
		r.Value = int(value)
		if r.Value < wellness.MinRPE || r.Value > wellness.MaxRPE {
			s.logger.Warn("Skipping invalid rpe row", "id", r.ID, "value", r.Value)
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SubmittedSince reports who logged kind at or after since.
func (s *Store) SubmittedSince(ctx context.Context, kind notifications.Kind, since time.Time) (*notifications.Submissions, error) {
	stmt := "wellness_submitters_since"
	if kind == notifications.KindRPE {
		stmt = "rpe_submitters_since"
	}
	rows, err := s.pool.Query(ctx, stmt, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("%s submitters: %w", kind, err)
	}
	defer rows.Close()

	subs := notifications.NewSubmissions()
	for rows.Next() {
		var (
			id   *uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan submitter: %w", err)
		}
		subs.Add(id, name)
	}
	return subs, rows.Err()
}

// --------------------------------------------------------------------------
// RPE targets
// --------------------------------------------------------------------------

// RPETarget returns the planned RPE for day, or the default when unset.
func (s *Store) RPETarget(ctx context.Context, day string) (team.RPETarget, error) {
	d, err := parseDay(day)
	if err != nil {
		return team.RPETarget{}, err
	}
	t := team.RPETarget{Date: day, Target: team.DefaultRPETarget}
	err = s.pool.QueryRow(ctx, "rpe_target_get", d).Scan(&t.Target)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("get rpe target: %w", err)
	}
	return t, nil
}

// SetRPETarget stores the planned RPE for a day.
func (s *Store) SetRPETarget(ctx context.Context, t team.RPETarget) error {
	if err := t.Validate(); err != nil {
		return err
	}
	d, _ := parseDay(t.Date)
	if _, err := s.pool.Exec(ctx, "rpe_target_set", d, t.Target); err != nil {
		return fmt.Errorf("set rpe target: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Calendar
// --------------------------------------------------------------------------

// EventsBetween lists events whose date lies in [from, to].
func (s *Store) EventsBetween(ctx context.Context, from, to string) ([]team.CalendarEvent, error) {
	f, err := parseDay(from)
	if err != nil {
		return nil, err
	}
	t, err := parseDay(to)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, "calendar_between", f, t)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []team.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Event returns one event.
func (s *Store) Event(ctx context.Context, id uuid.UUID) (team.CalendarEvent, error) {
	e, err := scanEvent(s.pool.QueryRow(ctx, "calendar_by_id", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

// CreateEvent validates and inserts e, returning it with its new ID.
func (s *Store) CreateEvent(ctx context.Context, e team.CalendarEvent) (team.CalendarEvent, error) {
	if err := e.Validate(); err != nil {
		return e, err
	}
	d, _ := parseDay(e.Date)
	err := s.pool.QueryRow(ctx, "calendar_insert",
		e.Title, d, e.StartTime, e.EndTime, e.Location, string(e.Type), e.Notes).Scan(&e.ID)
	if err != nil {
		return e, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

// UpdateEvent replaces every field of the event with e.ID.
func (s *Store) UpdateEvent(ctx context.Context, e team.CalendarEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	d, _ := parseDay(e.Date)
	tag, err := s.pool.Exec(ctx, "calendar_update",
		e.ID, e.Title, d, e.StartTime, e.EndTime, e.Location, string(e.Type), e.Notes)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "calendar_delete", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (team.CalendarEvent, error) {
	var (
		e   team.CalendarEvent
		typ string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Date, &e.StartTime, &e.EndTime, &e.Location, &typ, &e.Notes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan event: %w", err)
	}
	e.Type = team.EventType(typ)
	if _, ok := team.EventLabels[e.Type]; !ok {
		e.Type = team.EventOther
	}
	return e, nil
}

func parseDay(day string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", team.ErrInvalid, day)
	}
	return d, nil
}
