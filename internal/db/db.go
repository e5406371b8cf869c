// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema migration and health checking.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gloriosas/wellness/internal/config"
)

//go:embed schema.sql
var schema string

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must already
// exist: statements are prepared against it on every new connection.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Migrate applies the embedded schema over a dedicated connection. It is
// idempotent and must run before New.
func Migrate(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect for migration: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

const userColumns = `u.id, u.name, u.role, u.preferences,
	COALESCE(array_agg(d.token ORDER BY d.updated_at) FILTER (WHERE d.token IS NOT NULL), '{}')`

const wellnessColumns = `id, athlete_id, player_name, sleep_quality, fatigue_level, muscle_soreness,
	stress_level, mood, menstruation_status, notes, readiness_score, timestamp_ms`

const rpeColumns = `id, athlete_id, player_name, rpe_value, notes, timestamp_ms`

const calendarColumns = `id, title, to_char(day, 'YYYY-MM-DD'), start_time, end_time, location, type, notes`

// registerPreparedStatements registers all statements the API, the
// notification triggers and the CLI use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Users and devices
		"users_by_role": "SELECT " + userColumns + ` FROM users u
			LEFT JOIN user_devices d ON d.user_id = u.id
			WHERE u.role = $1 GROUP BY u.id ORDER BY u.name`,
		"user_by_name": "SELECT " + userColumns + ` FROM users u
			LEFT JOIN user_devices d ON d.user_id = u.id
			WHERE u.name = $1 GROUP BY u.id`,
		// An empty role keeps the stored one; new users default to player.
		"user_upsert": `INSERT INTO users (name, role) VALUES ($1, COALESCE(NULLIF($2::text, ''), 'player'))
			ON CONFLICT (name) DO UPDATE
			SET role = COALESCE(NULLIF($2::text, ''), users.role), updated_at = now()
			RETURNING id, role`,
		"device_upsert": `INSERT INTO user_devices (token, user_id) VALUES ($1, $2)
			ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, updated_at = now()`,
		"user_preferences_get": "SELECT preferences FROM users WHERE name = $1",
		"user_preferences_set": "UPDATE users SET preferences = $2, updated_at = now() WHERE name = $1",
		"user_id_by_name":      "SELECT id FROM users WHERE name = $1",

		// Wellness
		"wellness_insert": "INSERT INTO wellness_logs (" + wellnessColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		"wellness_by_id": "SELECT " + wellnessColumns + " FROM wellness_logs WHERE id = $1",
		"wellness_between": "SELECT " + wellnessColumns + ` FROM wellness_logs
			WHERE timestamp_ms >= $1 AND timestamp_ms < $2 ORDER BY timestamp_ms`,
		"wellness_submitters_since": `SELECT DISTINCT athlete_id, player_name FROM wellness_logs
			WHERE timestamp_ms >= $1`,

		// RPE
		"rpe_insert": "INSERT INTO rpe_logs (" + rpeColumns + ") VALUES ($1, $2, $3, $4, $5, $6)",
		"rpe_between": "SELECT " + rpeColumns + ` FROM rpe_logs
			WHERE timestamp_ms >= $1 AND timestamp_ms < $2 ORDER BY timestamp_ms`,
		"rpe_submitters_since": "SELECT DISTINCT athlete_id, player_name FROM rpe_logs WHERE timestamp_ms >= $1",
		"rpe_target_get":       "SELECT target::float8 FROM rpe_targets WHERE day = $1",
		"rpe_target_set": `INSERT INTO rpe_targets (day, target) VALUES ($1, $2)
			ON CONFLICT (day) DO UPDATE SET target = EXCLUDED.target`,

		// Calendar
		"calendar_between": "SELECT " + calendarColumns + ` FROM calendar_events
			WHERE day BETWEEN $1 AND $2 ORDER BY day, start_time`,
		"calendar_by_id": "SELECT " + calendarColumns + " FROM calendar_events WHERE id = $1",
		"calendar_insert": `INSERT INTO calendar_events (title, day, start_time, end_time, location, type, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		"calendar_update": `UPDATE calendar_events SET title = $2, day = $3, start_time = $4,
			end_time = $5, location = $6, type = $7, notes = $8 WHERE id = $1`,
		"calendar_delete": "DELETE FROM calendar_events WHERE id = $1",

		// Reminder ledger
		"ledger_claim": `INSERT INTO reminder_ledger (day, hour, athlete_id, kind) VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING`,
		"ledger_purge": "DELETE FROM reminder_ledger WHERE sent_at < $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
