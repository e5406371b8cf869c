package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gloriosas/wellness/internal/notifications"
)

// Ledger is the durable reminder ledger backed by the reminder_ledger table.
type Ledger struct {
	pool *pgxpool.Pool
}

// NewLedger returns a ledger on pool.
func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Claim inserts the key; a conflicting row means another tick already sent it.
func (l *Ledger) Claim(ctx context.Context, key notifications.ReminderKey) (bool, error) {
	day, err := parseDay(key.Day)
	if err != nil {
		return false, err
	}
	tag, err := l.pool.Exec(ctx, "ledger_claim", day, int16(key.Hour), key.AthleteID, key.Kind)
	if err != nil {
		return false, fmt.Errorf("claim reminder %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Purge deletes claims recorded before the cutoff.
func (l *Ledger) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := l.pool.Exec(ctx, "ledger_purge", before)
	if err != nil {
		return 0, fmt.Errorf("purge reminder ledger: %w", err)
	}
	return tag.RowsAffected(), nil
}
