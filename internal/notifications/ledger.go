package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger records which reminders have been sent so overlapping or retried
// ticks cannot notify twice. Claim returns true only for the first caller.
type Ledger interface {
	Claim(ctx context.Context, key ReminderKey) (bool, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// --------------------------------------------------------------------------
// Redis ledger
// --------------------------------------------------------------------------

// RedisLedger stores claims as SETNX keys that expire after the retention
// window.
type RedisLedger struct {
	client    *redis.Client
	retention time.Duration
	prefix    string
}

// NewRedisLedger connects to url (redis://...) and verifies it with PING.
func NewRedisLedger(ctx context.Context, url string, retention time.Duration) (*RedisLedger, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisLedger{client: client, retention: retention, prefix: "reminder:"}, nil
}

// Claim sets the key only if absent.
func (l *RedisLedger) Claim(ctx context.Context, key ReminderKey) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key.String(), time.Now().Unix(), l.retention).Result()
	if err != nil {
		return false, fmt.Errorf("claim reminder %s: %w", key, err)
	}
	return ok, nil
}

// Purge is a no-op; keys expire on their own.
func (l *RedisLedger) Purge(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// Close releases the connection pool.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}

// String renders the key as day/hour/athlete/kind.
func (k ReminderKey) String() string {
	return fmt.Sprintf("%s/%02d/%s/%s", k.Day, k.Hour, k.AthleteID, k.Kind)
}

// --------------------------------------------------------------------------
// In-memory ledger
// --------------------------------------------------------------------------

// MemoryLedger keeps claims in process memory. Claims are lost on restart.
type MemoryLedger struct {
	mu     sync.Mutex
	claims map[ReminderKey]time.Time
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claims: make(map[ReminderKey]time.Time)}
}

func (l *MemoryLedger) Claim(_ context.Context, key ReminderKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.claims[key]; ok {
		return false, nil
	}
	l.claims[key] = time.Now()
	return true, nil
}

func (l *MemoryLedger) Purge(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for k, at := range l.claims {
		if at.Before(before) {
			delete(l.claims, k)
			n++
		}
	}
	return n, nil
}
