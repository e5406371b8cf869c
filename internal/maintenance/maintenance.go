// Package maintenance runs the clock-driven notification triggers in-process.
// All scheduled work is driven from Go since the API is already a persistent,
// long-running service (required for LISTEN/NOTIFY).
//
// Unlike fixed-interval tickers, reminder tasks are aligned to the wall clock
// in the team timezone: the hourly check fires at minute 0, the daily
// reminder and the missing report at their configured local hour.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/gloriosas/wellness/internal/notifications"
)

// Tasks is the trigger surface the scheduler drives. *notifications.Service
// satisfies it.
type Tasks interface {
	RunHourly(ctx context.Context, now time.Time) (notifications.HourlyResult, error)
	RunDailyReminder(ctx context.Context, now time.Time) (notifications.Report, error)
	RunMissingReport(ctx context.Context, now time.Time) (notifications.MissingResult, error)
	PurgeLedger(ctx context.Context, now time.Time, retention time.Duration) (int64, error)
}

// Config controls when each task fires. A negative hour or a zero interval
// disables a task.
type Config struct {
	Location          *time.Location
	HourlyEnabled     bool
	DailyReminderHour int
	MissingReportHour int
	CleanupInterval   time.Duration
	LedgerRetention   time.Duration
}

// DefaultConfig returns production defaults for loc.
func DefaultConfig(loc *time.Location) Config {
	return Config{
		Location:          loc,
		HourlyEnabled:     true,
		DailyReminderHour: 10,
		MissingReportHour: 12,
		CleanupInterval:   6 * time.Hour,
		LedgerRetention:   14 * 24 * time.Hour,
	}
}

// Start launches every enabled task. Blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, tasks Tasks, cfg Config, logger *slog.Logger) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger.Info("Maintenance scheduler started",
		"timezone", loc.String(),
		"hourly", cfg.HourlyEnabled,
		"daily_reminder_hour", cfg.DailyReminderHour,
		"missing_report_hour", cfg.MissingReportHour,
		"cleanup", cfg.CleanupInterval)

	run := func(task Task) func(time.Time) {
		return func(now time.Time) {
			_ = Run(ctx, tasks, task, now, cfg, logger)
		}
	}

	if cfg.HourlyEnabled {
		go runAligned(ctx, notifications.NextTopOfHour, run(TaskHourly))
	}
	if cfg.DailyReminderHour >= 0 {
		next := func(now time.Time) time.Time { return notifications.NextDailyAt(now, cfg.DailyReminderHour, loc) }
		go runAligned(ctx, next, run(TaskDailyReminder))
	}
	if cfg.MissingReportHour >= 0 {
		next := func(now time.Time) time.Time { return notifications.NextDailyAt(now, cfg.MissingReportHour, loc) }
		go runAligned(ctx, next, run(TaskMissingReport))
	}
	if cfg.CleanupInterval > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		defer t.Stop()
		go runLoop(ctx, t.C, run(TaskCleanup))
	}

	<-ctx.Done()
	logger.Info("Maintenance scheduler stopped")
}

// runAligned sleeps until next(now), runs fn with the wake-up time, and
// repeats. Each wake-up recomputes its target, so DST shifts and slow runs
// never accumulate drift.
func runAligned(ctx context.Context, next func(time.Time) time.Time, fn func(time.Time)) {
	for {
		wait := time.Until(next(time.Now()))
		timer := time.NewTimer(wait)
		select {
		case now := <-timer.C:
			fn(now)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func(time.Time)) {
	for {
		select {
		case now := <-ch:
			fn(now)
		case <-ctx.Done():
			return
		}
	}
}
