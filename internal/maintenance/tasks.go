package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gloriosas/wellness/internal/notifications"
)

// Task names a clock trigger. The CLI runs them by name for manual backfills.
type Task string

const (
	TaskHourly        Task = "hourly"
	TaskDailyReminder Task = "daily"
	TaskMissingReport Task = "missing"
	TaskCleanup       Task = "cleanup"
)

// AllTasks lists every task in run order.
var AllTasks = []Task{TaskHourly, TaskDailyReminder, TaskMissingReport, TaskCleanup}

// ParseTask validates a task name.
func ParseTask(s string) (Task, error) {
	for _, t := range AllTasks {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown task %q", s)
}

// Run executes one task as of now and logs its outcome and duration.
func Run(ctx context.Context, tasks Tasks, task Task, now time.Time, cfg Config, logger *slog.Logger) error {
	start := time.Now()
	var (
		attrs []any
		err   error
	)

	switch task {
	case TaskHourly:
		var r notifications.HourlyResult
		r, err = tasks.RunHourly(ctx, now)
		attrs = []any{"slot", r.Tick.Slot(),
			"wellness_due", len(r.Due.Wellness), "rpe_due", len(r.Due.RPE),
			"sent", r.Wellness.Success + r.RPE.Success}
	case TaskDailyReminder:
		var r notifications.Report
		r, err = tasks.RunDailyReminder(ctx, now)
		attrs = []any{"tokens", r.Tokens, "sent", r.Success}
	case TaskMissingReport:
		var r notifications.MissingResult
		r, err = tasks.RunMissingReport(ctx, now)
		attrs = []any{"missing", len(r.Missing), "sent", r.Report.Success}
	case TaskCleanup:
		var n int64
		n, err = tasks.PurgeLedger(ctx, now, cfg.LedgerRetention)
		attrs = []any{"purged", n}
	default:
		return fmt.Errorf("unknown task %q", task)
	}

	dur := time.Since(start).Round(time.Millisecond)
	if err != nil {
		logger.Warn("Scheduled task failed", "task", string(task), "duration", dur, "error", err)
		return fmt.Errorf("%s: %w", task, err)
	}
	logger.Info("Scheduled task done", append([]any{"task", string(task), "duration", dur}, attrs...)...)
	return nil
}
