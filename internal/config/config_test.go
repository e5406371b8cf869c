package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/wellness")
	for _, k := range []string{"TIMEZONE", "ROSTER", "DAILY_REMINDER_HOUR", "MISSING_REPORT_HOUR", "REDIS_URL", "AUTO_MIGRATE", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	assert.Equal(t, 10, cfg.DailyReminderHour)
	assert.Equal(t, 12, cfg.MissingReportHour)
	assert.Equal(t, 14, cfg.LedgerRetentionDays)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.Roster)
	assert.Equal(t, "Europe/Madrid", cfg.Location().String())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/wellness")
	t.Setenv("TIMEZONE", "Atlantic/Canary")
	t.Setenv("ROSTER", " Ana , Bea,,Carla ")
	t.Setenv("MISSING_REPORT_HOUR", "13")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Bea", "Carla"}, cfg.Roster)
	assert.Equal(t, 13, cfg.MissingReportHour)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "Atlantic/Canary", cfg.Location().String())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/wellness")

	t.Run("timezone", func(t *testing.T) {
		t.Setenv("TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("hour", func(t *testing.T) {
		t.Setenv("TIMEZONE", "")
		t.Setenv("DAILY_REMINDER_HOUR", "24")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoad_DisabledHours(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/wellness")
	t.Setenv("TIMEZONE", "")
	t.Setenv("DAILY_REMINDER_HOUR", "-1")
	t.Setenv("MISSING_REPORT_HOUR", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.DailyReminderHour)
	assert.Equal(t, -1, cfg.MissingReportHour)

	t.Setenv("MISSING_REPORT_HOUR", "-2")
	_, err = Load()
	assert.Error(t, err)
}

func TestEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "ten")
	t.Setenv("X_BOOL", "maybe")
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.True(t, envBool("X_BOOL", true))
	assert.Equal(t, []string{"a"}, envList("X_MISSING_LIST", []string{"a"}))
}
