// Command api is the Gloriosas wellness API server. Besides serving HTTP it
// hosts the notification triggers: the LISTEN/NOTIFY consumer for risk
// alerts and calendar notices, and the clock-aligned reminder scheduler.
//
// Usage:
//
//	wellness-api
//	API_PORT=8080 ROSTER="Ana,Bea,Carla" wellness-api

// @title Gloriosas Wellness API
// @version 1.0.0
// @description Daily wellness and RPE tracking for a women's football squad: submissions, staff dashboard, completion, reminders and calendar.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Gloriosas
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/gloriosas/wellness/internal/api"
	"github.com/gloriosas/wellness/internal/cache"
	"github.com/gloriosas/wellness/internal/config"
	"github.com/gloriosas/wellness/internal/db"
	"github.com/gloriosas/wellness/internal/listener"
	"github.com/gloriosas/wellness/internal/maintenance"
	"github.com/gloriosas/wellness/internal/notifications"
	"github.com/gloriosas/wellness/internal/store"

	_ "github.com/gloriosas/wellness/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
			logger.Error("Failed to apply schema", "error", err)
			os.Exit(1)
		}
		logger.Info("Schema applied")
	}

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	st := store.New(pool.Pool, logger)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Notification triggers
	ledger, closeLedger := openLedger(ctx, cfg, pool, logger)
	defer closeLedger()
	pusher := openPusher(ctx, cfg, logger)
	svc := notifications.NewService(st, ledger, pusher, notifications.Config{
		Location: cfg.Location(),
		Roster:   cfg.Roster,
	}, logger)

	// Start LISTEN/NOTIFY consumer for risk alerts and calendar notices
	go listener.Start(ctx, cfg.DatabaseURL, st, svc, logger)

	// Start clock-aligned reminders and ledger cleanup
	go maintenance.Start(ctx, svc, maintenanceConfig(cfg), logger)

	// Create router
	router := api.NewRouter(st, pool, appCache, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Gloriosas Wellness API",
			"addr", addr,
			"environment", cfg.Environment,
			"timezone", cfg.Timezone,
			"roster", len(cfg.Roster),
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

// openLedger prefers Redis when REDIS_URL is set and falls back to the
// Postgres reminder_ledger table.
func openLedger(ctx context.Context, cfg *config.Config, pool *db.Pool, logger *slog.Logger) (notifications.Ledger, func()) {
	retention := time.Duration(cfg.LedgerRetentionDays) * 24 * time.Hour
	if cfg.RedisURL != "" {
		l, err := notifications.NewRedisLedger(ctx, cfg.RedisURL, retention)
		if err == nil {
			logger.Info("Reminder ledger: redis")
			return l, func() { _ = l.Close() }
		}
		logger.Warn("Redis ledger unavailable, using postgres", "error", err)
	}
	logger.Info("Reminder ledger: postgres")
	return store.NewLedger(pool.Pool), func() {}
}

// openPusher returns the FCM sender, or a logging stand-in when no
// credentials are configured.
func openPusher(ctx context.Context, cfg *config.Config, logger *slog.Logger) notifications.Pusher {
	if cfg.FCMCredentialsFile == "" {
		logger.Info("Push delivery disabled (no FIREBASE_CREDENTIALS_FILE)")
		return notifications.LogPusher{Logger: logger}
	}
	sender, err := notifications.NewFCMSender(ctx, cfg.FCMCredentialsFile, cfg.PushRatePerSecond, logger)
	if err != nil {
		logger.Error("FCM init failed, push delivery disabled", "error", err)
		return notifications.LogPusher{Logger: logger}
	}
	logger.Info("Push delivery enabled", "rate_per_second", cfg.PushRatePerSecond)
	return sender
}

func maintenanceConfig(cfg *config.Config) maintenance.Config {
	mc := maintenance.DefaultConfig(cfg.Location())
	mc.DailyReminderHour = cfg.DailyReminderHour
	mc.MissingReportHour = cfg.MissingReportHour
	mc.LedgerRetention = time.Duration(cfg.LedgerRetentionDays) * 24 * time.Hour
	return mc
}
