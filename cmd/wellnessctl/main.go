// Command wellnessctl is the operator CLI for the wellness service.
//
// Usage:
//
//	wellnessctl migrate
//	wellnessctl score --sleep 4 --fatigue 9 --soreness 5 --stress 3 --mood 3
//	wellnessctl run hourly --at 2026-03-02T09:00:00+01:00
//	wellnessctl missing --kind rpe --date 2026-03-02
//	wellnessctl token register Ana <fcm-token>
//	wellnessctl users show Ana
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gloriosas/wellness/internal/config"
	"github.com/gloriosas/wellness/internal/dashboard"
	"github.com/gloriosas/wellness/internal/db"
	"github.com/gloriosas/wellness/internal/maintenance"
	"github.com/gloriosas/wellness/internal/notifications"
	"github.com/gloriosas/wellness/internal/store"
	"github.com/gloriosas/wellness/internal/team"
	"github.com/gloriosas/wellness/internal/wellness"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "wellnessctl",
		Short:        "Gloriosas wellness operator CLI",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(runCmd())
	root.AddCommand(missingCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(usersCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("Schema applied")
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// score command
// --------------------------------------------------------------------------

func scoreCmd() *cobra.Command {
	var sleep, fatigue, soreness, stress, mood int
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute readiness and status for a set of levels (1 best, 10 worst)",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := wellness.ScoreInput{}
			set := func(flag string, v *int) *int {
				if cmd.Flags().Changed(flag) {
					return v
				}
				return nil
			}
			in.Sleep = set("sleep", &sleep)
			in.Fatigue = set("fatigue", &fatigue)
			in.Soreness = set("soreness", &soreness)
			in.Stress = set("stress", &stress)
			in.Mood = set("mood", &mood)

			scores, err := in.Scores()
			if err != nil {
				return err
			}
			readiness, err := wellness.Readiness(scores)
			if err != nil {
				return err
			}
			status := wellness.Classify(scores, readiness)
			fmt.Printf("readiness %.1f  status %s\n", readiness, statusColor(status).Sprint(status))
			return nil
		},
	}
	cmd.Flags().IntVar(&sleep, "sleep", 0, "Sleep quality level")
	cmd.Flags().IntVar(&fatigue, "fatigue", 0, "Fatigue level")
	cmd.Flags().IntVar(&soreness, "soreness", 0, "Muscle soreness level")
	cmd.Flags().IntVar(&stress, "stress", 0, "Stress level")
	cmd.Flags().IntVar(&mood, "mood", 0, "Mood level")
	return cmd
}

func statusColor(s wellness.Status) *color.Color {
	switch s {
	case wellness.StatusRisk:
		return color.New(color.FgRed, color.Bold)
	case wellness.StatusWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:       "run <hourly|daily|missing|cleanup>",
		Short:     "Run one notification trigger now, or as of --at",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"hourly", "daily", "missing", "cleanup"},
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := maintenance.ParseTask(args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			if at != "" {
				if now, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
			}
			return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, st *store.Store) error {
				svc := notifications.NewService(st, store.NewLedger(pool.Pool), pusherFor(ctx, cfg),
					notifications.Config{Location: cfg.Location(), Roster: cfg.Roster}, logger)
				mc := maintenance.DefaultConfig(cfg.Location())
				mc.LedgerRetention = time.Duration(cfg.LedgerRetentionDays) * 24 * time.Hour
				return maintenance.Run(ctx, svc, task, now, mc, logger)
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Instant to run as (RFC3339)")
	return cmd
}

func pusherFor(ctx context.Context, cfg *config.Config) notifications.Pusher {
	if cfg.FCMCredentialsFile == "" {
		return notifications.LogPusher{Logger: logger}
	}
	sender, err := notifications.NewFCMSender(ctx, cfg.FCMCredentialsFile, cfg.PushRatePerSecond, logger)
	if err != nil {
		logger.Warn("FCM init failed, logging pushes instead", "error", err)
		return notifications.LogPusher{Logger: logger}
	}
	return sender
}

// --------------------------------------------------------------------------
// missing command
// --------------------------------------------------------------------------

func missingCmd() *cobra.Command {
	var kindFlag, date string
	cmd := &cobra.Command{
		Use:   "missing",
		Short: "List roster athletes who have not submitted on a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := notifications.ParseKind(kindFlag)
			if !ok {
				return fmt.Errorf("unknown kind %q", kindFlag)
			}
			return withStore(func(ctx context.Context, cfg *config.Config, _ *db.Pool, st *store.Store) error {
				loc := cfg.Location()
				day := date
				if day == "" {
					day = time.Now().In(loc).Format(time.DateOnly)
				}
				from, to, err := dashboard.DayBounds(day, loc)
				if err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}

				subs := notifications.NewSubmissions()
				if kind == notifications.KindRPE {
					recs, err := st.RPEBetween(ctx, from, to)
					if err != nil {
						return err
					}
					for _, r := range recs {
						subs.Add(r.AthleteID, r.PlayerName)
					}
				} else {
					recs, err := st.WellnessBetween(ctx, from, to)
					if err != nil {
						return err
					}
					for _, r := range recs {
						subs.Add(r.AthleteID, r.PlayerName)
					}
				}

				missing := notifications.Missing(cfg.Roster, subs)
				fmt.Printf("%s %s: %d/%d submitted\n", day, kind, len(cfg.Roster)-len(missing), len(cfg.Roster))
				if len(missing) == 0 {
					color.Green("Todas han enviado")
					return nil
				}
				color.Yellow(notifications.MissingMessage(missing))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", string(notifications.KindWellness), "wellness or rpe")
	cmd.Flags().StringVar(&date, "date", "", "Day (YYYY-MM-DD), defaults to today")
	return cmd
}

// --------------------------------------------------------------------------
// token / users commands
// --------------------------------------------------------------------------

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage device tokens",
	}

	var role string
	register := &cobra.Command{
		Use:   "register <name> <token>",
		Short: "Attach a device token to a user, moving it from any previous owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r team.Role
			if role != "" {
				parsed, err := team.ParseRole(role)
				if err != nil {
					return err
				}
				r = parsed
			}
			return withStore(func(ctx context.Context, _ *config.Config, _ *db.Pool, st *store.Store) error {
				id, stored, err := st.RegisterToken(ctx, args[0], r, args[1])
				if err != nil {
					return err
				}
				fmt.Printf("%s %s (%s)\n", color.New(color.Faint).Sprint(id.String()[:8]), args[0], stored)
				return nil
			})
		},
	}
	register.Flags().StringVar(&role, "role", "", "player or staff; omitted keeps the current role (player for new users)")
	cmd.AddCommand(register)
	return cmd
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show a user's role, devices and reminder schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, _ *config.Config, _ *db.Pool, st *store.Store) error {
				u, err := st.UserByName(ctx, args[0])
				if err != nil {
					return err
				}
				printUser(*u)
				return nil
			})
		},
	})
	return cmd
}

func printUser(u team.User) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	fmt.Printf("%s %s %s\n", bold.Sprint(u.Name), faint.Sprint(u.ID), u.Role)
	fmt.Printf("  devices: %d\n", len(u.Tokens))

	p := team.DefaultPreferences()
	if u.Preferences != nil {
		p = *u.Preferences
	}
	days := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
	row := func(label string, s team.WeeklySchedule) {
		cells := make([]string, 0, len(days))
		for _, d := range days {
			v := s.On(d)
			if v == "" || v == team.Disabled {
				v = faint.Sprint("-----")
			}
			cells = append(cells, v)
		}
		fmt.Printf("  %-9s %s\n", label, strings.Join(cells, " "))
	}
	row("wellness", p.Wellness)
	row("rpe", p.RPE)
	fmt.Printf("  calendar  %v\n", p.CalendarEnabled)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func withStore(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool, st *store.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool, store.New(pool.Pool, logger))
}
