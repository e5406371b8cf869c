// Package listener provides a Postgres LISTEN/NOTIFY consumer for the
// event-driven notification triggers. It holds a dedicated pgx connection
// (not from the pool) listening on the wellness_created and calendar_changed
// channels, which the schema's row triggers feed. Payloads carry ids; rows
// are loaded through a Source.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gloriosas/wellness/internal/notifications"
	"github.com/gloriosas/wellness/internal/team"
	"github.com/gloriosas/wellness/internal/wellness"
)

const (
	ChannelWellnessCreated = "wellness_created"
	ChannelCalendarChanged = "calendar_changed"

	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

var channels = []string{ChannelWellnessCreated, ChannelCalendarChanged}

// Handler reacts to decoded change events. *notifications.Service satisfies it.
type Handler interface {
	OnWellnessCreated(ctx context.Context, rec wellness.WellnessRecord) (notifications.Report, error)
	OnCalendarChanged(ctx context.Context, change notifications.CalendarChange) (notifications.Report, error)
}

// Source loads the rows a notification refers to. *store.Store satisfies it.
type Source interface {
	WellnessByID(ctx context.Context, id uuid.UUID) (wellness.WellnessRecord, error)
	Event(ctx context.Context, id uuid.UUID) (team.CalendarEvent, error)
}

type wellnessPayload struct {
	ID uuid.UUID `json:"id"`
}

// calendarPayload carries the previous version of the event for updates and
// deletes, since it can no longer be loaded.
type calendarPayload struct {
	Op  notifications.ChangeOp `json:"op"`
	ID  uuid.UUID              `json:"id"`
	Old *team.CalendarEvent    `json:"old"`
}

// Start opens a dedicated connection and listens on every channel. It
// reconnects automatically on connection loss. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, src Source, handler Handler, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, src, handler, logger)
		if ctx.Err() != nil {
			logger.Info("Change listener stopped (context cancelled)")
			return
		}

		logger.Error("Change listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, src Source, handler Handler, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	for _, ch := range channels {
		if _, err := conn.Exec(ctx, "LISTEN "+ch); err != nil {
			return fmt.Errorf("LISTEN %s: %w", ch, err)
		}
	}
	logger.Info("Change listener connected", "channels", channels)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		// Process asynchronously to avoid blocking the listener
		go route(ctx, src, handler, notification, logger)
	}
}

// route decodes one notification, loads its row and hands it to the matching
// trigger. Trigger failures are logged; the row that fired them is already
// committed.
func route(ctx context.Context, src Source, handler Handler, n *pgconn.Notification, logger *slog.Logger) {
	switch n.Channel {
	case ChannelWellnessCreated:
		var p wellnessPayload
		if err := json.Unmarshal([]byte(n.Payload), &p); err != nil {
			logger.Warn("Failed to parse wellness event",
				"payload", n.Payload, "error", err)
			return
		}
		rec, err := src.WellnessByID(ctx, p.ID)
		if err != nil {
			logger.Error("Failed to load wellness record", "id", p.ID, "error", err)
			return
		}
		if _, err := handler.OnWellnessCreated(ctx, rec); err != nil {
			logger.Error("Risk alert failed", "player", rec.PlayerName, "error", err)
		}

	case ChannelCalendarChanged:
		var p calendarPayload
		if err := json.Unmarshal([]byte(n.Payload), &p); err != nil {
			logger.Warn("Failed to parse calendar event",
				"payload", n.Payload, "error", err)
			return
		}
		change := notifications.CalendarChange{Op: p.Op, Old: p.Old}
		if p.Op != notifications.OpDelete {
			e, err := src.Event(ctx, p.ID)
			if err != nil {
				logger.Error("Failed to load calendar event", "id", p.ID, "op", p.Op, "error", err)
				return
			}
			change.New = &e
		}
		if _, err := handler.OnCalendarChanged(ctx, change); err != nil {
			logger.Error("Calendar notice failed", "op", change.Op, "error", err)
		}

	default:
		logger.Warn("Notification on unexpected channel", "channel", n.Channel)
	}
}
