package notifications

import (
	"fmt"
	"time"

	"github.com/gloriosas/wellness/internal/team"
)

// ChangeOp is the kind of calendar mutation.
type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)

// CalendarChange is one create, update or delete of a calendar event.
type CalendarChange struct {
	Op  ChangeOp            `json:"op"`
	Old *team.CalendarEvent `json:"old"`
	New *team.CalendarEvent `json:"new"`
}

// SalientChange reports whether an update touched anything athletes care
// about: title, date, start time or location.
func SalientChange(before, after team.CalendarEvent) bool {
	return before.Title != after.Title ||
		before.Date != after.Date ||
		before.StartTime != after.StartTime ||
		before.Location != after.Location
}

// CalendarNotice builds the player notice for a change. ok is false when the
// change should not notify.
func CalendarNotice(c CalendarChange) (msg Message, ok bool) {
	switch c.Op {
	case OpInsert:
		if c.New == nil {
			return Message{}, false
		}
		return eventMessage("📅 Nueva actividad", *c.New), true
	case OpUpdate:
		if c.Old == nil || c.New == nil || !SalientChange(*c.Old, *c.New) {
			return Message{}, false
		}
		return eventMessage("📅 Actividad modificada", *c.New), true
	case OpDelete:
		if c.Old == nil {
			return Message{}, false
		}
		return eventMessage("❌ Actividad cancelada", *c.Old), true
	default:
		return Message{}, false
	}
}

func eventMessage(title string, e team.CalendarEvent) Message {
	label := team.EventLabels[e.Type]
	if label == "" {
		label = e.Title
	}
	body := fmt.Sprintf("%s · %s %s", label, displayDate(e.Date), e.StartTime)
	if e.Title != "" && e.Title != label {
		body = fmt.Sprintf("%s: %s · %s %s", label, e.Title, displayDate(e.Date), e.StartTime)
	}
	if e.Location != "" {
		body += " · " + e.Location
	}
	return Message{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"event_id": e.ID.String(),
			"date":     e.Date,
		},
	}
}

func displayDate(day string) string {
	d, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return day
	}
	return d.Format("02/01")
}
