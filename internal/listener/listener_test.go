package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gloriosas/wellness/internal/notifications"
	"github.com/gloriosas/wellness/internal/team"
	"github.com/gloriosas/wellness/internal/wellness"
)

var errMissing = errors.New("not found")

type recordingHandler struct {
	wellness []wellness.WellnessRecord
	calendar []notifications.CalendarChange
	err      error
}

func (h *recordingHandler) OnWellnessCreated(_ context.Context, rec wellness.WellnessRecord) (notifications.Report, error) {
	h.wellness = append(h.wellness, rec)
	return notifications.Report{}, h.err
}

func (h *recordingHandler) OnCalendarChanged(_ context.Context, c notifications.CalendarChange) (notifications.Report, error) {
	h.calendar = append(h.calendar, c)
	return notifications.Report{}, h.err
}

type mapSource struct {
	wellness map[uuid.UUID]wellness.WellnessRecord
	events   map[uuid.UUID]team.CalendarEvent
}

func (s mapSource) WellnessByID(_ context.Context, id uuid.UUID) (wellness.WellnessRecord, error) {
	r, ok := s.wellness[id]
	if !ok {
		return r, errMissing
	}
	return r, nil
}

func (s mapSource) Event(_ context.Context, id uuid.UUID) (team.CalendarEvent, error) {
	e, ok := s.events[id]
	if !ok {
		return e, errMissing
	}
	return e, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var eventID = uuid.MustParse("5f0c6a8e-3c0a-4c55-9d7e-1b2a3c4d5e6f")

func TestRoute_WellnessLoadsRecordByID(t *testing.T) {
	longNote := strings.Repeat("me duele la rodilla ", 50)
	src := mapSource{wellness: map[uuid.UUID]wellness.WellnessRecord{
		eventID: {
			ID: eventID, PlayerName: "Ana", Notes: longNote,
			Scores: wellness.Scores{Sleep: 4, Fatigue: 9, Soreness: 5, Stress: 3, Mood: 3},
		},
	}}
	h := &recordingHandler{}

	route(context.Background(), src, h,
		&pgconn.Notification{Channel: ChannelWellnessCreated, Payload: `{"id":"` + eventID.String() + `"}`},
		quietLogger())

	require.Len(t, h.wellness, 1)
	rec := h.wellness[0]
	assert.Equal(t, "Ana", rec.PlayerName)
	assert.Equal(t, wellness.Level(9), rec.Fatigue)
	assert.Equal(t, longNote, rec.Notes)
}

func TestRoute_WellnessUnknownID(t *testing.T) {
	h := &recordingHandler{}
	route(context.Background(), mapSource{}, h,
		&pgconn.Notification{Channel: ChannelWellnessCreated, Payload: `{"id":"` + uuid.NewString() + `"}`},
		quietLogger())
	assert.Empty(t, h.wellness)
}

func TestRoute_CalendarDeleteUsesPayloadSummary(t *testing.T) {
	h := &recordingHandler{}
	payload := `{"op":"DELETE","id":"` + eventID.String() + `","old":{"id":"` + eventID.String() + `","title":"Gym",
		"date":"2026-03-05","startTime":"09:00","endTime":"10:00","location":"","type":"gym"}}`

	route(context.Background(), mapSource{}, h,
		&pgconn.Notification{Channel: ChannelCalendarChanged, Payload: payload}, quietLogger())

	require.Len(t, h.calendar, 1)
	c := h.calendar[0]
	assert.Equal(t, notifications.OpDelete, c.Op)
	require.NotNil(t, c.Old)
	assert.Equal(t, "Gym", c.Old.Title)
	assert.Nil(t, c.New)
}

func TestRoute_CalendarUpdateLoadsCurrentEvent(t *testing.T) {
	current := team.CalendarEvent{ID: eventID, Title: "Gym", Date: "2026-03-05", StartTime: "10:00", Type: team.EventGym}
	src := mapSource{events: map[uuid.UUID]team.CalendarEvent{eventID: current}}
	h := &recordingHandler{}
	payload := `{"op":"UPDATE","id":"` + eventID.String() + `","old":{"id":"` + eventID.String() + `","title":"Gym",
		"date":"2026-03-05","startTime":"09:00","endTime":"","location":"","type":"gym"}}`

	route(context.Background(), src, h,
		&pgconn.Notification{Channel: ChannelCalendarChanged, Payload: payload}, quietLogger())

	require.Len(t, h.calendar, 1)
	c := h.calendar[0]
	require.NotNil(t, c.Old)
	require.NotNil(t, c.New)
	assert.Equal(t, "09:00", c.Old.StartTime)
	assert.Equal(t, "10:00", c.New.StartTime)
	assert.True(t, notifications.SalientChange(*c.Old, *c.New))
}

func TestRoute_CalendarInsertForVanishedEvent(t *testing.T) {
	h := &recordingHandler{}
	route(context.Background(), mapSource{}, h,
		&pgconn.Notification{Channel: ChannelCalendarChanged, Payload: `{"op":"INSERT","id":"` + eventID.String() + `","old":null}`},
		quietLogger())
	assert.Empty(t, h.calendar)
}

func TestRoute_IgnoresBadInput(t *testing.T) {
	h := &recordingHandler{}
	logger := quietLogger()

	route(context.Background(), mapSource{}, h, &pgconn.Notification{Channel: ChannelWellnessCreated, Payload: "{not json"}, logger)
	route(context.Background(), mapSource{}, h, &pgconn.Notification{Channel: "other", Payload: "{}"}, logger)

	assert.Empty(t, h.wellness)
	assert.Empty(t, h.calendar)
}

func TestRoute_HandlerErrorIsContained(t *testing.T) {
	h := &recordingHandler{err: errors.New("db down")}
	assert.NotPanics(t, func() {
		route(context.Background(), mapSource{}, h,
			&pgconn.Notification{Channel: ChannelCalendarChanged, Payload: `{"op":"DELETE","id":"` + eventID.String() + `","old":null}`},
			quietLogger())
	})
	assert.Len(t, h.calendar, 1)
}
