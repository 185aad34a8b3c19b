package gcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

func TestFromAPIEventTimed(t *testing.T) {
	details, err := fromAPIEvent(&calendar.Event{
		Id:      "ev1",
		Summary: "Sync",
		ColorId: "7",
		Start:   &calendar.EventDateTime{DateTime: "2026-03-12T12:00:00+02:00"},
		End:     &calendar.EventDateTime{DateTime: "2026-03-12T13:00:00+02:00"},
		Attendees: []*calendar.EventAttendee{
			{Email: "me@example.com", Self: true},
			{Email: "dana@example.com", DisplayName: "Dana"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "ev1", details.ID)
	assert.False(t, details.AllDay)
	assert.Equal(t, time.Hour, details.EndTime.Sub(details.StartTime))

	// The calendar owner never appears in their own attendee list.
	require.Len(t, details.Attendees, 1)
	assert.Equal(t, "dana@example.com", details.Attendees[0].Email)
}

func TestFromAPIEventAllDay(t *testing.T) {
	details, err := fromAPIEvent(&calendar.Event{
		Id:      "ev2",
		Summary: "Birthday",
		Start:   &calendar.EventDateTime{Date: "2026-03-14"},
		End:     &calendar.EventDateTime{Date: "2026-03-15"},
	})
	require.NoError(t, err)

	assert.True(t, details.AllDay)
	assert.Equal(t, 2026, details.StartTime.Year())
	assert.Equal(t, time.March, details.StartTime.Month())
	assert.Equal(t, 14, details.StartTime.Day())
}

func TestFromAPIEventMissingTimes(t *testing.T) {
	_, err := fromAPIEvent(&calendar.Event{Id: "ev3", Summary: "Broken"})
	assert.Error(t, err)
}

func TestEventDateTime(t *testing.T) {
	at := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

	timed := eventDateTime(at, false)
	assert.Equal(t, "2026-03-14T19:00:00Z", timed.DateTime)
	assert.Empty(t, timed.Date)

	allDay := eventDateTime(at, true)
	assert.Equal(t, "2026-03-14", allDay.Date)
	assert.Empty(t, allDay.DateTime)
}

func TestEventPatchIsEmpty(t *testing.T) {
	assert.True(t, EventPatch{}.IsEmpty())

	summary := "New title"
	assert.False(t, EventPatch{Summary: &summary}.IsEmpty())
	assert.False(t, EventPatch{Attendees: []EventAttendee{}}.IsEmpty())
}
