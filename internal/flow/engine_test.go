package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/noamgl/yoman/internal/agent"
	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/gcal"
	"github.com/noamgl/yoman/internal/mocks"
)

func newTestEngine(t *testing.T) (*Engine, *database.DB, *database.User, *mocks.MockCalendar) {
	t.Helper()
	db := database.NewTestDB(t)
	user := database.CreateTestUser(t, db)
	cal := &mocks.MockCalendar{}
	engine := NewEngine(db, cal)
	engine.now = func() time.Time {
		return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	}
	return engine, db, user, cal
}

func pendingKind(t *testing.T, db *database.DB, userID int64) string {
	t.Helper()
	state, err := Load(db, userID)
	require.NoError(t, err)
	if state == nil {
		return ""
	}
	return state.Kind
}

func TestCreateWithAllContactsKnown(t *testing.T) {
	engine, db, user, cal := newTestEngine(t)
	require.NoError(t, db.SaveContact(user.ID, "Dana", "dana@example.com"))

	ci := agent.ClassifiedIntent{
		Intent:       agent.IntentCreateEvent,
		ResponseText: "Booked lunch with Dana!",
		Payload: agent.Payload{
			Summary:   "Lunch with Dana",
			StartTime: "2026-03-12T12:00:00Z",
			EndTime:   "2026-03-12T13:00:00Z",
			Attendees: []string{"Dana"},
		},
	}

	cal.On("CreateEvent", mock.Anything, user.ID, mock.MatchedBy(func(input gcal.EventInput) bool {
		return input.Summary == "Lunch with Dana" &&
			len(input.Attendees) == 1 &&
			input.Attendees[0].Email == "dana@example.com"
	})).Return(&gcal.EventDetails{
		ID:        "ev1",
		Summary:   "Lunch with Dana",
		StartTime: time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 12, 13, 0, 0, 0, time.UTC),
	}, nil)

	reply, err := engine.StartCreate(context.Background(), user, ci)
	require.NoError(t, err)
	assert.Equal(t, "Booked lunch with Dana!", reply)
	assert.Empty(t, pendingKind(t, db, user.ID))
	cal.AssertExpectations(t)
}

func TestCreateCollectsMissingContactEmail(t *testing.T) {
	engine, db, user, cal := newTestEngine(t)

	ci := agent.ClassifiedIntent{
		Intent: agent.IntentCreateEvent,
		Payload: agent.Payload{
			Summary:   "Planning session",
			StartTime: "2026-03-12T10:00:00Z",
			Attendees: []string{"Yossi"},
		},
	}

	reply, err := engine.StartCreate(context.Background(), user, ci)
	require.NoError(t, err)
	assert.Contains(t, reply, "Yossi")
	assert.Equal(t, KindAwaitingContactEmail, pendingKind(t, db, user.ID))
	cal.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything, mock.Anything)

	// A reply that is not an email keeps the flow pending.
	state, err := Load(db, user.ID)
	require.NoError(t, err)
	reply, err = engine.Resume(context.Background(), user, state, "umm I'm not sure")
	require.NoError(t, err)
	assert.Contains(t, reply, "doesn't look like an email")
	assert.Equal(t, KindAwaitingContactEmail, pendingKind(t, db, user.ID))

	// The actual address saves the contact and creates the event.
	cal.On("CreateEvent", mock.Anything, user.ID, mock.MatchedBy(func(input gcal.EventInput) bool {
		return len(input.Attendees) == 1 && input.Attendees[0].Email == "yossi@example.com"
	})).Return(&gcal.EventDetails{
		ID:        "ev2",
		Summary:   "Planning session",
		StartTime: time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 12, 11, 0, 0, 0, time.UTC),
	}, nil)

	state, err = Load(db, user.ID)
	require.NoError(t, err)
	reply, err = engine.Resume(context.Background(), user, state, "yossi@example.com")
	require.NoError(t, err)
	assert.Contains(t, reply, "Planning session")
	assert.Empty(t, pendingKind(t, db, user.ID))

	book, err := db.GetContacts(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "yossi@example.com", book["Yossi"])
	cal.AssertExpectations(t)
}

func TestCreateSkipDropsAttendee(t *testing.T) {
	engine, db, user, cal := newTestEngine(t)
	require.NoError(t, db.SaveContact(user.ID, "Dana", "dana@example.com"))

	ci := agent.ClassifiedIntent{
		Intent: agent.IntentCreateEvent,
		Payload: agent.Payload{
			Summary:   "Dinner",
			StartTime: "2026-03-14T19:00:00Z",
			Attendees: []string{"Dana", "Yossi"},
		},
	}

	reply, err := engine.StartCreate(context.Background(), user, ci)
	require.NoError(t, err)
	assert.Contains(t, reply, "Yossi")

	cal.On("CreateEvent", mock.Anything, user.ID, mock.MatchedBy(func(input gcal.EventInput) bool {
		return len(input.Attendees) == 1 && input.Attendees[0].Email == "dana@example.com"
	})).Return(&gcal.EventDetails{
		ID:        "ev3",
		Summary:   "Dinner",
		StartTime: time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC),
	}, nil)

	state, err := Load(db, user.ID)
	require.NoError(t, err)
	reply, err = engine.Resume(context.Background(), user, state, "skip")
	require.NoError(t, err)
	assert.Contains(t, reply, "Dinner")
	assert.Empty(t, pendingKind(t, db, user.ID))
	cal.AssertExpectations(t)
}

func TestCreateCancelAbandonsEvent(t *testing.T) {
	engine, db, user, cal := newTestEngine(t)

	ci := agent.ClassifiedIntent{
		Intent: agent.IntentCreateEvent,
		Payload: agent.Payload{
			Summary:   "Standup",
			StartTime: "2026-03-11T09:30:00Z",
			Attendees: []string{"Yossi"},
		},
	}

	_, err := engine.StartCreate(context.Background(), user, ci)
	require.NoError(t, err)

	state, err := Load(db, user.ID)
	require.NoError(t, err)
	reply, err := engine.Resume(context.Background(), user, state, "cancel")
	require.NoError(t, err)
	assert.Contains(t, reply, "Standup")
	assert.Empty(t, pendingKind(t, db, user.ID))
	cal.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	engine, db, user, cal := newTestEngine(t)

	cal.On("SearchEvents", mock.Anything, user.ID, "dentist", mock.Anything, mock.Anything, mock.Anything).
		Return([]gcal.EventDetails{{
			ID:        "ev9",
			Summary:   "Dentist",
			StartTime: time.Date(2026, 3, 16, 15, 0, 0, 0, time.UTC),
		}}, nil)

	ci := agent.ClassifiedIntent{
		Intent:  agent.IntentDeleteEvent,
		Payload: agent.Payload{EventHint: "dentist"},
	}

	reply, err := engine.StartDelete(context.Background(), user, ci)
	require.NoError(t, err)
	assert.Contains(t, reply, "Dentist")
	assert.Contains(t, reply, "yes/no")
	assert.Equal(t, KindAwaitingDeleteConfirm, pendingKind(t, db, user.ID))
	cal.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything, mock.Anything)

	// Noise re-asks without deleting.
	state, err := Load(db, user.ID)
	require.NoError(t, err)
	reply, err = engine.Resume(context.Background(), user, state, "what do you think?")
	require.NoError(t, err)
	assert.Contains(t, reply, "yes or no")
	assert.Equal(t, KindAwaitingDeleteConfirm, pendingKind(t, db, user.ID))

	cal.On("DeleteEvent", mock.Anything, user.ID, "ev9").Return(nil)

	state, err = Load(db, user.ID)
	require.NoError(t, err)
	reply, err = engine.Resume(context.Background(), user, state, "yes")
	require.NoError(t, err)
	assert.Contains(t, reply, "Deleted")
	assert.Empty(t, pendingKind(t, db, user.ID))
	cal.AssertExpectations(t)
}

func TestDeleteCancelKeepsEvent(t *testing.T) {
	engine, db, user, cal := newTestEngine(t)

	cal.On("SearchEvents", mock.Anything, user.ID, "dentist", mock.Anything, mock.Anything, mock.Anything).
		Return([]gcal.EventDetails{{
			ID:        "ev9",
			Summary:   "Dentist",
			StartTime: time.Date(2026, 3, 16, 15, 0, 0, 0, time.UTC),
		}}, nil)

	_, err := engine.StartDelete(context.Background(), user, agent.ClassifiedIntent{
		Payload: agent.Payload{EventHint: "dentist"},
	})
	require.NoError(t, err)

	state, err := Load(db, user.ID)
	require.NoError(t, err)
	reply, err := engine.Resume(context.Background(), user, state, "no")
	require.NoError(t, err)
	assert.Contains(t, reply, "leave")
	assert.Empty(t, pendingKind(t, db, user.ID))
	cal.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteMultipleMatchesAsksForChoice(t *testing.T) {
	engine, db, user, cal := newTestEngine(t)

	cal.On("SearchEvents", mock.Anything, user.ID, "meeting", mock.Anything, mock.Anything, mock.Anything).
		Return([]gcal.EventDetails{
			{ID: "ev1", Summary: "Team meeting", StartTime: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)},
			{ID: "ev2", Summary: "Board meeting", StartTime: time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)},
		}, nil)

	reply, err := engine.StartDelete(context.Background(), user, agent.ClassifiedIntent{
		Payload: agent.Payload{EventHint: "meeting"},
	})
	require.NoError(t, err)
	assert.Contains(t, reply, "1. Team meeting")
	assert.Contains(t, reply, "2. Board meeting")
	assert.Equal(t, KindAwaitingEventChoice, pendingKind(t, db, user.ID))

	// Picking one still routes through the confirmation step.
	state, err := Load(db, user.ID)
	require.NoError(t, err)
	reply, err = engine.Resume(context.Background(), user, state, "2")
	require.NoError(t, err)
	assert.Contains(t, reply, "Board meeting")
	assert.Equal(t, KindAwaitingDeleteConfirm, pendingKind(t, db, user.ID))

	cal.On("DeleteEvent", mock.Anything, user.ID, "ev2").Return(nil)

	state, err = Load(db, user.ID)
	require.NoError(t, err)
	reply, err = engine.Resume(context.Background(), user, state, "yes")
	require.NoError(t, err)
	assert.Contains(t, reply, "Board meeting")
	assert.Empty(t, pendingKind(t, db, user.ID))
	cal.AssertExpectations(t)
}

func TestUpdateTouchesOnlyRequestedFields(t *testing.T) {
	engine, _, user, cal := newTestEngine(t)

	existing := gcal.EventDetails{
		ID:        "ev5",
		Summary:   "Sync",
		StartTime: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC),
	}
	cal.On("SearchEvents", mock.Anything, user.ID, "sync", mock.Anything, mock.Anything, mock.Anything).
		Return([]gcal.EventDetails{existing}, nil)

	cal.On("PatchEvent", mock.Anything, user.ID, "ev5", mock.MatchedBy(func(patch gcal.EventPatch) bool {
		return patch.Location != nil && *patch.Location == "Room 3" &&
			patch.Summary == nil && patch.StartTime == nil &&
			patch.EndTime == nil && patch.ColorID == nil && patch.Attendees == nil
	})).Return(&gcal.EventDetails{ID: "ev5", Summary: "Sync"}, nil)

	reply, err := engine.StartUpdate(context.Background(), user, agent.ClassifiedIntent{
		Payload: agent.Payload{EventHint: "sync", NewLocation: "Room 3"},
	})
	require.NoError(t, err)
	assert.Contains(t, reply, "Room 3")
	assert.NotContains(t, reply, "moved")
	assert.NotContains(t, reply, "renamed")
	cal.AssertExpectations(t)
}

func TestUpdateMovePreservesDuration(t *testing.T) {
	engine, _, user, cal := newTestEngine(t)

	existing := gcal.EventDetails{
		ID:        "ev6",
		Summary:   "Workshop",
		StartTime: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC),
	}
	cal.On("SearchEvents", mock.Anything, user.ID, "workshop", mock.Anything, mock.Anything, mock.Anything).
		Return([]gcal.EventDetails{existing}, nil)

	wantStart := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	cal.On("PatchEvent", mock.Anything, user.ID, "ev6", mock.MatchedBy(func(patch gcal.EventPatch) bool {
		return patch.StartTime != nil && patch.StartTime.Equal(wantStart) &&
			patch.EndTime != nil && patch.EndTime.Equal(wantStart.Add(2*time.Hour))
	})).Return(&gcal.EventDetails{ID: "ev6", Summary: "Workshop"}, nil)

	reply, err := engine.StartUpdate(context.Background(), user, agent.ClassifiedIntent{
		Payload: agent.Payload{EventHint: "workshop", NewStartTime: "2026-03-12T14:00:00Z"},
	})
	require.NoError(t, err)
	assert.Contains(t, reply, "moved")
	cal.AssertExpectations(t)
}

func TestUpdateReplyShowsOldAndNewValues(t *testing.T) {
	engine, _, user, cal := newTestEngine(t)

	existing := gcal.EventDetails{
		ID:        "ev8",
		Summary:   "Sync",
		Location:  "Room 1",
		StartTime: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
	}
	cal.On("SearchEvents", mock.Anything, user.ID, "sync", mock.Anything, mock.Anything, mock.Anything).
		Return([]gcal.EventDetails{existing}, nil)
	cal.On("PatchEvent", mock.Anything, user.ID, "ev8", mock.Anything).
		Return(&gcal.EventDetails{ID: "ev8", Summary: "Planning sync"}, nil)

	reply, err := engine.StartUpdate(context.Background(), user, agent.ClassifiedIntent{
		Payload: agent.Payload{
			EventHint:    "sync",
			NewTitle:     "Planning sync",
			NewStartTime: "2026-03-12T16:00:00Z",
			NewLocation:  "Room 3",
		},
	})
	require.NoError(t, err)

	// Each change reads as before → after, not just the new value.
	assert.Contains(t, reply, `from "Sync" to "Planning sync"`)
	assert.Contains(t, reply, "Tue 10/03 at 10:00")
	assert.Contains(t, reply, "Thu 12/03 at 16:00")
	assert.Contains(t, reply, "from Room 1 to Room 3")
	cal.AssertExpectations(t)
}

func TestUpdateMergesAttendeesByEmail(t *testing.T) {
	engine, db, user, cal := newTestEngine(t)
	require.NoError(t, db.SaveContact(user.ID, "Dana", "dana@example.com"))

	existing := gcal.EventDetails{
		ID:        "ev7",
		Summary:   "Review",
		StartTime: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 11, 11, 0, 0, 0, time.UTC),
		Attendees: []gcal.EventAttendee{{Email: "DANA@example.com", DisplayName: "Dana"}},
	}
	cal.On("SearchEvents", mock.Anything, user.ID, "review", mock.Anything, mock.Anything, mock.Anything).
		Return([]gcal.EventDetails{existing}, nil)

	// Dana is already invited; the merged list must not duplicate her.
	cal.On("PatchEvent", mock.Anything, user.ID, "ev7", mock.MatchedBy(func(patch gcal.EventPatch) bool {
		return len(patch.Attendees) == 1 &&
			strings.EqualFold(patch.Attendees[0].Email, "dana@example.com")
	})).Return(&gcal.EventDetails{ID: "ev7", Summary: "Review"}, nil)

	reply, err := engine.StartUpdate(context.Background(), user, agent.ClassifiedIntent{
		Payload: agent.Payload{EventHint: "review", AddAttendees: []string{"Dana"}},
	})
	require.NoError(t, err)
	assert.Contains(t, reply, "Dana")
	cal.AssertExpectations(t)
}

func TestCalendarErrorsAreSanitized(t *testing.T) {
	engine, db, user, cal := newTestEngine(t)

	rawErr := errors.New("googleapi: Error 500: backend panic at events.go:42 goroutine 12 [running]")
	cal.On("CreateEvent", mock.Anything, user.ID, mock.Anything).Return(nil, rawErr)

	reply, err := engine.StartCreate(context.Background(), user, agent.ClassifiedIntent{
		Payload: agent.Payload{Summary: "Lunch", StartTime: "2026-03-12T12:00:00Z"},
	})
	require.NoError(t, err)
	assert.NotContains(t, reply, "goroutine")
	assert.NotContains(t, reply, "events.go")
	assert.NotContains(t, reply, "500")
	assert.Equal(t, replyCalendarError, reply)
	assert.Empty(t, pendingKind(t, db, user.ID))
}

func TestAuthRequiredGetsReconnectReply(t *testing.T) {
	engine, _, user, cal := newTestEngine(t)

	cal.On("SearchEvents", mock.Anything, user.ID, "dentist", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("service: %w", gcal.ErrAuthRequired))

	reply, err := engine.StartDelete(context.Background(), user, agent.ClassifiedIntent{
		Payload: agent.Payload{EventHint: "dentist"},
	})
	require.NoError(t, err)
	assert.Equal(t, replyAuthRequired, reply)
}

func TestStateSurvivesReload(t *testing.T) {
	engine, db, user, _ := newTestEngine(t)

	_, err := engine.StartCreate(context.Background(), user, agent.ClassifiedIntent{
		Payload: agent.Payload{
			Summary:   "Trip",
			StartTime: "2026-04-01T08:00:00Z",
			Attendees: []string{"Maya", "Yossi"},
		},
	})
	require.NoError(t, err)

	state, err := Load(db, user.ID)
	require.NoError(t, err)
	require.NotNil(t, state.ContactEmail)
	assert.Equal(t, "Maya", state.ContactEmail.MissingName)
	assert.Equal(t, []string{"Yossi"}, state.ContactEmail.Remaining)
	assert.Equal(t, "Trip", state.ContactEmail.Pending.Summary)
}
