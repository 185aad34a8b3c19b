package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/noamgl/yoman/internal/agent"
	"github.com/noamgl/yoman/internal/contacts"
	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/gcal"
	"github.com/noamgl/yoman/internal/timeutil"
)

// StartCreate handles a create_event turn. When every attendee has a
// saved email the event is created immediately; otherwise the flow parks
// and asks for the first missing address.
func (e *Engine) StartCreate(ctx context.Context, user *database.User, ci agent.ClassifiedIntent) (string, error) {
	payload := ci.Payload
	if payload.Summary == "" {
		return "What should I call the event?", nil
	}
	if payload.StartTime == "" {
		return fmt.Sprintf("When should %q be?", payload.Summary), nil
	}

	book, err := e.store.GetContacts(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load contacts: %w", err)
	}

	missing := contacts.FindMissing(payload.Attendees, book)
	if len(missing) > 0 {
		state := &State{
			Kind: KindAwaitingContactEmail,
			ContactEmail: &ContactEmailState{
				Pending:          payload,
				MissingName:      missing[0],
				Remaining:        missing[1:],
				OriginalResponse: ci.ResponseText,
			},
		}
		if err := Save(e.store, user.ID, state); err != nil {
			return "", err
		}
		return askForEmail(missing[0]), nil
	}

	return e.createFromPayload(ctx, user, payload, ci.ResponseText), nil
}

func askForEmail(name string) string {
	return fmt.Sprintf("I don't have an email for %s. What's their address? (You can also say \"skip\" to invite without them, or \"cancel\".)", name)
}

// createFromPayload builds and inserts the event. All attendees are
// assumed resolvable by now; any that still are not get dropped.
func (e *Engine) createFromPayload(ctx context.Context, user *database.User, payload agent.Payload, responseText string) string {
	start, end, err := e.parseEventTimes(payload, user.Timezone)
	if err != nil {
		fmt.Printf("Flow: bad event times for user %d: %v\n", user.ID, err)
		return "I couldn't make sense of the event time. Could you rephrase it?"
	}

	book, err := e.store.GetContacts(user.ID)
	if err != nil {
		fmt.Printf("Flow: failed to load contacts for user %d: %v\n", user.ID, err)
		book = nil
	}
	var attendees []gcal.EventAttendee
	for _, r := range contacts.Resolve(payload.Attendees, book) {
		attendees = append(attendees, gcal.EventAttendee{Email: r.Email, DisplayName: r.Name})
	}

	userColors, err := e.store.GetColorPreferences(user.ID)
	if err != nil {
		fmt.Printf("Flow: failed to load color preferences for user %d: %v\n", user.ID, err)
		userColors = nil
	}

	input := gcal.EventInput{
		Summary:     payload.Summary,
		Description: payload.Description,
		Location:    payload.Location,
		StartTime:   start,
		EndTime:     end,
		AllDay:      payload.IsAllDay,
		ColorID:     gcal.ResolveColor(payload.ColorName, payload.ColorID, payload.Category, userColors),
		Attendees:   attendees,
	}

	created, err := e.cal.CreateEvent(ctx, user.ID, input)
	if err != nil {
		return replyForError("create event", err)
	}

	if responseText != "" {
		return responseText
	}
	return fmt.Sprintf("Done! %q is on your calendar for %s.",
		created.Summary, timeutil.FormatRange(created.StartTime, created.EndTime, created.AllDay, user.Timezone))
}

func (e *Engine) parseEventTimes(payload agent.Payload, timezone string) (time.Time, time.Time, error) {
	if payload.IsAllDay {
		start, err := timeutil.ParseDate(payload.StartTime, timezone)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end := start.AddDate(0, 0, 1)
		if payload.EndTime != "" {
			if parsed, err := timeutil.ParseDate(payload.EndTime, timezone); err == nil && parsed.After(start) {
				end = parsed
			}
		}
		return start, end, nil
	}

	start, err := timeutil.ParseDateTime(payload.StartTime, timezone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := start.Add(time.Hour)
	if payload.EndTime != "" {
		if parsed, err := timeutil.ParseDateTime(payload.EndTime, timezone); err == nil && parsed.After(start) {
			end = parsed
		}
	}
	return start, end, nil
}

// resumeContactEmail handles the reply while a create is parked on a
// missing contact. The reply is classified locally: cancel, skip, an
// email address, or noise.
func (e *Engine) resumeContactEmail(ctx context.Context, user *database.User, state *ContactEmailState, text string) (string, error) {
	switch {
	case IsCancellation(text):
		if err := e.store.ClearFlowState(user.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Okay, I won't create %q.", state.Pending.Summary), nil

	case IsSkip(text):
		state.Pending.Attendees = removeName(state.Pending.Attendees, state.MissingName)
		return e.advanceContactEmail(ctx, user, state)

	default:
		email := ExtractEmail(text)
		if email == "" {
			return fmt.Sprintf("That doesn't look like an email address. Send %s's address, or say \"skip\" or \"cancel\".", state.MissingName), nil
		}
		if err := e.store.SaveContact(user.ID, state.MissingName, email); err != nil {
			return "", fmt.Errorf("failed to save contact: %w", err)
		}
		return e.advanceContactEmail(ctx, user, state)
	}
}

// advanceContactEmail moves to the next missing contact, or creates the
// event when nobody is left.
func (e *Engine) advanceContactEmail(ctx context.Context, user *database.User, state *ContactEmailState) (string, error) {
	if len(state.Remaining) > 0 {
		state.MissingName = state.Remaining[0]
		state.Remaining = state.Remaining[1:]
		next := &State{Kind: KindAwaitingContactEmail, ContactEmail: state}
		if err := Save(e.store, user.ID, next); err != nil {
			return "", err
		}
		return askForEmail(state.MissingName), nil
	}

	if err := e.store.ClearFlowState(user.ID); err != nil {
		return "", err
	}
	return e.createFromPayload(ctx, user, state.Pending, state.OriginalResponse), nil
}

func removeName(names []string, drop string) []string {
	var out []string
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}
