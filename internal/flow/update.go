package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noamgl/yoman/internal/agent"
	"github.com/noamgl/yoman/internal/contacts"
	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/gcal"
	"github.com/noamgl/yoman/internal/timeutil"
)

// StartUpdate handles an update_event turn. With exactly one matching
// event the patch is applied in the same turn; several matches park the
// flow on a numbered choice.
func (e *Engine) StartUpdate(ctx context.Context, user *database.User, ci agent.ClassifiedIntent) (string, error) {
	payload := ci.Payload
	if payload.EventHint == "" {
		return "Which event would you like to change?", nil
	}

	events, err := findByHint(ctx, e.cal, user.ID, payload.EventHint, e.now())
	if err != nil {
		return replyForError("search events", err), nil
	}

	switch len(events) {
	case 0:
		return fmt.Sprintf("I couldn't find an upcoming event matching %q.", payload.EventHint), nil
	case 1:
		return e.applyUpdate(ctx, user, &events[0], payload), nil
	default:
		candidates := candidatesFrom(events, user.Timezone)
		state := &State{
			Kind: KindAwaitingEventChoice,
			EventChoice: &EventChoiceState{
				Action:     "update",
				Candidates: candidates,
				Pending:    payload,
			},
		}
		if err := Save(e.store, user.ID, state); err != nil {
			return "", err
		}
		return fmt.Sprintf("I found a few events matching %q:\n%s\nWhich one did you mean?",
			payload.EventHint, formatChoices(candidates)), nil
	}
}

// applyUpdate builds a patch touching only the fields the user asked to
// change, then describes exactly those changes back.
func (e *Engine) applyUpdate(ctx context.Context, user *database.User, event *gcal.EventDetails, payload agent.Payload) string {
	var patch gcal.EventPatch
	var changes []string
	var skippedAttendees []string

	if payload.NewTitle != "" {
		patch.Summary = &payload.NewTitle
		changes = append(changes, fmt.Sprintf("renamed it from %q to %q", event.Summary, payload.NewTitle))
	}

	if payload.NewStartTime != "" {
		start, err := timeutil.ParseDateTime(payload.NewStartTime, user.Timezone)
		if err != nil {
			fmt.Printf("Flow: bad new start time for user %d: %v\n", user.ID, err)
			return "I couldn't make sense of the new time. Could you rephrase it?"
		}
		// Moving the start keeps the event's duration unless a new end
		// was given too.
		end := start.Add(event.EndTime.Sub(event.StartTime))
		if payload.NewEndTime != "" {
			parsed, err := timeutil.ParseDateTime(payload.NewEndTime, user.Timezone)
			if err != nil || !parsed.After(start) {
				return "The new end time has to come after the start. Could you rephrase it?"
			}
			end = parsed
		}
		patch.StartTime = &start
		patch.EndTime = &end
		changes = append(changes, fmt.Sprintf("moved it from %s to %s",
			timeutil.FormatEventTime(event.StartTime, event.AllDay, user.Timezone),
			timeutil.FormatEventTime(start, false, user.Timezone)))
	} else if payload.NewEndTime != "" {
		end, err := timeutil.ParseDateTime(payload.NewEndTime, user.Timezone)
		if err != nil || !end.After(event.StartTime) {
			return "The new end time has to come after the start. Could you rephrase it?"
		}
		patch.EndTime = &end
		loc, _ := timeutil.ResolveLocation(user.Timezone)
		changes = append(changes, fmt.Sprintf("changed the end from %s to %s",
			event.EndTime.In(loc).Format("15:04"), end.In(loc).Format("15:04")))
	}

	if payload.NewLocation != "" {
		patch.Location = &payload.NewLocation
		if event.Location != "" {
			changes = append(changes, fmt.Sprintf("moved the location from %s to %s", event.Location, payload.NewLocation))
		} else {
			changes = append(changes, fmt.Sprintf("set the location to %s", payload.NewLocation))
		}
	}

	if payload.NewColorName != "" {
		if id, ok := gcal.ColorIDForName(payload.NewColorName); ok {
			patch.ColorID = &id
			if old := gcal.ColorNameForID(event.ColorID); old != "" && old != gcal.ColorNameForID(id) {
				changes = append(changes, fmt.Sprintf("recolored it from %s to %s", old, gcal.ColorNameForID(id)))
			} else {
				changes = append(changes, fmt.Sprintf("colored it %s", gcal.ColorNameForID(id)))
			}
		} else {
			fmt.Printf("Flow: unknown color name %q for user %d\n", payload.NewColorName, user.ID)
		}
	}

	if len(payload.AddAttendees) > 0 {
		book, err := e.store.GetContacts(user.ID)
		if err != nil {
			fmt.Printf("Flow: failed to load contacts for user %d: %v\n", user.ID, err)
			book = nil
		}
		resolved := contacts.Resolve(payload.AddAttendees, book)
		skippedAttendees = contacts.FindMissing(payload.AddAttendees, book)

		if len(resolved) > 0 {
			merged := mergeAttendees(event.Attendees, resolved)
			patch.Attendees = merged
			var names []string
			for _, r := range resolved {
				names = append(names, r.Name)
			}
			changes = append(changes, fmt.Sprintf("invited %s", strings.Join(names, ", ")))
		}
	}

	if patch.IsEmpty() {
		if len(skippedAttendees) > 0 {
			return fmt.Sprintf("I don't have email addresses for %s, so I couldn't invite them. You can save their contacts and try again.",
				strings.Join(skippedAttendees, ", "))
		}
		return fmt.Sprintf("What would you like to change about %q?", event.Summary)
	}

	updated, err := e.cal.PatchEvent(ctx, user.ID, event.ID, patch)
	if err != nil {
		if errors.Is(err, gcal.ErrEventNotFound) {
			return fmt.Sprintf("It looks like %q was already removed from your calendar.", event.Summary)
		}
		return replyForError("update event", err)
	}

	reply := fmt.Sprintf("Updated %q: %s.", updated.Summary, strings.Join(changes, ", "))
	if len(skippedAttendees) > 0 {
		reply += fmt.Sprintf(" I couldn't invite %s (no saved email).", strings.Join(skippedAttendees, ", "))
	}
	return reply
}

// mergeAttendees appends the newly resolved invitees to the existing
// list, deduplicating by email address.
func mergeAttendees(existing []gcal.EventAttendee, added []contacts.Resolved) []gcal.EventAttendee {
	seen := make(map[string]bool, len(existing))
	merged := make([]gcal.EventAttendee, 0, len(existing)+len(added))
	for _, a := range existing {
		key := strings.ToLower(a.Email)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, a)
	}
	for _, r := range added {
		key := strings.ToLower(r.Email)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, gcal.EventAttendee{Email: r.Email, DisplayName: r.Name})
	}
	return merged
}
