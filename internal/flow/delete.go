package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/noamgl/yoman/internal/agent"
	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/gcal"
	"github.com/noamgl/yoman/internal/timeutil"
)

// StartDelete handles a delete_event turn. Nothing is ever deleted in
// the turn that asked for it: one match parks on a yes/no confirmation,
// several matches park on a choice first.
func (e *Engine) StartDelete(ctx context.Context, user *database.User, ci agent.ClassifiedIntent) (string, error) {
	payload := ci.Payload
	if payload.EventHint == "" {
		return "Which event would you like me to delete?", nil
	}

	events, err := findByHint(ctx, e.cal, user.ID, payload.EventHint, e.now())
	if err != nil {
		return replyForError("search events", err), nil
	}

	switch len(events) {
	case 0:
		return fmt.Sprintf("I couldn't find an upcoming event matching %q.", payload.EventHint), nil
	case 1:
		return e.askDeleteConfirm(user, &events[0])
	default:
		candidates := candidatesFrom(events, user.Timezone)
		state := &State{
			Kind: KindAwaitingEventChoice,
			EventChoice: &EventChoiceState{
				Action:     "delete",
				Candidates: candidates,
				Pending:    payload,
			},
		}
		if err := Save(e.store, user.ID, state); err != nil {
			return "", err
		}
		return fmt.Sprintf("I found a few events matching %q:\n%s\nWhich one should I delete?",
			payload.EventHint, formatChoices(candidates)), nil
	}
}

func (e *Engine) askDeleteConfirm(user *database.User, event *gcal.EventDetails) (string, error) {
	formatted := timeutil.FormatEventTime(event.StartTime, event.AllDay, user.Timezone)
	state := &State{
		Kind: KindAwaitingDeleteConfirm,
		DeleteConfirm: &DeleteConfirmState{
			EventID:       event.ID,
			Summary:       event.Summary,
			FormattedTime: formatted,
		},
	}
	if err := Save(e.store, user.ID, state); err != nil {
		return "", err
	}
	return fmt.Sprintf("Should I delete %q on %s? (yes/no)", event.Summary, formatted), nil
}

// resumeDeleteConfirm handles the yes/no reply. Anything outside the
// confirm and cancel phrase sets re-asks and keeps the flow pending.
func (e *Engine) resumeDeleteConfirm(ctx context.Context, user *database.User, state *DeleteConfirmState, text string) (string, error) {
	switch {
	case IsConfirmation(text):
		if err := e.store.ClearFlowState(user.ID); err != nil {
			return "", err
		}
		err := e.cal.DeleteEvent(ctx, user.ID, state.EventID)
		if errors.Is(err, gcal.ErrEventNotFound) {
			return fmt.Sprintf("%q was already gone from your calendar.", state.Summary), nil
		}
		if err != nil {
			return replyForError("delete event", err), nil
		}
		return fmt.Sprintf("Deleted %q (%s).", state.Summary, state.FormattedTime), nil

	case IsCancellation(text):
		if err := e.store.ClearFlowState(user.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Okay, I'll leave %q alone.", state.Summary), nil

	default:
		return fmt.Sprintf("Just to be safe: should I delete %q on %s? Please reply yes or no.",
			state.Summary, state.FormattedTime), nil
	}
}

// resumeEventChoice handles the pick between several matching events.
func (e *Engine) resumeEventChoice(ctx context.Context, user *database.User, state *EventChoiceState, text string) (string, error) {
	if IsCancellation(text) {
		if err := e.store.ClearFlowState(user.ID); err != nil {
			return "", err
		}
		return "Okay, never mind.", nil
	}

	idx, ok := parseChoice(text, len(state.Candidates))
	if !ok {
		return fmt.Sprintf("Please pick one by number:\n%s\n(or say \"cancel\")",
			formatChoices(state.Candidates)), nil
	}
	chosen := state.Candidates[idx]

	switch state.Action {
	case "delete":
		next := &State{
			Kind: KindAwaitingDeleteConfirm,
			DeleteConfirm: &DeleteConfirmState{
				EventID:       chosen.EventID,
				Summary:       chosen.Summary,
				FormattedTime: chosen.FormattedTime,
			},
		}
		if err := Save(e.store, user.ID, next); err != nil {
			return "", err
		}
		return fmt.Sprintf("Should I delete %q on %s? (yes/no)", chosen.Summary, chosen.FormattedTime), nil

	case "update":
		if err := e.store.ClearFlowState(user.ID); err != nil {
			return "", err
		}
		event, err := e.cal.GetEvent(ctx, user.ID, chosen.EventID)
		if errors.Is(err, gcal.ErrEventNotFound) {
			return fmt.Sprintf("It looks like %q was already removed from your calendar.", chosen.Summary), nil
		}
		if err != nil {
			return replyForError("get event", err), nil
		}
		return e.applyUpdate(ctx, user, event, state.Pending), nil

	default:
		// Unknown action means corrupt state; drop it.
		if err := e.store.ClearFlowState(user.ID); err != nil {
			return "", err
		}
		return "Sorry, I lost track of that. Could you start over?", nil
	}
}

// Resume routes the user's reply to whichever flow is pending and
// returns the single reply for this turn.
func (e *Engine) Resume(ctx context.Context, user *database.User, state *State, text string) (string, error) {
	switch state.Kind {
	case KindAwaitingContactEmail:
		if state.ContactEmail != nil {
			return e.resumeContactEmail(ctx, user, state.ContactEmail, text)
		}
	case KindAwaitingDeleteConfirm:
		if state.DeleteConfirm != nil {
			return e.resumeDeleteConfirm(ctx, user, state.DeleteConfirm, text)
		}
	case KindAwaitingEventChoice:
		if state.EventChoice != nil {
			return e.resumeEventChoice(ctx, user, state.EventChoice, text)
		}
	}

	fmt.Printf("Flow: dropping malformed %q state for user %d\n", state.Kind, user.ID)
	if err := e.store.ClearFlowState(user.ID); err != nil {
		return "", err
	}
	return "Sorry, I lost track of that. Could you start over?", nil
}
