// Package flow implements the multi-turn conversation flows: collecting
// missing attendee emails before a create, confirming a delete, and
// picking between several matching events. At most one flow is pending
// per user; its state is persisted so a restart does not lose the turn.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/noamgl/yoman/internal/agent"
	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/gcal"
)

const (
	KindAwaitingContactEmail  = "awaiting_missing_contact_email"
	KindAwaitingDeleteConfirm = "awaiting_delete_confirm"
	KindAwaitingEventChoice   = "awaiting_event_choice"
)

// ContactEmailState is the create flow parked on a missing contact: the
// event cannot be created until every attendee has an email, so we ask
// for them one at a time.
type ContactEmailState struct {
	Pending          agent.Payload `json:"pending"`
	MissingName      string        `json:"missing_name"`
	Remaining        []string      `json:"remaining,omitempty"`
	OriginalResponse string        `json:"original_response,omitempty"`
}

// DeleteConfirmState is a delete waiting on an explicit yes or no.
type DeleteConfirmState struct {
	EventID       string `json:"event_id"`
	Summary       string `json:"summary"`
	FormattedTime string `json:"formatted_time"`
}

// EventCandidate is one option shown when a hint matched several events.
type EventCandidate struct {
	EventID       string `json:"event_id"`
	Summary       string `json:"summary"`
	FormattedTime string `json:"formatted_time"`
}

// EventChoiceState is an update or delete waiting for the user to pick
// which of several matching events they meant.
type EventChoiceState struct {
	Action     string           `json:"action"` // "update" or "delete"
	Candidates []EventCandidate `json:"candidates"`
	Pending    agent.Payload    `json:"pending"`
}

// State is the one pending flow for a user. Exactly one variant is set.
type State struct {
	Kind          string              `json:"kind"`
	ContactEmail  *ContactEmailState  `json:"contact_email,omitempty"`
	DeleteConfirm *DeleteConfirmState `json:"delete_confirm,omitempty"`
	EventChoice   *EventChoiceState   `json:"event_choice,omitempty"`
}

// Store is the persistence the flows need, satisfied by *database.DB.
type Store interface {
	GetFlowState(userID int64) (*database.FlowStateRecord, error)
	SaveFlowState(userID int64, kind string, payload []byte) error
	ClearFlowState(userID int64) error
	GetContacts(userID int64) (map[string]string, error)
	SaveContact(userID int64, name, email string) error
	GetColorPreferences(userID int64) (map[string]string, error)
}

// Calendar is the slice of the calendar client the flows use.
type Calendar interface {
	SearchEvents(ctx context.Context, userID int64, query string, from, to time.Time, max int64) ([]gcal.EventDetails, error)
	CreateEvent(ctx context.Context, userID int64, input gcal.EventInput) (*gcal.EventDetails, error)
	PatchEvent(ctx context.Context, userID int64, eventID string, patch gcal.EventPatch) (*gcal.EventDetails, error)
	DeleteEvent(ctx context.Context, userID int64, eventID string) error
	GetEvent(ctx context.Context, userID int64, eventID string) (*gcal.EventDetails, error)
}

// Load reads the pending flow for a user, or nil when there is none.
func Load(store Store, userID int64) (*State, error) {
	record, err := store.GetFlowState(userID)
	if errors.Is(err, database.ErrNoFlowState) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state State
	if err := json.Unmarshal(record.Payload, &state); err != nil {
		// Unreadable state would wedge the user forever; drop it.
		fmt.Printf("Flow: clearing unreadable state for user %d: %v\n", userID, err)
		_ = store.ClearFlowState(userID)
		return nil, nil
	}
	if state.Kind == "" {
		state.Kind = record.Kind
	}
	return &state, nil
}

// Save persists a pending flow, replacing whatever was there.
func Save(store Store, userID int64, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode flow state: %w", err)
	}
	return store.SaveFlowState(userID, state.Kind, payload)
}
