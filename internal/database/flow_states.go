package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// FlowStateRecord is the raw persisted form of a pending multi-turn flow.
// The payload is a JSON blob owned by the flow package; the database only
// guarantees at most one row per user.
type FlowStateRecord struct {
	UserID    int64
	Kind      string
	Payload   []byte
	UpdatedAt time.Time
}

// ErrNoFlowState is returned when the user has no pending flow.
var ErrNoFlowState = errors.New("no pending flow state")

// GetFlowState loads the user's pending flow, ErrNoFlowState if idle.
func (d *DB) GetFlowState(userID int64) (*FlowStateRecord, error) {
	var rec FlowStateRecord
	rec.UserID = userID
	err := d.QueryRow(`
		SELECT kind, payload, updated_at FROM flow_states WHERE user_id = ?
	`, userID).Scan(&rec.Kind, &rec.Payload, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoFlowState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flow state: %w", err)
	}
	return &rec, nil
}

// SaveFlowState upserts the user's pending flow. Starting a new flow
// overwrites whatever was pending; a user has at most one.
func (d *DB) SaveFlowState(userID int64, kind string, payload []byte) error {
	_, err := d.Exec(`
		INSERT INTO flow_states (user_id, kind, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			kind = excluded.kind,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, userID, kind, payload)
	if err != nil {
		return fmt.Errorf("failed to save flow state: %w", err)
	}
	return nil
}

// ClearFlowState returns the user to idle. Clearing an already-idle user is
// not an error.
func (d *DB) ClearFlowState(userID int64) error {
	_, err := d.Exec(`DELETE FROM flow_states WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear flow state: %w", err)
	}
	return nil
}
