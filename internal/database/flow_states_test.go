package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetFlowStateWhenIdle(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	_, err := db.GetFlowState(user.ID)
	require.True(t, errors.Is(err, ErrNoFlowState))
}

func TestSaveFlowStateOverwritesPending(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	require.NoError(t, db.SaveFlowState(user.ID, "awaiting_delete_confirm", []byte(`{"event_id":"abc"}`)))
	require.NoError(t, db.SaveFlowState(user.ID, "awaiting_event_choice", []byte(`{"action":"update"}`)))

	rec, err := db.GetFlowState(user.ID)
	require.NoError(t, err)
	require.Equal(t, "awaiting_event_choice", rec.Kind)
	require.JSONEq(t, `{"action":"update"}`, string(rec.Payload))

	// Exactly one pending flow per user.
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM flow_states WHERE user_id = ?`, user.ID).Scan(&count))
	require.Equal(t, 1, count)
}

func TestClearFlowState(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	require.NoError(t, db.SaveFlowState(user.ID, "awaiting_delete_confirm", []byte(`{}`)))
	require.NoError(t, db.ClearFlowState(user.ID))

	_, err := db.GetFlowState(user.ID)
	require.True(t, errors.Is(err, ErrNoFlowState))

	// Clearing an idle user is fine.
	require.NoError(t, db.ClearFlowState(user.ID))
}
