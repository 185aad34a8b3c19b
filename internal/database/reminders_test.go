package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGetDueRemindersReturnsOnlyPastUnsent(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-10 * time.Minute)
	future := now.Add(10 * time.Minute)

	dueID := uuid.NewString()
	require.NoError(t, db.CreateReminder(&Reminder{
		ID: dueID, UserID: user.ID, Text: "call mom", DueTime: &past,
	}))
	require.NoError(t, db.CreateReminder(&Reminder{
		ID: uuid.NewString(), UserID: user.ID, Text: "not yet", DueTime: &future,
	}))

	due, err := db.GetDueReminders(now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, dueID, due[0].ID)
	require.Equal(t, "call mom", due[0].Text)
}

func TestMarkReminderSentRetiresIt(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	id := uuid.NewString()
	require.NoError(t, db.CreateReminder(&Reminder{
		ID: id, UserID: user.ID, Text: "send invoice", DueTime: &past, BackupEventID: "backup1",
	}))

	require.NoError(t, db.MarkReminderSent(id))

	due, err := db.GetDueReminders(now)
	require.NoError(t, err)
	require.Empty(t, due)
}
