package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetRecentMessagesChronological(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	require.NoError(t, db.AppendMessage(user.ID, "user", "first"))
	require.NoError(t, db.AppendMessage(user.ID, "assistant", "second"))
	require.NoError(t, db.AppendMessage(user.ID, "user", "third"))

	messages, err := db.GetRecentMessages(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.Equal(t, "first", messages[0].Text)
	require.Equal(t, "assistant", messages[1].Role)
	require.Equal(t, "third", messages[2].Text)
}

func TestGetRecentMessagesLimitKeepsNewest(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	for i := 0; i < 6; i++ {
		require.NoError(t, db.AppendMessage(user.ID, "user", fmt.Sprintf("msg %d", i)))
	}

	messages, err := db.GetRecentMessages(user.ID, 4)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	require.Equal(t, "msg 2", messages[0].Text)
	require.Equal(t, "msg 5", messages[3].Text)
}

func TestGetRecentMessagesAreUserScoped(t *testing.T) {
	db := NewTestDB(t)
	user := CreateTestUser(t, db)

	other, err := db.CreateUser(999, "other@example.com", "Yoman")
	require.NoError(t, err)

	require.NoError(t, db.AppendMessage(user.ID, "user", "mine"))
	require.NoError(t, db.AppendMessage(other.ID, "user", "theirs"))

	messages, err := db.GetRecentMessages(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "mine", messages[0].Text)
}
