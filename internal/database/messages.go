package database

import (
	"fmt"
	"time"
)

// MessageRecord is one stored conversation turn.
type MessageRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// AppendMessage stores one turn of the conversation.
func (d *DB) AppendMessage(userID int64, role, text string) error {
	_, err := d.Exec(`
		INSERT INTO message_history (user_id, role, message_text, timestamp)
		VALUES (?, ?, ?, ?)
	`, userID, role, text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// GetRecentMessages returns the last N turns in chronological order.
func (d *DB) GetRecentMessages(userID int64, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.Query(`
		SELECT id, user_id, role, message_text, timestamp
		FROM message_history
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query message history: %w", err)
	}
	defer rows.Close()

	var messages []MessageRecord
	for rows.Next() {
		var m MessageRecord
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query is newest-first; callers want chronological.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
