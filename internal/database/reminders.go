package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Reminder is a lightweight nudge, separate from calendar events.
type Reminder struct {
	ID            string
	UserID        int64
	Text          string
	DueTime       *time.Time
	BackupEventID string
	Sent          bool
	CreatedAt     time.Time
}

// CreateReminder stores a new reminder. The caller supplies the id.
func (d *DB) CreateReminder(r *Reminder) error {
	var due any
	if r.DueTime != nil {
		due = r.DueTime.UTC()
	}
	_, err := d.Exec(`
		INSERT INTO reminders (id, user_id, text, due_time, backup_event_id)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.UserID, r.Text, due, r.BackupEventID)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// GetDueReminders returns unsent reminders whose due time has passed.
func (d *DB) GetDueReminders(now time.Time) ([]Reminder, error) {
	rows, err := d.Query(`
		SELECT id, user_id, text, due_time, COALESCE(backup_event_id, ''), sent, created_at
		FROM reminders
		WHERE sent = 0 AND due_time IS NOT NULL AND due_time <= ?
		ORDER BY due_time
	`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		var due sql.NullTime
		if err := rows.Scan(&r.ID, &r.UserID, &r.Text, &due, &r.BackupEventID, &r.Sent, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		if due.Valid {
			t := due.Time
			r.DueTime = &t
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// MarkReminderSent flags a reminder as delivered.
func (d *DB) MarkReminderSent(id string) error {
	_, err := d.Exec(`UPDATE reminders SET sent = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}
