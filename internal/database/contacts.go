package database

import (
	"fmt"
)

// GetContacts returns the user's contact book as a name → email map.
// Names keep the casing they were saved with.
func (d *DB) GetContacts(userID int64) (map[string]string, error) {
	rows, err := d.Query(`SELECT name, email FROM contacts WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	contacts := make(map[string]string)
	for rows.Next() {
		var name, email string
		if err := rows.Scan(&name, &email); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts[name] = email
	}
	return contacts, rows.Err()
}

// SaveContact upserts one contact. The unique index is case-insensitive on
// name, so "dani" and "Dani" are the same entry.
func (d *DB) SaveContact(userID int64, name, email string) error {
	_, err := d.Exec(`
		INSERT INTO contacts (user_id, name, email)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, name COLLATE NOCASE) DO UPDATE SET email = excluded.email
	`, userID, name, email)
	if err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}
	return nil
}

// DeleteContact removes a contact by name (case-insensitive).
func (d *DB) DeleteContact(userID int64, name string) error {
	_, err := d.Exec(`DELETE FROM contacts WHERE user_id = ? AND name = ? COLLATE NOCASE`, userID, name)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}
