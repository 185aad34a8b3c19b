package database

import (
	"fmt"
)

// GetColorPreferences returns the user's category → color-id map.
func (d *DB) GetColorPreferences(userID int64) (map[string]string, error) {
	rows, err := d.Query(`SELECT category, color_id FROM color_preferences WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query color preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var category, colorID string
		if err := rows.Scan(&category, &colorID); err != nil {
			return nil, fmt.Errorf("failed to scan color preference: %w", err)
		}
		prefs[category] = colorID
	}
	return prefs, rows.Err()
}

// SetColorPreference upserts a single category color.
func (d *DB) SetColorPreference(userID int64, category, colorID string) error {
	_, err := d.Exec(`
		INSERT INTO color_preferences (user_id, category, color_id)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, category) DO UPDATE SET color_id = excluded.color_id
	`, userID, category, colorID)
	if err != nil {
		return fmt.Errorf("failed to set color preference: %w", err)
	}
	return nil
}

// SeedColorPreferences writes defaults for categories the user has not set.
func (d *DB) SeedColorPreferences(userID int64, defaults map[string]string) error {
	for category, colorID := range defaults {
		_, err := d.Exec(`
			INSERT INTO color_preferences (user_id, category, color_id)
			VALUES (?, ?, ?)
			ON CONFLICT(user_id, category) DO NOTHING
		`, userID, category, colorID)
		if err != nil {
			return fmt.Errorf("failed to seed color preference %s: %w", category, err)
		}
	}
	return nil
}
