package migrations

import (
	"database/sql"
)

func init() {
	Register(Migration{
		Version: 3,
		Name:    "briefing_email",
		Up:      briefingEmail,
	})
}

// Briefings started Telegram-only; email went out as an optional second
// channel later, so the address lives in its own column.
func briefingEmail(db *sql.DB) error {
	statements := []string{
		`ALTER TABLE users ADD COLUMN briefing_email TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE users ADD COLUMN briefing_hour INTEGER NOT NULL DEFAULT 8`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
