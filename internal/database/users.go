package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrUserNotFound is returned when no user row exists for the given key.
var ErrUserNotFound = errors.New("user not found")

// User is the persisted profile for one Telegram account.
type User struct {
	ID                  int64
	TelegramID          int64
	GoogleEmail         string
	Nickname            string
	AgentName           string
	Timezone            string
	OnboardingCompleted bool
	EnableReminders     bool
	EnableDailyBriefing bool
	BriefingEmail       string
	BriefingHour        int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

const userColumns = `id, telegram_id, COALESCE(google_email, ''), nickname, agent_name, timezone,
	onboarding_completed, enable_reminders, enable_daily_briefing, briefing_email, briefing_hour,
	created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.GoogleEmail,
		&u.Nickname,
		&u.AgentName,
		&u.Timezone,
		&u.OnboardingCompleted,
		&u.EnableReminders,
		&u.EnableDailyBriefing,
		&u.BriefingEmail,
		&u.BriefingHour,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByTelegramID fetches a user profile, ErrUserNotFound if absent.
func (d *DB) GetUserByTelegramID(telegramID int64) (*User, error) {
	row := d.QueryRow(`SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByID fetches a user profile by primary key.
func (d *DB) GetUserByID(id int64) (*User, error) {
	row := d.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetAllUsers returns all users, ordered by id.
func (d *DB) GetAllUsers() ([]User, error) {
	rows, err := d.Query(`SELECT ` + userColumns + ` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CreateUser inserts a new profile. Called once, after the first successful
// OAuth exchange.
func (d *DB) CreateUser(telegramID int64, googleEmail, agentName string) (*User, error) {
	_, err := d.Exec(`
		INSERT INTO users (telegram_id, google_email, agent_name)
		VALUES (?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET google_email = excluded.google_email, updated_at = CURRENT_TIMESTAMP
	`, telegramID, googleEmail, agentName)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return d.GetUserByTelegramID(telegramID)
}

// UserUpdate carries the optional fields of a partial profile update. Nil
// fields are left untouched.
type UserUpdate struct {
	Nickname            *string
	AgentName           *string
	Timezone            *string
	OnboardingCompleted *bool
	EnableReminders     *bool
	EnableDailyBriefing *bool
	BriefingEmail       *string
	BriefingHour        *int
}

// UpdateUser applies a partial update to the profile.
func (d *DB) UpdateUser(userID int64, upd UserUpdate) error {
	set := ""
	var args []any
	add := func(col string, v any) {
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, v)
	}

	if upd.Nickname != nil {
		add("nickname", *upd.Nickname)
	}
	if upd.AgentName != nil {
		add("agent_name", *upd.AgentName)
	}
	if upd.Timezone != nil {
		add("timezone", *upd.Timezone)
	}
	if upd.OnboardingCompleted != nil {
		add("onboarding_completed", *upd.OnboardingCompleted)
	}
	if upd.EnableReminders != nil {
		add("enable_reminders", *upd.EnableReminders)
	}
	if upd.EnableDailyBriefing != nil {
		add("enable_daily_briefing", *upd.EnableDailyBriefing)
	}
	if upd.BriefingEmail != nil {
		add("briefing_email", *upd.BriefingEmail)
	}
	if upd.BriefingHour != nil {
		add("briefing_hour", *upd.BriefingHour)
	}

	if set == "" {
		return nil
	}

	set += ", updated_at = CURRENT_TIMESTAMP"
	args = append(args, userID)

	_, err := d.Exec("UPDATE users SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}
