package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when a user has no stored Google credentials.
var ErrNoToken = errors.New("no google token stored")

// SaveGoogleToken upserts a user's OAuth token bundle. An empty refresh
// token on a refreshed bundle keeps the previously stored one.
func (d *DB) SaveGoogleToken(userID int64, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("token is nil")
	}

	refresh := token.RefreshToken
	if refresh == "" {
		// Google only returns the refresh token on first consent.
		existing, err := d.GetGoogleToken(userID)
		if err == nil {
			refresh = existing.RefreshToken
		}
	}

	_, err := d.Exec(`
		INSERT INTO google_tokens (user_id, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = CURRENT_TIMESTAMP
	`, userID, token.AccessToken, refresh, token.TokenType, token.Expiry.UTC())
	if err != nil {
		return fmt.Errorf("failed to save google token: %w", err)
	}
	return nil
}

// GetGoogleToken loads a user's token bundle, ErrNoToken if absent.
func (d *DB) GetGoogleToken(userID int64) (*oauth2.Token, error) {
	var token oauth2.Token
	var expiry sql.NullTime
	err := d.QueryRow(`
		SELECT access_token, refresh_token, token_type, expiry
		FROM google_tokens WHERE user_id = ?
	`, userID).Scan(&token.AccessToken, &token.RefreshToken, &token.TokenType, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get google token: %w", err)
	}
	if expiry.Valid {
		token.Expiry = expiry.Time
	}
	return &token, nil
}

// HasGoogleToken reports whether the user has a refresh-capable bundle.
func (d *DB) HasGoogleToken(userID int64) bool {
	token, err := d.GetGoogleToken(userID)
	return err == nil && token.RefreshToken != ""
}

// ClearGoogleToken drops a user's credentials. Called when the calendar
// backend signals they are no longer usable.
func (d *DB) ClearGoogleToken(userID int64) error {
	_, err := d.Exec(`DELETE FROM google_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear google token: %w", err)
	}
	return nil
}

// TouchGoogleToken refreshes the stored access token after a refresh cycle.
func (d *DB) TouchGoogleToken(userID int64, accessToken string, expiry time.Time) error {
	_, err := d.Exec(`
		UPDATE google_tokens
		SET access_token = ?, expiry = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, accessToken, expiry.UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to touch google token: %w", err)
	}
	return nil
}
