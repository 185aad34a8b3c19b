package gcal

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/noamgl/yoman/internal/database"
)

// TokenStore is the slice of the profile store the calendar client needs.
type TokenStore interface {
	GetGoogleToken(userID int64) (*oauth2.Token, error)
	SaveGoogleToken(userID int64, token *oauth2.Token) error
	ClearGoogleToken(userID int64) error
}

// Client wraps the Google Calendar API for per-user token bundles.
type Client struct {
	config *oauth2.Config
	tokens TokenStore
}

// NewClient loads the OAuth app config and binds the token store.
func NewClient(credentialsFile string, tokens TokenStore) (*Client, error) {
	config, err := loadOAuthConfig(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth config: %w", err)
	}

	return &Client{
		config: config,
		tokens: tokens,
	}, nil
}

func loadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(data,
		calendar.CalendarScope,
		calendar.CalendarEventsScope,
		oauth2api.UserinfoEmailScope,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return config, nil
}

// AuthURL returns the consent URL; state carries the Telegram user binding.
func (c *Client) AuthURL(state, redirectURI string) string {
	config := *c.config
	if redirectURI != "" {
		config.RedirectURL = redirectURI
	}
	return config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token bundle.
func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	config := *c.config
	if redirectURI != "" {
		config.RedirectURL = redirectURI
	}
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// UserEmail looks up the Google account email behind a fresh token.
func (c *Client) UserEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	service, err := oauth2api.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(token)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	return info.Email, nil
}

// serviceFor builds a calendar service with the user's stored token,
// refreshing it when expired. A dead or missing bundle is cleared and
// surfaces as ErrAuthRequired — re-auth is the only recovery.
func (c *Client) serviceFor(ctx context.Context, userID int64) (*calendar.Service, error) {
	token, err := c.tokens.GetGoogleToken(userID)
	if err != nil {
		return nil, ErrAuthRequired
	}
	if token.RefreshToken == "" {
		return nil, ErrAuthRequired
	}

	if !token.Valid() {
		fresh, err := c.config.TokenSource(ctx, token).Token()
		if err != nil {
			fmt.Printf("Calendar: token refresh failed for user %d: %v\n", userID, err)
			_ = c.tokens.ClearGoogleToken(userID)
			return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
		}
		token = fresh
		if err := c.tokens.SaveGoogleToken(userID, fresh); err != nil {
			fmt.Printf("Calendar: could not persist refreshed token for user %d: %v\n", userID, err)
		}
	}

	service, err := calendar.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(token)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return service, nil
}

var _ TokenStore = (*database.DB)(nil)
