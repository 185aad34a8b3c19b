// Package server exposes the small HTTP surface: health, the Google
// consent flow, and a QR code that wraps the consent link for phones.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/noamgl/yoman/internal/config"
	"github.com/noamgl/yoman/internal/database"
	"github.com/noamgl/yoman/internal/gcal"
)

type Server struct {
	db      *database.DB
	gcal    *gcal.Client
	cfg     *config.Config
	tg      TelegramAuthenticator
	httpSrv *http.Server
}

func New(db *database.DB, gcalClient *gcal.Client, cfg *config.Config) *Server {
	s := &Server{
		db:   db,
		gcal: gcalClient,
		cfg:  cfg,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealthCheck)
	mux.HandleFunc("GET /auth/url", s.handleAuthURL)
	mux.HandleFunc("GET /auth/qr", s.handleAuthQR)
	mux.HandleFunc("GET /oauth2callback", s.handleOAuthCallback)
	mux.HandleFunc("GET /telegram/status", s.handleTelegramStatus)
	mux.HandleFunc("POST /telegram/send-code", s.handleTelegramSendCode)
	mux.HandleFunc("POST /telegram/verify-code", s.handleTelegramVerifyCode)
}

func (s *Server) Start() error {
	fmt.Printf("Starting HTTP server on http://localhost:%d\n", s.cfg.HTTPPort)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ConnectURL builds the consent link handed out in chat for a Telegram
// account that has not linked a calendar yet.
func (s *Server) ConnectURL(telegramID int64) string {
	return fmt.Sprintf("%s/auth/url?telegram_id=%d", s.cfg.PublicBaseURL, telegramID)
}

func (s *Server) redirectURI() string {
	return s.cfg.PublicBaseURL + "/oauth2callback"
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func telegramIDParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("telegram_id")
	if raw == "" {
		return 0, fmt.Errorf("telegram_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("telegram_id must be a positive integer")
	}
	return id, nil
}

// handleAuthURL redirects the browser straight into Google's consent
// screen. The Telegram id rides along in the OAuth state.
func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	telegramID, err := telegramIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	url := s.gcal.AuthURL(strconv.FormatInt(telegramID, 10), s.redirectURI())
	http.Redirect(w, r, url, http.StatusFound)
}

// handleOAuthCallback finishes the consent flow: code for token, token
// into the store, profile row created on first connect.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("authorization declined: %s", errMsg))
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		writeError(w, http.StatusBadRequest, "code and state are required")
		return
	}

	telegramID, err := strconv.ParseInt(state, 10, 64)
	if err != nil || telegramID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid state")
		return
	}

	token, err := s.gcal.Exchange(r.Context(), code, s.redirectURI())
	if err != nil {
		fmt.Printf("Server: OAuth exchange failed for telegram id %d: %v\n", telegramID, err)
		writeError(w, http.StatusBadGateway, "failed to complete Google authorization")
		return
	}

	email, err := s.gcal.UserEmail(r.Context(), token)
	if err != nil {
		fmt.Printf("Server: userinfo lookup failed for telegram id %d: %v\n", telegramID, err)
		email = ""
	}

	user, err := s.db.CreateUser(telegramID, email, s.cfg.AgentName)
	if err != nil {
		fmt.Printf("Server: failed to create user for telegram id %d: %v\n", telegramID, err)
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	if err := s.db.SaveGoogleToken(user.ID, token); err != nil {
		fmt.Printf("Server: failed to save token for user %d: %v\n", user.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to save credentials")
		return
	}

	// First connect gets the stock category colors to tweak later.
	if err := s.db.SeedColorPreferences(user.ID, gcal.CategoryColorDefaults()); err != nil {
		fmt.Printf("Server: failed to seed color preferences for user %d: %v\n", user.ID, err)
	}

	fmt.Printf("Server: calendar connected for telegram id %d (%s)\n", telegramID, email)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><body style="font-family: sans-serif; text-align: center; margin-top: 80px;">
<h2>✅ Calendar connected!</h2>
<p>You can close this tab and go back to Telegram.</p>
</body></html>`)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf("Server: failed to encode response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
