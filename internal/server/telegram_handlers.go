package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TelegramAuthenticator is the slice of the Telegram client the login
// endpoints need. The client is created after the server starts, so it
// arrives through SetTelegramClient rather than the constructor.
type TelegramAuthenticator interface {
	IsConnected() bool
	SendCode(ctx context.Context, phoneNumber string) error
	VerifyCode(ctx context.Context, code string) error
}

// SetTelegramClient attaches the Telegram client once it exists.
func (s *Server) SetTelegramClient(tg TelegramAuthenticator) {
	s.tg = tg
}

// handleTelegramStatus reports whether the bot's Telegram session is
// authenticated.
func (s *Server) handleTelegramStatus(w http.ResponseWriter, r *http.Request) {
	if s.tg == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"connected": false,
			"message":   "Telegram not configured",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connected": s.tg.IsConnected()})
}

type telegramSendCodeRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// handleTelegramSendCode starts first-time login: Telegram texts a code
// to the bot account's phone. The phone can come from the request body
// or from TELEGRAM_PHONE.
func (s *Server) handleTelegramSendCode(w http.ResponseWriter, r *http.Request) {
	if s.tg == nil {
		writeError(w, http.StatusServiceUnavailable, "Telegram not configured")
		return
	}

	var req telegramSendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	phone := req.PhoneNumber
	if phone == "" {
		phone = s.cfg.TelegramPhone
	}
	if phone == "" {
		writeError(w, http.StatusBadRequest, "phone_number is required (or set TELEGRAM_PHONE)")
		return
	}

	if err := s.tg.SendCode(r.Context(), phone); err != nil {
		fmt.Printf("Server: failed to send Telegram code: %v\n", err)
		writeError(w, http.StatusBadGateway, "failed to send verification code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type telegramVerifyCodeRequest struct {
	Code string `json:"code"`
}

// handleTelegramVerifyCode completes login with the code Telegram sent.
func (s *Server) handleTelegramVerifyCode(w http.ResponseWriter, r *http.Request) {
	if s.tg == nil {
		writeError(w, http.StatusServiceUnavailable, "Telegram not configured")
		return
	}

	var req telegramVerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := s.tg.VerifyCode(r.Context(), req.Code); err != nil {
		fmt.Printf("Server: Telegram code verification failed: %v\n", err)
		writeError(w, http.StatusBadGateway, "code verification failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "authenticated"})
}
