package server

import (
	"fmt"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

// handleAuthQR renders the consent link as a QR code PNG, so the link
// can be scanned from a laptop screen instead of retyped on a phone.
func (s *Server) handleAuthQR(w http.ResponseWriter, r *http.Request) {
	telegramID, err := telegramIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	png, err := qrcode.Encode(s.ConnectURL(telegramID), qrcode.Medium, 256)
	if err != nil {
		fmt.Printf("Server: QR encode failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, "failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
