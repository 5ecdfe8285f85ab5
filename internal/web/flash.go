package web

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

const (
	flashCookieName = "flash"
	flashTTL        = time.Minute
)

// Flash kinds.
const (
	flashError = "error"
	flashInfo  = "info"
)

// setFlash stores a one-shot message for the next page render.
func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    kind + ":" + base64.RawURLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(flashTTL.Seconds()),
	})
}

// popFlash reads and clears the flash cookie. It returns nil when there is
// none or it is malformed.
func popFlash(w http.ResponseWriter, r *http.Request) *FlashMessage {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	clearFlash(w)

	kind, encoded, ok := strings.Cut(cookie.Value, ":")
	if !ok {
		return nil
	}
	message, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(message) == 0 {
		return nil
	}
	switch kind {
	case flashError, flashInfo:
	default:
		return nil
	}
	return &FlashMessage{Type: kind, Message: string(message)}
}

// clearFlash removes the flash cookie from the response.
func clearFlash(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
