package auth

import (
	"net/http"
	"strings"
	"time"
)

// TokenCookieName is the cookie the browser frontends authenticate with.
const TokenCookieName = "token"

// SetTokenCookie writes the session cookie after a successful login.
func SetTokenCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearTokenCookie overwrites the session cookie with a placeholder that
// expires immediately. Logout is otherwise stateless: previously issued
// tokens stay valid until their expiry.
func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "none",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		MaxAge:   10,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TokenFromRequest extracts the bearer token, preferring the Authorization
// header over the session cookie. Returns an empty string when neither is
// present.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}

	cookie, err := r.Cookie(TokenCookieName)
	if err != nil || cookie.Value == "" || cookie.Value == "none" {
		return ""
	}
	return cookie.Value
}
