package auth

import (
	"net/http"
	"time"
)

// SetSessionCookie attaches a session token under the cookie namespace of
// its kind. Cookies are httpOnly, lax same-site, and secure in production.
func SetSessionCookie(w http.ResponseWriter, kind Kind, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     kind.CookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie via a zero-maxage set.
func ClearSessionCookie(w http.ResponseWriter, kind Kind, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     kind.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
