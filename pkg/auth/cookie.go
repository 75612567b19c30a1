package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "jwt-hireNest"

// SessionCookieMaxAge is how long browsers keep the session cookie.
const SessionCookieMaxAge = 3 * 24 * time.Hour

// SetSessionCookie writes the session token cookie.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session token cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// SessionToken reads the session token from the request cookie.
func SessionToken(r *http.Request) (string, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return "", ErrMissingToken
	}
	return c.Value, nil
}
