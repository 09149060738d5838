package httputil

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

const SessionCookieName = "session_token"

func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, isProduction bool) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   isProduction, // Only require HTTPS in production
	}

	// SameSite=None requires Secure=true, so use Lax for development
	if isProduction {
		cookie.SameSite = http.SameSiteNoneMode
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}

	http.SetCookie(w, cookie)
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// GetTokenFromCookie extracts the session token from its cookie
func GetTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", errors.New("session cookie not found")
	}
	if cookie.Value == "" {
		return "", errors.New("session cookie is empty")
	}
	return cookie.Value, nil
}

// GetTokenFromRequest prefers the cookie and falls back to the Authorization header.
func GetTokenFromRequest(r *http.Request) (string, error) {
	token, err := GetTokenFromCookie(r)
	if err == nil {
		return token, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Support "Bearer <token>" format
		return strings.TrimPrefix(authHeader, "Bearer "), nil
	}

	return "", errors.New("no session token found in cookie or header")
}
