// Package cookie reads and writes the session and OAuth state cookies.
package cookie

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"academy/config"
	"academy/internal/errors"
	"academy/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	oauthStateCookie = "academy.oauth-state"
	oauthStatePath   = "/auth/oauth"
	stateBytes       = 24
)

// Manager holds the cookie attributes taken from configuration.
type Manager struct {
	sessionName string
	secure      bool
	stateTTL    time.Duration
}

// NewManager is the constructor for Manager.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		sessionName: cfg.Session.CookieName,
		secure:      cfg.Session.SecureCookie,
		stateTTL:    cfg.Auth.OAuthStateTTL,
	}
}

// SessionName returns the name of the session cookie.
func (m *Manager) SessionName() string {
	return m.sessionName
}

// SessionToken returns the raw session token carried by the request, if any.
func (m *Manager) SessionToken(c echo.Context) string {
	cookie, err := c.Cookie(m.sessionName)
	if err != nil {
		return ""
	}

	return cookie.Value
}

// SetSession writes the session cookie. It expires with the session.
func (m *Manager) SetSession(c echo.Context, token *usecase.SessionToken) {
	m.SetSessionValue(c, token.Raw, token.Session.ExpiresAt)
}

// SetSessionValue writes a raw session token that expires at the given instant.
func (m *Manager) SetSessionValue(c echo.Context, raw string, expiresAt time.Time) {
	c.SetCookie(m.build(m.sessionName, raw, "/", expiresAt))
}

// ClearSession expires the session cookie.
func (m *Manager) ClearSession(c echo.Context) {
	cookie := m.build(m.sessionName, "", "/", time.Unix(0, 0))
	cookie.MaxAge = -1
	c.SetCookie(cookie)
}

// IssueOAuthState generates a state value, stores it in a short-lived cookie and returns it.
func (m *Manager) IssueOAuthState(c echo.Context) (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate oauth state")
	}

	state := base64.RawURLEncoding.EncodeToString(buf)
	c.SetCookie(m.build(oauthStateCookie, state, oauthStatePath, time.Now().Add(m.stateTTL)))

	return state, nil
}

// TakeOAuthState returns the stored state and expires the cookie so it cannot be replayed.
func (m *Manager) TakeOAuthState(c echo.Context) string {
	cookie, err := c.Cookie(oauthStateCookie)
	if err != nil {
		return ""
	}

	expired := m.build(oauthStateCookie, "", oauthStatePath, time.Unix(0, 0))
	expired.MaxAge = -1
	c.SetCookie(expired)

	return cookie.Value
}

func (m *Manager) build(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
