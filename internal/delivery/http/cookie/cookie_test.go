package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"academy/config"
	"academy/internal/domain/entity"
	"academy/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(secure bool) *Manager {
	return NewManager(&config.Config{
		Session: &config.SessionConfig{CookieName: "academy.session-token", SecureCookie: secure},
		Auth:    &config.AuthConfig{OAuthStateTTL: 10 * time.Minute},
	})
}

func TestManager_SetSession(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/login", nil), rec)

	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	newManager(true).SetSession(c, &usecase.SessionToken{
		Raw:     "signed-token",
		Session: entity.Session{ExpiresAt: expiresAt},
	})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "academy.session-token", cookie.Name)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.True(t, expiresAt.Equal(cookie.Expires))
}

func TestManager_ClearSession(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec)

	newManager(false).ClearSession(c)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
	assert.False(t, cookies[0].Secure)
}

func TestManager_SessionToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "academy.session-token", Value: "abc"})

	assert.Equal(t, "abc", newManager(false).SessionToken(e.NewContext(req, httptest.NewRecorder())))

	bare := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	assert.Empty(t, newManager(false).SessionToken(e.NewContext(bare, httptest.NewRecorder())))
}

func TestManager_OAuthState(t *testing.T) {
	e := echo.New()
	m := newManager(false)

	rec := httptest.NewRecorder()
	state, err := m.IssueOAuthState(e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/oauth/google", nil), rec))
	require.NoError(t, err)
	assert.NotEmpty(t, state)

	issued := rec.Result().Cookies()
	require.Len(t, issued, 1)
	assert.Equal(t, "/auth/oauth", issued[0].Path)

	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/google/callback", nil)
	req.AddCookie(issued[0])
	rec = httptest.NewRecorder()

	assert.Equal(t, state, m.TakeOAuthState(e.NewContext(req, rec)))
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Negative(t, rec.Result().Cookies()[0].MaxAge)
}
