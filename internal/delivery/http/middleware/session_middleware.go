package middleware

import (
	deliverycontext "academy/internal/delivery/context"
	"academy/internal/delivery/http/cookie"
	"academy/internal/domain/access"
	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionMiddleware resolves the session cookie.
type SessionMiddleware struct {
	reader  usecase.SessionReader
	cookies *cookie.Manager
}

// NewSessionMiddleware is the constructor for SessionMiddleware.
func NewSessionMiddleware(reader usecase.SessionReader, cookies *cookie.Manager) *SessionMiddleware {
	return &SessionMiddleware{reader: reader, cookies: cookies}
}

// Load stores the session in the echo context when the cookie holds a valid token.
// It never rejects a request.
func (m *SessionMiddleware) Load(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if session, ok := m.reader.Read(m.cookies.SessionToken(c)); ok {
			deliverycontext.SetSession(c, session)
		}

		return next(c)
	}
}

// RequireSession rejects requests without a valid session. Use after Load.
func (m *SessionMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if deliverycontext.GetSession(c) == nil {
			return domainerrors.ErrUnauthenticated
		}

		return next(c)
	}
}

// RequireFreshRole re-reads the session against the store and checks the stored role.
// Blocked identities and role changes take effect immediately on these routes.
func (m *SessionMiddleware) RequireFreshRole(role entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, ok := m.reader.ReadFresh(c.Request().Context(), m.cookies.SessionToken(c))
			if !ok {
				return domainerrors.ErrUnauthenticated
			}

			deliverycontext.SetSession(c, session)

			if !access.RequireRole(session, role) {
				return domainerrors.ErrForbidden
			}

			return next(c)
		}
	}
}
