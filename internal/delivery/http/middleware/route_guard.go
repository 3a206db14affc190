package middleware

import (
	"log/slog"
	"net/http"

	"academy/config"
	deliverycontext "academy/internal/delivery/context"
	"academy/internal/domain/access"

	"github.com/labstack/echo/v4"
)

// RouteGuard redirects page requests the policy does not allow. It relies on
// SessionMiddleware.Load having run first.
type RouteGuard struct {
	policy *access.Policy
	logger *slog.Logger
}

// NewRouteGuard is the constructor for RouteGuard.
func NewRouteGuard(policy *access.Policy, logger *slog.Logger) *RouteGuard {
	return &RouteGuard{policy: policy, logger: logger}
}

// NewPolicy builds the route policy from configuration.
func NewPolicy(cfg *config.Config) *access.Policy {
	routes := cfg.Routes

	return access.NewPolicy(routes.AuthenticatedPrefixes, routes.AdminPrefixes, routes.SignInPath, routes.HomePath)
}

// Guard applies the policy to the request path.
func (g *RouteGuard) Guard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := deliverycontext.GetSession(c)

		decision := g.policy.Decide(c.Request().URL.Path, session)
		if decision.Outcome == access.Allow {
			return next(c)
		}

		deliverycontext.GetLoggerOrDefault(c.Request().Context(), g.logger).Debug("Route guard redirect",
			slog.String("path", c.Request().URL.Path),
			slog.String("reason", string(decision.Reason)),
			slog.String("target", decision.Target),
		)

		return c.Redirect(http.StatusTemporaryRedirect, decision.Target)
	}
}
