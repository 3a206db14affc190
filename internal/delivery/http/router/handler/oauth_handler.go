package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	deliverycontext "academy/internal/delivery/context"
	"academy/internal/delivery/http/cookie"
	"academy/internal/domain/access"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/service"
	"academy/internal/infra/auth"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// IDTokenRequest is the body of POST /auth/oauth/google/id-token.
type IDTokenRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// OAuthHandler drives the provider redirect flow and the client-side ID token exchange.
type OAuthHandler struct {
	providers *auth.OAuthRegistry
	idTokens  service.OAuthAuthService
	session   *AuthHandler
	cookies   *cookie.Manager
	policy    *access.Policy
	logger    *slog.Logger
}

// OAuthHandlerParams holds dependencies for OAuthHandler, injected by Fx.
type OAuthHandlerParams struct {
	fx.In

	Providers   *auth.OAuthRegistry
	IDTokens    service.OAuthAuthService `optional:"true"`
	AuthHandler *AuthHandler
	Cookies     *cookie.Manager
	Policy      *access.Policy
	Logger      *slog.Logger
}

// NewOAuthHandler is the constructor for OAuthHandler.
func NewOAuthHandler(params OAuthHandlerParams) *OAuthHandler {
	return &OAuthHandler{
		providers: params.Providers,
		idTokens:  params.IDTokens,
		session:   params.AuthHandler,
		cookies:   params.Cookies,
		policy:    params.Policy,
		logger:    params.Logger,
	}
}

// Begin redirects the browser to the provider's consent page.
func (h *OAuthHandler) Begin(c echo.Context) error {
	provider, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		return err
	}

	state, err := h.cookies.IssueOAuthState(c)
	if err != nil {
		return err
	}

	return c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// Callback completes the redirect flow.
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		return err
	}

	expected := h.cookies.TakeOAuthState(c)
	state := c.QueryParam("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		return h.session.redirectToSignIn(c, domainerrors.ErrOAuthStateMismatch)
	}

	if providerErr := c.QueryParam("error"); providerErr != "" {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).Info("Provider declined sign-in",
			slog.String("provider", provider.Name()),
			slog.String("error", providerErr),
		)

		return h.session.redirectToSignIn(c, domainerrors.ErrOAuthTokenInvalid)
	}

	user, err := provider.ExchangeCode(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).Warn("OAuth code exchange failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)

		return h.session.redirectToSignIn(c, domainerrors.ErrOAuthTokenInvalid)
	}

	authCtx := h.session.newAuthContext()
	ok, err := authCtx.CompleteOAuth(c.Request().Context(), user)
	if err != nil {
		return err
	}
	if !ok {
		return h.session.redirectToSignIn(c, authCtx.LastFailure())
	}

	h.session.setSessionCookie(c, authCtx)

	return c.Redirect(http.StatusSeeOther, h.policy.HomePath())
}

// IDToken signs in with a Google ID token obtained by the client.
func (h *OAuthHandler) IDToken(c echo.Context) error {
	if h.idTokens == nil {
		return domainerrors.ErrOAuthProviderUnknown
	}

	var req IDTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.idTokens.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}

	authCtx := h.session.newAuthContext()
	ok, err := authCtx.CompleteOAuth(c.Request().Context(), user)

	return h.session.respond(c, authCtx, ok, err, http.StatusOK)
}
