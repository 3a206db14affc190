package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	deliverycontext "academy/internal/delivery/context"
	"academy/internal/delivery/http/cookie"
	"academy/internal/delivery/http/response"
	"academy/internal/domain/access"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/facade"
	"academy/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	DisplayName string `json:"display_name" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
}

// MagicLinkRequest is the body of POST /auth/magic-link.
type MagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AuthHandler serves the sign-in endpoints. Every request gets its own facade.AuthContext.
type AuthHandler struct {
	auth    usecase.AuthUsecase
	reader  usecase.SessionReader
	cookies *cookie.Manager
	policy  *access.Policy
	logger  *slog.Logger
}

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	Auth    usecase.AuthUsecase
	Reader  usecase.SessionReader
	Cookies *cookie.Manager
	Policy  *access.Policy
	Logger  *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		auth:    params.Auth,
		reader:  params.Reader,
		cookies: params.Cookies,
		policy:  params.Policy,
		logger:  params.Logger,
	}
}

// Login handles email/password sign-in.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	authCtx := h.newAuthContext()
	ok, err := authCtx.Login(c.Request().Context(), req.Email, req.Password)

	return h.respond(c, authCtx, ok, err, http.StatusOK)
}

// Signup registers a new student.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	authCtx := h.newAuthContext()
	ok, err := authCtx.Signup(c.Request().Context(), usecase.SignupInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
	})

	return h.respond(c, authCtx, ok, err, http.StatusCreated)
}

// Logout expires the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	authCtx := h.newAuthContext()
	authCtx.Initialize(h.cookies.SessionToken(c))
	authCtx.Logout()

	h.cookies.ClearSession(c)

	return response.Success(c, http.StatusOK, newSessionView(authCtx.CurrentIdentity()))
}

// Refresh reissues the session cookie with the identity's current role.
func (h *AuthHandler) Refresh(c echo.Context) error {
	token, err := h.auth.Refresh(c.Request().Context(), h.cookies.SessionToken(c))
	if err != nil {
		h.cookies.ClearSession(c)

		return err
	}

	h.cookies.SetSession(c, token)

	authCtx := h.newAuthContext()
	authCtx.Initialize(token.Raw)

	return response.Success(c, http.StatusOK, newSessionView(authCtx.CurrentIdentity()))
}

// RequestMagicLink sends a sign-in link. The answer is the same whether or not the email has an account.
func (h *AuthHandler) RequestMagicLink(c echo.Context) error {
	var req MagicLinkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.auth.RequestMagicLink(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return response.Success(c, http.StatusAccepted, map[string]string{"status": "sent"})
}

// VerifyMagicLink is the target of the emailed link. Browsers land on the home page or,
// on failure, on the sign-in page with the error code.
func (h *AuthHandler) VerifyMagicLink(c echo.Context) error {
	authCtx := h.newAuthContext()
	ok, err := authCtx.VerifyMagicLink(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return err
	}

	if !ok {
		return h.redirectToSignIn(c, authCtx.LastFailure())
	}

	h.setSessionCookie(c, authCtx)

	return c.Redirect(http.StatusSeeOther, h.policy.HomePath())
}

// Session answers GET /api/session from the cookie alone.
func (h *AuthHandler) Session(c echo.Context) error {
	authCtx := h.newAuthContext()
	authCtx.Initialize(h.cookies.SessionToken(c))

	return response.Success(c, http.StatusOK, newSessionView(authCtx.CurrentIdentity()))
}

func (h *AuthHandler) newAuthContext() *facade.AuthContext {
	return facade.NewAuthContext(h.auth, h.reader)
}

// respond writes the outcome of a facade sign-in as JSON.
func (h *AuthHandler) respond(c echo.Context, authCtx *facade.AuthContext, ok bool, err error, status int) error {
	if err != nil {
		return err
	}
	if !ok {
		return authCtx.LastFailure()
	}

	h.setSessionCookie(c, authCtx)

	return response.Success(c, status, newSessionView(authCtx.CurrentIdentity()))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, authCtx *facade.AuthContext) {
	if current := authCtx.CurrentIdentity(); current != nil {
		h.cookies.SetSessionValue(c, authCtx.Token(), current.ExpiresAt)
	}
}

func (h *AuthHandler) redirectToSignIn(c echo.Context, failure error) error {
	code := domainerrors.ErrAuthInternalError.ErrorCode()
	if appErr, ok := response.AsAppError(failure); ok {
		code = appErr.ErrorCode()
	}

	deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).Info("Sign-in rejected",
		slog.String("code", code),
	)

	return c.Redirect(http.StatusSeeOther, h.policy.SignInPath()+"?error="+url.QueryEscape(code))
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("invalid request body")
	}

	return c.Validate(req)
}
