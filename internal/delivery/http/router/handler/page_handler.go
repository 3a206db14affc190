package handler

import (
	"net/http"

	"academy/internal/delivery/http/cookie"
	"academy/internal/delivery/http/response"
	"academy/internal/domain/access"
	"academy/internal/facade"
	"academy/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// Layout names the shell a page renders in.
type Layout string

const (
	LayoutPublic  Layout = "public"
	LayoutStudent Layout = "student"
	LayoutAdmin   Layout = "admin"
)

// PageView describes a page for the client renderer.
type PageView struct {
	Path    string      `json:"path"`
	Layout  Layout      `json:"layout"`
	Session SessionView `json:"session"`
}

// PageHandler answers page requests with their layout. Protected layouts
// re-check the caller through the auth facade even after the guard has run.
type PageHandler struct {
	auth    usecase.AuthUsecase
	reader  usecase.SessionReader
	cookies *cookie.Manager
	policy  *access.Policy
}

// PageHandlerParams holds dependencies for PageHandler.
type PageHandlerParams struct {
	fx.In

	Auth    usecase.AuthUsecase
	Reader  usecase.SessionReader
	Cookies *cookie.Manager
	Policy  *access.Policy
}

// NewPageHandler is the constructor for PageHandler.
func NewPageHandler(params PageHandlerParams) *PageHandler {
	return &PageHandler{
		auth:    params.Auth,
		reader:  params.Reader,
		cookies: params.Cookies,
		policy:  params.Policy,
	}
}

// Render serves any page path.
func (h *PageHandler) Render(c echo.Context) error {
	path := access.CleanPath(c.Request().URL.Path)
	layout := layoutFor(h.policy.Classify(path))

	authCtx := facade.NewAuthContext(h.auth, h.reader)
	state := authCtx.Initialize(h.cookies.SessionToken(c))

	switch {
	case layout != LayoutPublic && state != facade.StateAuthenticated:
		return c.Redirect(http.StatusTemporaryRedirect, h.policy.SignInPath())
	case layout == LayoutAdmin && !authCtx.IsAdmin():
		return c.Redirect(http.StatusTemporaryRedirect, h.policy.HomePath())
	}

	return response.Success(c, http.StatusOK, PageView{
		Path:    path,
		Layout:  layout,
		Session: newSessionView(authCtx.CurrentIdentity()),
	})
}

func layoutFor(class access.Class) Layout {
	switch class {
	case access.ClassAdmin:
		return LayoutAdmin
	case access.ClassAuthenticated:
		return LayoutStudent
	default:
		return LayoutPublic
	}
}
