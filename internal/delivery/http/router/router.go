// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"academy/internal/delivery/http/middleware"
	"academy/internal/delivery/http/router/handler"
	"academy/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// RouterParams holds the handlers and middleware the router registers.
type RouterParams struct {
	fx.In

	AuthHandler       *handler.AuthHandler
	OAuthHandler      *handler.OAuthHandler
	PageHandler       *handler.PageHandler
	AdminHandler      *handler.AdminHandler
	SessionMiddleware *middleware.SessionMiddleware
	RouteGuard        *middleware.RouteGuard
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler       *handler.AuthHandler
	oauthHandler      *handler.OAuthHandler
	pageHandler       *handler.PageHandler
	adminHandler      *handler.AdminHandler
	sessionMiddleware *middleware.SessionMiddleware
	routeGuard        *middleware.RouteGuard
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:       params.AuthHandler,
		oauthHandler:      params.OAuthHandler,
		pageHandler:       params.PageHandler,
		adminHandler:      params.AdminHandler,
		sessionMiddleware: params.SessionMiddleware,
		routeGuard:        params.RouteGuard,
	}
}

// RegisterRoutes sets up all the routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/signup", r.authHandler.Signup)
		authGroup.POST("/logout", r.authHandler.Logout)
		authGroup.POST("/refresh", r.authHandler.Refresh)
		authGroup.POST("/magic-link", r.authHandler.RequestMagicLink)
		authGroup.GET("/magic-link/verify", r.authHandler.VerifyMagicLink)
		authGroup.GET("/oauth/:provider", r.oauthHandler.Begin)
		authGroup.GET("/oauth/:provider/callback", r.oauthHandler.Callback)
		authGroup.POST("/oauth/google/id-token", r.oauthHandler.IDToken)
	}

	apiGroup := e.Group("/api")
	{
		apiGroup.GET("/session", r.authHandler.Session)
	}

	// Admin API re-checks the caller against the store on every request.
	adminGroup := apiGroup.Group("/admin", r.sessionMiddleware.RequireFreshRole(entity.RoleAdmin))
	{
		adminGroup.GET("/identities/:id", r.adminHandler.GetIdentity)
		adminGroup.PATCH("/identities/:id/role", r.adminHandler.UpdateRole)
		adminGroup.PATCH("/identities/:id/blocked", r.adminHandler.SetBlocked)
	}

	// Pages
	pages := e.Group("", r.sessionMiddleware.Load, r.routeGuard.Guard)
	{
		pages.GET("/", r.pageHandler.Render)
		pages.GET("/auth/sign-in", r.pageHandler.Render)
		pages.GET("/dashboard", r.pageHandler.Render)
		pages.GET("/dashboard/*", r.pageHandler.Render)
		pages.GET("/student", r.pageHandler.Render)
		pages.GET("/student/*", r.pageHandler.Render)
		pages.GET("/admin", r.pageHandler.Render)
		pages.GET("/admin/*", r.pageHandler.Render)
	}
}
