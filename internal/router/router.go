package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/handler"
	"github.com/aroschi/gestimmo/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check
// for load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes. The login
// and register endpoints sit behind the token bucket limiter because
// they are the natural target for credential stuffing; the refresh
// endpoints share it since they also do a DB lookup per call.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/renter-login", a.RenterLogin)
	g.POST("/refresh", a.Refresh)               // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess)  // new access token, no rotation
	g.POST("/logout", a.Logout)

	// /v1/me is available to both roles.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("OWNER", "RENTER"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints. The
// Redis response cache sits in front so repeated listing hits never
// reach MySQL.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/browse")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/apartments", b.ListFree)
	g.GET("/apartments/:id", b.GetFree)
}
