package router

import (
	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/handler"
	"github.com/aroschi/gestimmo/internal/middleware"
)

// RegisterTenant registers the renter portal under /v1/my. All routes
// require a valid JWT and the RENTER role; renters only ever see rows
// addressed to them.
func RegisterTenant(e *echo.Echo, t *handler.TenantHandler, jwtSecret string) {
	g := e.Group(
		"/v1/my",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("RENTER"),
	)
	g.GET("/contracts", t.MyContracts)
	g.GET("/bills", t.MyBills)
	g.GET("/tasks", t.MyTasks)
	g.PUT("/password", t.ChangePassword)
}

// RegisterMessaging registers the messaging endpoints shared by both
// roles. Participation checks live in the repository, so the routes
// only gate on having any authenticated identity.
func RegisterMessaging(e *echo.Echo, m *handler.MessageHandler, jwtSecret string) {
	g := e.Group(
		"/v1/messages",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER", "RENTER"),
	)
	g.POST("", m.Create)
	g.GET("/sent", m.ListSent)
	g.GET("/received", m.ListReceived)
	g.GET("/archived", m.ListArchived)
	g.GET("/:id", m.Get)
	g.PUT("/:id/status", m.SetStatus)
	g.PUT("/:id/archive", m.Archive)
	g.PUT("/:id/unarchive", m.Unarchive)
	g.DELETE("/:id", m.Delete)
	g.POST("/:id/comments", m.AddComment)
	g.GET("/:id/comments", m.ListComments)
}
