package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/handler"
	"github.com/aroschi/gestimmo/internal/middleware"
)

// OwnerHandlers bundles every handler mounted under the OWNER role so
// RegisterOwner keeps a manageable signature.
type OwnerHandlers struct {
	Buildings  *handler.BuildingHandler
	Apartments *handler.ApartmentHandler
	Contracts  *handler.ContractHandler
	Renters    *handler.RenterHandler
	Statuses   *handler.StatusHandler
	Bills      *handler.BillHandler
	Tasks      *handler.TaskHandler
	Repairs    *handler.RepairHandler
	Files      *handler.FileHandler
}

// RegisterOwner registers OWNER-scoped endpoints under /v1.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, h OwnerHandlers, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)

	// ---- Buildings ----
	g.POST("/buildings", h.Buildings.Create)
	g.GET("/buildings", h.Buildings.List)
	g.GET("/buildings/:id", h.Buildings.Get)
	g.PUT("/buildings/:id", h.Buildings.Update)
	g.DELETE("/buildings/:id", h.Buildings.Delete)
	g.GET("/buildings/:id/renters", h.Buildings.ListRenters)

	// ---- Apartments ----
	g.POST("/apartments", h.Apartments.Create)
	g.GET("/apartments", h.Apartments.List)
	g.GET("/apartments/:id", h.Apartments.Get)
	g.PUT("/apartments/:id", h.Apartments.Update)
	g.DELETE("/apartments/:id", h.Apartments.Delete)

	// ---- Contracts ----
	g.POST("/contracts", h.Contracts.Create)
	g.GET("/contracts", h.Contracts.List)
	g.GET("/contracts/:id", h.Contracts.Get)
	g.PUT("/contracts/:id", h.Contracts.Update)
	g.PUT("/contracts/:id/archive", h.Contracts.Archive) // terminal transition
	g.DELETE("/contracts/:id", h.Contracts.Delete)

	// ---- Renters ----
	g.POST("/renters", h.Renters.Create)
	g.GET("/renters", h.Renters.List)
	g.GET("/renters/:id", h.Renters.Get)
	g.PUT("/renters/:id", h.Renters.Update)
	g.PUT("/renters/:id/password", h.Renters.SetPassword)
	g.DELETE("/renters/:id", h.Renters.Delete)

	// ---- Statuses ----
	g.POST("/statuses", h.Statuses.Create)
	g.GET("/statuses", h.Statuses.List)
	g.GET("/statuses/:id", h.Statuses.Get)
	g.PUT("/statuses/:id", h.Statuses.Update)
	g.DELETE("/statuses/:id", h.Statuses.Delete)

	// ---- Bills ----
	g.POST("/bills", h.Bills.Create)
	g.GET("/bills", h.Bills.List)
	g.GET("/bills/:id", h.Bills.Get)
	g.PUT("/bills/:id", h.Bills.Update)
	g.DELETE("/bills/:id", h.Bills.Delete)

	// ---- Tasks ----
	g.POST("/tasks", h.Tasks.Create)
	g.GET("/tasks", h.Tasks.List)
	g.GET("/tasks/:id", h.Tasks.Get)
	g.PUT("/tasks/:id", h.Tasks.Update)
	g.DELETE("/tasks/:id", h.Tasks.Delete)

	// ---- Repairs ----
	g.POST("/repairs", h.Repairs.Create)
	g.GET("/repairs", h.Repairs.List)
	g.GET("/repairs/:id", h.Repairs.Get)
	g.PUT("/repairs/:id", h.Repairs.Update)
	g.DELETE("/repairs/:id", h.Repairs.Delete)

	// ---- Files ----
	g.POST("/files", h.Files.Attach)
	g.GET("/entities/:kind/:id/files", h.Files.ListByEntity)
	g.DELETE("/files/:id", h.Files.Detach)
}
