package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/repository"
)

// StatusHandler serves the owner-defined status labels used by bills,
// tasks and repairs.
type StatusHandler struct {
	Statuses *repository.StatusRepo
}

// NewStatusHandler constructs a StatusHandler.
func NewStatusHandler(statuses *repository.StatusRepo) *StatusHandler {
	if statuses == nil {
		panic("nil repository passed to NewStatusHandler")
	}
	return &StatusHandler{Statuses: statuses}
}

// Create handles POST /v1/statuses.
func (h *StatusHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	s, err := h.Statuses.Create(c.Request().Context(), ownerID, body.Name)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, statusJSON(s))
}

// List handles GET /v1/statuses.
func (h *StatusHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Statuses.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, statusJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"statuses": out})
}

// Get handles GET /v1/statuses/:id.
func (h *StatusHandler) Get(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, err := h.Statuses.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, statusJSON(s))
}

// Update handles PUT /v1/statuses/:id. Renaming a label changes how
// every row referencing it reads, history rows included.
func (h *StatusHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	s, err := h.Statuses.UpdateByIDAndOwner(c.Request().Context(), id, ownerID, body.Name)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, statusJSON(s))
}

// Delete handles DELETE /v1/statuses/:id. A label still referenced by
// any bill, task, repair or history row is refused with a 409 naming
// the referencing table.
func (h *StatusHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Statuses.DeleteByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
