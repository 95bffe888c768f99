package handler // handler package contains owner-specific building handlers

import (
	"net/http" // http provides status code constants
	"strings"  // strings offers trimming utilities

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/aroschi/gestimmo/internal/repository" // repository holds the data access layer
)

// BuildingHandler bundles the repositories needed for building endpoints
type BuildingHandler struct {
	Buildings *repository.BuildingRepo // Buildings provides building persistence
}

// NewBuildingHandler constructs a new BuildingHandler and panics if the dependency is nil
func NewBuildingHandler(buildings *repository.BuildingRepo) *BuildingHandler {
	if buildings == nil {
		panic("nil repository passed to NewBuildingHandler")
	}
	return &BuildingHandler{Buildings: buildings}
}

// buildingBody is the JSON payload accepted by create and update
type buildingBody struct {
	Adress     string `json:"adress"`     // street address of the building
	Postalcode int    `json:"postalcode"` // postal code
	City       string `json:"city"`       // city name
}

// Create handles POST /v1/buildings and creates a building for the authenticated owner
func (h *BuildingHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c) // extract the owner ID from context
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body buildingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Adress = strings.TrimSpace(body.Adress)
	if body.Adress == "" || body.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "adress and city are required"})
	}
	b, err := h.Buildings.Create(c.Request().Context(), ownerID, body.Adress, body.Postalcode, body.City)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, buildingJSON(b)) // return 201 and the created building
}

// List handles GET /v1/buildings and returns every building of the owner
func (h *BuildingHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Buildings.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, buildingJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"buildings": out})
}

// Get handles GET /v1/buildings/:id
func (h *BuildingHandler) Get(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Buildings.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, buildingJSON(b))
}

// Update handles PUT /v1/buildings/:id and rewrites the address fields.
// The occupancy counters are derived data and cannot be set here.
func (h *BuildingHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body buildingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Adress = strings.TrimSpace(body.Adress)
	if body.Adress == "" || body.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "adress and city are required"})
	}
	b, err := h.Buildings.UpdateByIDAndOwner(c.Request().Context(), id, ownerID, body.Adress, body.Postalcode, body.City)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, buildingJSON(b))
}

// Delete handles DELETE /v1/buildings/:id. Apartments of the building
// and their contracts go away with it in one transaction.
func (h *BuildingHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Buildings.DeleteByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRenters handles GET /v1/buildings/:id/renters and returns the
// renters currently holding a non-archived contract in the building
func (h *BuildingHandler) ListRenters(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Buildings.ListRenters(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, echo.Map{
			"id": items[i].ID, "name": items[i].Name, "lastname": items[i].Lastname,
			"email": items[i].Email, "status": items[i].Status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"renters": out})
}
