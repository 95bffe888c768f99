package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/repository"
)

// ApartmentHandler serves the owner apartment endpoints.
type ApartmentHandler struct {
	Apartments *repository.ApartmentRepo
}

// NewApartmentHandler constructs an ApartmentHandler.
func NewApartmentHandler(apartments *repository.ApartmentRepo) *ApartmentHandler {
	if apartments == nil {
		panic("nil repository passed to NewApartmentHandler")
	}
	return &ApartmentHandler{Apartments: apartments}
}

// apartmentBody is the JSON payload for create and update. Exactly
// one of building_id and the address triple must be populated.
type apartmentBody struct {
	Size       uint32  `json:"size"`
	Adress     string  `json:"adress"`
	Postalcode int     `json:"postalcode"`
	City       string  `json:"city"`
	BuildingID *uint64 `json:"building_id"`
}

func (b *apartmentBody) toInput() repository.ApartmentInput {
	return repository.ApartmentInput{
		Size:       b.Size,
		Adress:     strings.TrimSpace(b.Adress),
		Postalcode: b.Postalcode,
		City:       strings.TrimSpace(b.City),
		BuildingID: b.BuildingID,
	}
}

// Create handles POST /v1/apartments.
func (h *ApartmentHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body apartmentBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	a, err := h.Apartments.Create(c.Request().Context(), ownerID, body.toInput())
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, apartmentJSON(a))
}

// List handles GET /v1/apartments.
func (h *ApartmentHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Apartments.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, apartmentJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"apartments": out})
}

// Get handles GET /v1/apartments/:id.
func (h *ApartmentHandler) Get(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Apartments.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, apartmentJSON(a))
}

// Update handles PUT /v1/apartments/:id. Relinking to another
// building moves the occupancy contribution along with the
// apartment; the status itself only ever changes through contracts.
func (h *ApartmentHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body apartmentBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	a, err := h.Apartments.UpdateByIDAndOwner(c.Request().Context(), id, ownerID, body.toInput())
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, apartmentJSON(a))
}

// Delete handles DELETE /v1/apartments/:id. Contracts referencing
// the apartment are deleted with it.
func (h *ApartmentHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Apartments.DeleteByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
