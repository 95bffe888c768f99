package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/repository"
)

// BrowseHandler serves the unauthenticated listing of free
// apartments. Responses are cached by the Redis middleware, so these
// endpoints stay cheap under scraping.
type BrowseHandler struct {
	Apartments *repository.ApartmentRepo
}

// NewBrowseHandler constructs a BrowseHandler.
func NewBrowseHandler(apartments *repository.ApartmentRepo) *BrowseHandler {
	if apartments == nil {
		panic("nil repository passed to NewBrowseHandler")
	}
	return &BrowseHandler{Apartments: apartments}
}

// browseJSON strips the owner-only fields from a public listing.
func browseJSON(a echo.Map) echo.Map {
	delete(a, "status")
	return a
}

// ListFree handles GET /v1/browse/apartments.
func (h *BrowseHandler) ListFree(c echo.Context) error {
	items, err := h.Apartments.ListFree(c.Request().Context())
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, browseJSON(apartmentJSON(&items[i])))
	}
	return c.JSON(http.StatusOK, echo.Map{"apartments": out})
}

// GetFree handles GET /v1/browse/apartments/:id. An apartment that is
// occupied or does not exist both read as 404 here.
func (h *BrowseHandler) GetFree(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Apartments.GetFree(c.Request().Context(), id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, browseJSON(apartmentJSON(a)))
}
