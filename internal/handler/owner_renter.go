package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/model"
	"github.com/aroschi/gestimmo/internal/repository"
	"github.com/aroschi/gestimmo/internal/utils"
)

// RenterHandler serves the owner-side renter endpoints. Renters do
// not self-register; the owner creates the account with an initial
// password and hands out the credentials.
type RenterHandler struct {
	Renters    *repository.RenterRepo
	BcryptCost int
}

// NewRenterHandler constructs a RenterHandler.
func NewRenterHandler(renters *repository.RenterRepo, bcryptCost int) *RenterHandler {
	if renters == nil {
		panic("nil repository passed to NewRenterHandler")
	}
	return &RenterHandler{Renters: renters, BcryptCost: bcryptCost}
}

// parseDateField accepts RFC3339 or plain YYYY-MM-DD dates. Clients
// sending bare dates are common enough that both are tolerated.
func parseDateField(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

type renterBody struct {
	Name        string `json:"name"`
	Lastname    string `json:"lastname"`
	Email       string `json:"email"`
	Password    string `json:"password"` // create only
	DateOfBirth string `json:"date_of_birth"`
	Status      string `json:"status"` // update only
}

func (b *renterBody) toInput() (repository.RenterInput, error) {
	in := repository.RenterInput{
		Name:     strings.TrimSpace(b.Name),
		Lastname: strings.TrimSpace(b.Lastname),
		Email:    strings.TrimSpace(strings.ToLower(b.Email)),
		Status:   b.Status,
	}
	if b.DateOfBirth != "" {
		dob, err := parseDateField(b.DateOfBirth)
		if err != nil {
			return in, err
		}
		in.DateOfBirth = &dob
	}
	return in, nil
}

// Create handles POST /v1/renters.
func (h *RenterHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body renterBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in, err := body.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if in.Name == "" || in.Email == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password are required"})
	}
	hash, err := utils.HashPassword(body.Password, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not hash password"})
	}
	t, err := h.Renters.Create(c.Request().Context(), ownerID, in, hash)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, renterJSON(t))
}

// List handles GET /v1/renters.
func (h *RenterHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Renters.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, renterJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"renters": out})
}

// Get handles GET /v1/renters/:id.
func (h *RenterHandler) Get(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Renters.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, renterJSON(t))
}

// Update handles PUT /v1/renters/:id. Setting status to Inactif is
// refused with a 409 while the renter holds an active contract.
func (h *RenterHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body renterBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Status == "" {
		body.Status = model.RenterActive
	}
	in, err := body.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if in.Name == "" || in.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and email are required"})
	}
	t, err := h.Renters.UpdateByIDAndOwner(c.Request().Context(), id, ownerID, in)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, renterJSON(t))
}

// SetPassword handles PUT /v1/renters/:id/password, the owner-side
// reset used when a tenant is locked out.
func (h *RenterHandler) SetPassword(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password is required"})
	}
	if _, err := h.Renters.GetByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		return writeRepoError(c, err)
	}
	hash, err := utils.HashPassword(body.Password, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not hash password"})
	}
	if err := h.Renters.UpdatePassword(c.Request().Context(), id, hash); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/renters/:id and runs the full cascade:
// bills with their ledgers, contracts with their apartments freed,
// tokens, files, then the renter row.
func (h *RenterHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Renters.DeleteByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
