package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/repository"
	"github.com/aroschi/gestimmo/internal/utils"
)

// TenantHandler serves the renter-facing portal under /v1/my. Renters
// only ever see their own rows; no owner id is in play here.
type TenantHandler struct {
	Contracts  *repository.ContractRepo
	Bills      *repository.BillRepo
	Tasks      *repository.TaskRepo
	Renters    *repository.RenterRepo
	BcryptCost int
}

// NewTenantHandler constructs a TenantHandler.
func NewTenantHandler(contracts *repository.ContractRepo, bills *repository.BillRepo, tasks *repository.TaskRepo, renters *repository.RenterRepo, bcryptCost int) *TenantHandler {
	if contracts == nil || bills == nil || tasks == nil || renters == nil {
		panic("nil repository passed to NewTenantHandler")
	}
	return &TenantHandler{Contracts: contracts, Bills: bills, Tasks: tasks, Renters: renters, BcryptCost: bcryptCost}
}

// MyContracts handles GET /v1/my/contracts.
func (h *TenantHandler) MyContracts(c echo.Context) error {
	renterID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Contracts.ListByRenter(c.Request().Context(), renterID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, contractJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"contracts": out})
}

// MyBills handles GET /v1/my/bills.
func (h *TenantHandler) MyBills(c echo.Context) error {
	renterID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bills.ListByRenter(c.Request().Context(), renterID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, billJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bills": out})
}

// MyTasks handles GET /v1/my/tasks and returns the tasks spawned from
// messages the renter took part in.
func (h *TenantHandler) MyTasks(c echo.Context) error {
	renterID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Tasks.ListForRenter(c.Request().Context(), renterID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, taskJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": out})
}

// ChangePassword handles PUT /v1/my/password. The current password
// must be presented; the owner-side reset is the recovery path.
func (h *TenantHandler) ChangePassword(c echo.Context) error {
	renterID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&body); err != nil || body.OldPassword == "" || body.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "old_password and new_password are required"})
	}
	renter, err := h.Renters.GetByID(c.Request().Context(), renterID)
	if err != nil {
		return writeRepoError(c, err)
	}
	if !utils.VerifyPassword(renter.PasswordHash, body.OldPassword) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "wrong password"})
	}
	hash, err := utils.HashPassword(body.NewPassword, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not hash password"})
	}
	if err := h.Renters.UpdatePassword(c.Request().Context(), renterID, hash); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
