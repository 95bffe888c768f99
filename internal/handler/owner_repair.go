package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/repository"
)

// RepairHandler serves the owner repair endpoints. A repair always
// hangs off a task and keeps its own cost ledger.
type RepairHandler struct {
	Repairs *repository.RepairRepo
}

// NewRepairHandler constructs a RepairHandler.
func NewRepairHandler(repairs *repository.RepairRepo) *RepairHandler {
	if repairs == nil {
		panic("nil repository passed to NewRepairHandler")
	}
	return &RepairHandler{Repairs: repairs}
}

type repairBody struct {
	TaskID      uint64 `json:"task_id"`
	StatusID    uint64 `json:"status_id"`
	AmountCents uint32 `json:"amount_cents"`
	Reason      string `json:"reason"`
}

// Create handles POST /v1/repairs.
func (h *RepairHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body repairBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TaskID == 0 || body.StatusID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "task_id and status_id are required"})
	}
	p, err := h.Repairs.Create(c.Request().Context(), ownerID, repository.RepairInput{
		TaskID:      body.TaskID,
		StatusID:    body.StatusID,
		AmountCents: body.AmountCents,
		Reason:      body.Reason,
	})
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, repairJSON(p))
}

// List handles GET /v1/repairs.
func (h *RepairHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Repairs.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, repairJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"repairs": out})
}

// Get handles GET /v1/repairs/:id and returns the repair with its
// ledger, oldest first.
func (h *RepairHandler) Get(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	p, err := h.Repairs.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	history, err := h.Repairs.History(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	hist := make([]echo.Map, 0, len(history))
	for i := range history {
		h := &history[i]
		hist = append(hist, echo.Map{
			"id": h.ID, "status_id": h.StatusID, "amount_cents": h.AmountCents,
			"reason": h.Reason, "created_at": h.CreatedAt,
		})
	}
	out := repairJSON(p)
	out["history"] = hist
	return c.JSON(http.StatusOK, out)
}

// Update handles PUT /v1/repairs/:id.
func (h *RepairHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body repairBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TaskID == 0 || body.StatusID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "task_id and status_id are required"})
	}
	p, err := h.Repairs.UpdateByIDAndOwner(c.Request().Context(), id, ownerID, repository.RepairInput{
		TaskID:      body.TaskID,
		StatusID:    body.StatusID,
		AmountCents: body.AmountCents,
		Reason:      body.Reason,
	})
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, repairJSON(p))
}

// Delete handles DELETE /v1/repairs/:id.
func (h *RepairHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Repairs.DeleteByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
