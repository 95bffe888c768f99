package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/model"
	"github.com/aroschi/gestimmo/internal/queue"
	"github.com/aroschi/gestimmo/internal/repository"
	queue_publisher "github.com/aroschi/gestimmo/internal/service"
)

// ContractHandler serves the owner contract endpoints. Lifecycle
// transitions additionally publish a contract.lifecycle event after
// the transaction commits; publishing happens in a goroutine and a
// broker outage never fails the request.
type ContractHandler struct {
	Contracts *repository.ContractRepo
}

// NewContractHandler constructs a ContractHandler.
func NewContractHandler(contracts *repository.ContractRepo) *ContractHandler {
	if contracts == nil {
		panic("nil repository passed to NewContractHandler")
	}
	return &ContractHandler{Contracts: contracts}
}

type contractBody struct {
	RenterID    uint64 `json:"renter_id"`
	ApartmentID uint64 `json:"apartment_id"`
	RentCents   uint32 `json:"rent_cents"`
	ChargeCents uint32 `json:"charge_cents"`
	Other       string `json:"other"`
}

func publishLifecycle(action string, ct *model.Contract) {
	ev := queue.ContractLifecycleEvent{
		Action:      action,
		ContractID:  ct.ID,
		OwnerID:     ct.OwnerID,
		RenterID:    ct.RenterID,
		ApartmentID: ct.ApartmentID,
		RentCents:   ct.RentCents,
		ChargeCents: ct.ChargeCents,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishContractLifecycle(ctx, ev)
	}()
}

// Create handles POST /v1/contracts and signs a new lease. The
// repository transaction flips the apartment to Occupé and bumps
// the building counter before anything is visible.
func (h *ContractHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body contractBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RenterID == 0 || body.ApartmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "renter_id and apartment_id are required"})
	}
	ct, err := h.Contracts.Create(c.Request().Context(), ownerID, repository.ContractInput{
		RenterID:    body.RenterID,
		ApartmentID: body.ApartmentID,
		RentCents:   body.RentCents,
		ChargeCents: body.ChargeCents,
		Other:       body.Other,
	})
	if err != nil {
		return writeRepoError(c, err)
	}
	publishLifecycle(queue.ContractSigned, ct)
	return c.JSON(http.StatusCreated, contractJSON(ct))
}

// List handles GET /v1/contracts.
func (h *ContractHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Contracts.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, contractJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"contracts": out})
}

// Get handles GET /v1/contracts/:id.
func (h *ContractHandler) Get(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ct, err := h.Contracts.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, contractJSON(ct))
}

// Update handles PUT /v1/contracts/:id. The apartment is immutable;
// payloads trying to move the contract get a 400 telling them to
// create a new contract instead.
func (h *ContractHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body contractBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RenterID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "renter_id is required"})
	}
	ct, err := h.Contracts.UpdateByIDAndOwner(c.Request().Context(), id, ownerID, repository.ContractInput{
		RenterID:    body.RenterID,
		ApartmentID: body.ApartmentID,
		RentCents:   body.RentCents,
		ChargeCents: body.ChargeCents,
		Other:       body.Other,
	})
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, contractJSON(ct))
}

// Archive handles PUT /v1/contracts/:id/archive, the terminal
// transition. Archiving twice is a 409 and the building counter is
// released exactly once.
func (h *ContractHandler) Archive(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ct, err := h.Contracts.ArchiveByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	publishLifecycle(queue.ContractArchived, ct)
	return c.JSON(http.StatusOK, contractJSON(ct))
}

// Delete handles DELETE /v1/contracts/:id. A still-active contract
// releases its apartment on the way out.
func (h *ContractHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ct, err := h.Contracts.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	if err := h.Contracts.DeleteByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		return writeRepoError(c, err)
	}
	publishLifecycle(queue.ContractTerminated, ct)
	return c.NoContent(http.StatusNoContent)
}
