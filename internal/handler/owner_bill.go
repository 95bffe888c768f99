package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/repository"
)

// BillHandler serves the owner bill endpoints. Bill reads include the
// status ledger so a client never needs a second round trip to show
// the payment trail.
type BillHandler struct {
	Bills *repository.BillRepo
}

// NewBillHandler constructs a BillHandler.
func NewBillHandler(bills *repository.BillRepo) *BillHandler {
	if bills == nil {
		panic("nil repository passed to NewBillHandler")
	}
	return &BillHandler{Bills: bills}
}

type billBody struct {
	RenterID    uint64  `json:"renter_id"`
	StatusID    uint64  `json:"status_id"`
	Reference   *string `json:"reference"`
	EndDate     string  `json:"end_date"`
	AmountCents uint32  `json:"amount_cents"`
	Reason      string  `json:"reason"`
}

func (b *billBody) toInput() (repository.BillInput, error) {
	in := repository.BillInput{
		RenterID:    b.RenterID,
		StatusID:    b.StatusID,
		Reference:   b.Reference,
		AmountCents: b.AmountCents,
		Reason:      b.Reason,
	}
	if b.EndDate == "" {
		return in, errRequired("end_date")
	}
	end, err := parseDateField(b.EndDate)
	if err != nil {
		return in, err
	}
	in.EndDate = end
	return in, nil
}

// Create handles POST /v1/bills. The first ledger row is written in
// the same transaction as the bill itself.
func (h *BillHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body billBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RenterID == 0 || body.StatusID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "renter_id and status_id are required"})
	}
	in, err := body.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	bill, err := h.Bills.Create(c.Request().Context(), ownerID, in)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, billJSON(bill))
}

// List handles GET /v1/bills.
func (h *BillHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bills.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, billJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bills": out})
}

// Get handles GET /v1/bills/:id and returns the bill with its full
// status ledger, oldest entry first.
func (h *BillHandler) Get(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	bill, err := h.Bills.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	history, err := h.Bills.History(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	hist := make([]echo.Map, 0, len(history))
	for i := range history {
		h := &history[i]
		hist = append(hist, echo.Map{
			"id": h.ID, "status_id": h.StatusID, "end_date": h.EndDate, "created_at": h.CreatedAt,
		})
	}
	out := billJSON(bill)
	out["history"] = hist
	return c.JSON(http.StatusOK, out)
}

// Update handles PUT /v1/bills/:id. Every update appends one ledger
// row, status changed or not.
func (h *BillHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body billBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RenterID == 0 || body.StatusID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "renter_id and status_id are required"})
	}
	in, err := body.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	bill, err := h.Bills.UpdateByIDAndOwner(c.Request().Context(), id, ownerID, in)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, billJSON(bill))
}

// Delete handles DELETE /v1/bills/:id. The ledger goes away with the
// bill.
func (h *BillHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Bills.DeleteByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
