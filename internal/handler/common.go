package handler // handler defines http handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/model"
	"github.com/aroschi/gestimmo/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. The JWT middleware stores the raw claim value, whose type
// depends on how the token was decoded, so every plausible shape is
// accepted here.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim stored by the JWT middleware.
func getRole(c echo.Context) string {
	if r, ok := c.Get("role").(string); ok {
		return r
	}
	return ""
}

// currentParty resolves the authenticated principal into a message
// party based on the role claim.
func currentParty(c echo.Context) (repository.Party, error) {
	id, err := getUserID(c)
	if err != nil {
		return repository.Party{}, err
	}
	switch getRole(c) {
	case model.RoleOwner:
		return repository.Party{Kind: model.PartyOwner, ID: id}, nil
	case model.RoleRenter:
		return repository.Party{Kind: model.PartyRenter, ID: id}, nil
	}
	return repository.Party{}, errors.New("unknown role in context")
}

// errRequired builds the message for a missing body field.
func errRequired(field string) error {
	return fmt.Errorf("%s is required", field)
}

// parseIDParam parses the :id (or named) path parameter as uint64.
func parseIDParam(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// writeRepoError translates repository sentinel errors into HTTP
// responses: validation failures to 400, conflicts to 409, ownership
// violations to 403, the per-entity not-found sentinels to 404 and
// anything else to a plain 500. The wrapped error message is passed
// through for 400/409 so the caller learns what blocked the write.
func writeRepoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, repository.ErrBuildingNotFound),
		errors.Is(err, repository.ErrApartmentNotFound),
		errors.Is(err, repository.ErrContractNotFound),
		errors.Is(err, repository.ErrRenterNotFound),
		errors.Is(err, repository.ErrOwnerNotFound),
		errors.Is(err, repository.ErrStatusNotFound),
		errors.Is(err, repository.ErrBillNotFound),
		errors.Is(err, repository.ErrTaskNotFound),
		errors.Is(err, repository.ErrRepairNotFound),
		errors.Is(err, repository.ErrMessageNotFound),
		errors.Is(err, repository.ErrFileNotFound),
		errors.Is(err, repository.ErrTokenNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
}

// Response shaping helpers. The model structs carry no json tags on
// purpose; handlers decide what leaves the API.

func buildingJSON(b *model.Building) echo.Map {
	return echo.Map{
		"id":                   b.ID,
		"adress":               b.Adress,
		"postalcode":           b.Postalcode,
		"city":                 b.City,
		"number_of_apartments": b.NumberOfApartments,
		"occupied_counter":     b.OccupiedCounter,
		"created_at":           b.CreatedAt,
		"updated_at":           b.UpdatedAt,
	}
}

func apartmentJSON(a *model.Apartment) echo.Map {
	return echo.Map{
		"id":          a.ID,
		"size":        a.Size,
		"adress":      a.Adress,
		"postalcode":  a.Postalcode,
		"city":        a.City,
		"building_id": a.BuildingID,
		"status":      a.Status,
		"created_at":  a.CreatedAt,
		"updated_at":  a.UpdatedAt,
	}
}

func contractJSON(ct *model.Contract) echo.Map {
	return echo.Map{
		"id":           ct.ID,
		"renter_id":    ct.RenterID,
		"apartment_id": ct.ApartmentID,
		"rent_cents":   ct.RentCents,
		"charge_cents": ct.ChargeCents,
		"other":        ct.Other,
		"status":       ct.Status,
		"created_at":   ct.CreatedAt,
		"updated_at":   ct.UpdatedAt,
	}
}

func renterJSON(t *model.Renter) echo.Map {
	return echo.Map{
		"id":            t.ID,
		"name":          t.Name,
		"lastname":      t.Lastname,
		"email":         t.Email,
		"date_of_birth": t.DateOfBirth,
		"status":        t.Status,
		"created_at":    t.CreatedAt,
		"updated_at":    t.UpdatedAt,
	}
}

func statusJSON(s *model.Status) echo.Map {
	return echo.Map{
		"id":         s.ID,
		"name":       s.Name,
		"created_at": s.CreatedAt,
		"updated_at": s.UpdatedAt,
	}
}

func billJSON(b *model.Bill) echo.Map {
	return echo.Map{
		"id":           b.ID,
		"renter_id":    b.RenterID,
		"status_id":    b.StatusID,
		"reference":    b.Reference,
		"end_date":     b.EndDate,
		"amount_cents": b.AmountCents,
		"reason":       b.Reason,
		"created_at":   b.CreatedAt,
		"updated_at":   b.UpdatedAt,
	}
}

func taskJSON(t *model.Task) echo.Map {
	return echo.Map{
		"id":         t.ID,
		"title":      t.Title,
		"content":    t.Content,
		"start_date": t.StartDate,
		"end_date":   t.EndDate,
		"status_id":  t.StatusID,
		"message_id": t.MessageID,
		"created_at": t.CreatedAt,
		"updated_at": t.UpdatedAt,
	}
}

func repairJSON(p *model.Repair) echo.Map {
	return echo.Map{
		"id":           p.ID,
		"task_id":      p.TaskID,
		"status_id":    p.StatusID,
		"amount_cents": p.AmountCents,
		"reason":       p.Reason,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}
}

func messageJSON(m *model.Message) echo.Map {
	return echo.Map{
		"id":             m.ID,
		"title":          m.Title,
		"content":        m.Content,
		"status":         m.Status,
		"sender_kind":    m.SenderKind,
		"sender_id":      m.SenderID,
		"recipient_kind": m.RecipientKind,
		"recipient_id":   m.RecipientID,
		"created_at":     m.CreatedAt,
		"updated_at":     m.UpdatedAt,
	}
}

func commentJSON(cm *model.Comment) echo.Map {
	return echo.Map{
		"id":          cm.ID,
		"message_id":  cm.MessageID,
		"author_kind": cm.AuthorKind,
		"author_id":   cm.AuthorID,
		"content":     cm.Content,
		"created_at":  cm.CreatedAt,
	}
}

func fileJSON(f *model.File) echo.Map {
	return echo.Map{
		"id":           f.ID,
		"entity_kind":  f.EntityKind,
		"entity_id":    f.EntityID,
		"name":         f.Name,
		"content_type": f.ContentType,
		"storage_key":  f.StorageKey,
		"created_at":   f.CreatedAt,
	}
}
