package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/model"
	"github.com/aroschi/gestimmo/internal/repository"
)

// MessageHandler serves the messaging endpoints shared by owners and
// renters. Every operation resolves the caller into a (kind, id)
// party first; the repository enforces that only participants can
// read or act on a thread.
type MessageHandler struct {
	Messages *repository.MessageRepo
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(messages *repository.MessageRepo) *MessageHandler {
	if messages == nil {
		panic("nil repository passed to NewMessageHandler")
	}
	return &MessageHandler{Messages: messages}
}

// Create handles POST /v1/messages.
func (h *MessageHandler) Create(c echo.Context) error {
	sender, err := currentParty(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		RecipientKind string `json:"recipient_kind"`
		RecipientID   uint64 `json:"recipient_id"`
		Title         string `json:"title"`
		Content       string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Title = strings.TrimSpace(body.Title)
	if body.Title == "" || body.RecipientID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, recipient_kind and recipient_id are required"})
	}
	kind := strings.ToUpper(strings.TrimSpace(body.RecipientKind))
	if kind != model.PartyOwner && kind != model.PartyRenter {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "recipient_kind must be OWNER or RENTER"})
	}
	m, err := h.Messages.Create(c.Request().Context(), sender, repository.Party{Kind: kind, ID: body.RecipientID}, body.Title, body.Content)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, messageJSON(m))
}

// ListSent handles GET /v1/messages/sent.
func (h *MessageHandler) ListSent(c echo.Context) error {
	p, err := currentParty(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Messages.ListSent(c.Request().Context(), p)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": messagesJSON(items)})
}

// ListReceived handles GET /v1/messages/received. Archived threads
// are filtered out; they live under /v1/messages/archived.
func (h *MessageHandler) ListReceived(c echo.Context) error {
	p, err := currentParty(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Messages.ListReceived(c.Request().Context(), p)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": messagesJSON(items)})
}

// ListArchived handles GET /v1/messages/archived.
func (h *MessageHandler) ListArchived(c echo.Context) error {
	p, err := currentParty(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Messages.ListArchived(c.Request().Context(), p)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": messagesJSON(items)})
}

func messagesJSON(items []model.Message) []echo.Map {
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, messageJSON(&items[i]))
	}
	return out
}

// Get handles GET /v1/messages/:id.
func (h *MessageHandler) Get(c echo.Context) error {
	p, err := currentParty(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, err := h.Messages.GetForParty(c.Request().Context(), id, p)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, messageJSON(m))
}

// SetStatus handles PUT /v1/messages/:id/status. Participants can
// mark a thread Non lu, Terminé or Archivé; "Tâche créé" is reserved
// for the task workflow and cannot be set by hand.
func (h *MessageHandler) SetStatus(c echo.Context) error {
	p, err := currentParty(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	switch body.Status {
	case model.MessageUnread, model.MessageDone, model.MessageArchived:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	m, err := h.Messages.SetStatus(c.Request().Context(), id, p, body.Status)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, messageJSON(m))
}

// Archive handles PUT /v1/messages/:id/archive.
func (h *MessageHandler) Archive(c echo.Context) error {
	return h.setFixedStatus(c, model.MessageArchived)
}

// Unarchive handles PUT /v1/messages/:id/unarchive and puts the
// thread back into the received list as unread.
func (h *MessageHandler) Unarchive(c echo.Context) error {
	return h.setFixedStatus(c, model.MessageUnread)
}

func (h *MessageHandler) setFixedStatus(c echo.Context, status string) error {
	p, err := currentParty(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, err := h.Messages.SetStatus(c.Request().Context(), id, p, status)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, messageJSON(m))
}

// Delete handles DELETE /v1/messages/:id. A message that already
// spawned a task is refused with a 409 to keep the task's origin
// intact.
func (h *MessageHandler) Delete(c echo.Context) error {
	p, err := currentParty(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Messages.Delete(c.Request().Context(), id, p); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddComment handles POST /v1/messages/:id/comments.
func (h *MessageHandler) AddComment(c echo.Context) error {
	p, err := currentParty(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}
	cm, err := h.Messages.AddComment(c.Request().Context(), id, p, body.Content)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, commentJSON(cm))
}

// ListComments handles GET /v1/messages/:id/comments, oldest first.
func (h *MessageHandler) ListComments(c echo.Context) error {
	p, err := currentParty(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Messages.ListComments(c.Request().Context(), id, p)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, commentJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": out})
}
