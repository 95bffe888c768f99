package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/repository"
)

// TaskHandler serves the owner task endpoints. A task can be created
// from a tenant message, in which case the message is flipped to
// "Tâche créé" inside the same transaction.
type TaskHandler struct {
	Tasks *repository.TaskRepo
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(tasks *repository.TaskRepo) *TaskHandler {
	if tasks == nil {
		panic("nil repository passed to NewTaskHandler")
	}
	return &TaskHandler{Tasks: tasks}
}

type taskBody struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	StatusID  uint64  `json:"status_id"`
	MessageID *uint64 `json:"message_id"`
}

func (b *taskBody) toInput() (repository.TaskInput, error) {
	in := repository.TaskInput{
		Title:     strings.TrimSpace(b.Title),
		Content:   b.Content,
		StatusID:  b.StatusID,
		MessageID: b.MessageID,
	}
	if b.StartDate == "" {
		return in, errRequired("start_date")
	}
	if b.EndDate == "" {
		return in, errRequired("end_date")
	}
	var err error
	if in.StartDate, err = parseDateField(b.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = parseDateField(b.EndDate); err != nil {
		return in, err
	}
	return in, nil
}

// Create handles POST /v1/tasks.
func (h *TaskHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body taskBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Title == "" || body.StatusID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and status_id are required"})
	}
	in, err := body.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	t, err := h.Tasks.Create(c.Request().Context(), ownerID, in)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, taskJSON(t))
}

// List handles GET /v1/tasks.
func (h *TaskHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Tasks.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, taskJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": out})
}

// Get handles GET /v1/tasks/:id and returns the task with its ledger.
// History rows snapshot the whole task, not just the status, so past
// reschedules stay visible.
func (h *TaskHandler) Get(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Tasks.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	history, err := h.Tasks.History(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeRepoError(c, err)
	}
	hist := make([]echo.Map, 0, len(history))
	for i := range history {
		h := &history[i]
		hist = append(hist, echo.Map{
			"id": h.ID, "status_id": h.StatusID, "title": h.Title, "content": h.Content,
			"start_date": h.StartDate, "end_date": h.EndDate, "created_at": h.CreatedAt,
		})
	}
	out := taskJSON(t)
	out["history"] = hist
	return c.JSON(http.StatusOK, out)
}

// Update handles PUT /v1/tasks/:id.
func (h *TaskHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body taskBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Title == "" || body.StatusID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and status_id are required"})
	}
	in, err := body.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	t, err := h.Tasks.UpdateByIDAndOwner(c.Request().Context(), id, ownerID, in)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, taskJSON(t))
}

// Delete handles DELETE /v1/tasks/:id. A task with repairs attached
// is refused with a 409; repairs must go first.
func (h *TaskHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Tasks.DeleteByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
