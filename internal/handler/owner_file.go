package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/repository"
)

// FileHandler serves the file attachment endpoints. Files are metadata
// rows pointing at external storage; the bytes themselves never pass
// through this API.
type FileHandler struct {
	Files *repository.FileRepo
}

// NewFileHandler constructs a FileHandler.
func NewFileHandler(files *repository.FileRepo) *FileHandler {
	if files == nil {
		panic("nil repository passed to NewFileHandler")
	}
	return &FileHandler{Files: files}
}

// Attach handles POST /v1/files and links a stored document to an
// apartment, contract, renter, bill or repair.
func (h *FileHandler) Attach(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		EntityKind  string `json:"entity_kind"`
		EntityID    uint64 `json:"entity_id"`
		Name        string `json:"name"`
		ContentType string `json:"content_type"`
		StorageKey  string `json:"storage_key"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.EntityKind == "" || body.EntityID == 0 || body.Name == "" || body.StorageKey == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "entity_kind, entity_id, name and storage_key are required"})
	}
	f, err := h.Files.Attach(c.Request().Context(), ownerID, body.EntityKind, body.EntityID, body.Name, body.ContentType, body.StorageKey)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, fileJSON(f))
}

// ListByEntity handles GET /v1/entities/:kind/:id/files.
func (h *FileHandler) ListByEntity(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entityID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Files.ListByEntity(c.Request().Context(), ownerID, c.Param("kind"), entityID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, fileJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"files": out})
}

// Detach handles DELETE /v1/files/:id and removes the metadata row.
// Cleaning up the stored object is the caller's job.
func (h *FileHandler) Detach(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Files.Detach(c.Request().Context(), id, ownerID); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
