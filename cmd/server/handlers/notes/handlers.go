package notes

import (
	"context"

	"scribes/cmd/server/handlers/handlerutil"
	"scribes/internal/services/notes"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service defines the interface for notes service
type Service interface {
	Create(ctx context.Context, userID bson.ObjectID, draft notes.Draft) (*notes.Note, error)
	List(ctx context.Context, userID bson.ObjectID) ([]*notes.Note, error)
	Get(ctx context.Context, userID, noteID bson.ObjectID) (*notes.Note, error)
	Search(ctx context.Context, userID bson.ObjectID, query string) ([]*notes.Note, error)
	ListByTag(ctx context.Context, userID bson.ObjectID, tag string) ([]*notes.Note, error)
	Recent(ctx context.Context, userID bson.ObjectID, limit int) ([]*notes.Note, error)
	Update(ctx context.Context, userID, noteID bson.ObjectID, patch notes.Patch) (*notes.Note, error)
	Delete(ctx context.Context, userID, noteID bson.ObjectID) error
}

// ListResponse is the body of every notes list endpoint.
type ListResponse struct {
	Notes []*notes.Note `json:"notes"`
	Count int           `json:"count" example:"2"`
}

func listResponse(list []*notes.Note) ListResponse {
	if list == nil {
		list = []*notes.Note{}
	}
	return ListResponse{Notes: list, Count: len(list)}
}

// Handlers contains the notes HTTP handlers
type Handlers struct {
	service Service
}

// NewHandlers creates new notes handlers
func NewHandlers(service Service) *Handlers {
	return &Handlers{service: service}
}

// Create handles note creation
// @Summary Create a new note
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body notes.Draft true "Create note request"
// @Success 201 {object} notes.Note
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /notes [post]
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var draft notes.Draft
	if err := handlerutil.ParseBody(c, &draft, "Create"); err != nil {
		return err
	}

	note, err := h.service.Create(c.UserContext(), userID, draft)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "Create", "user_id", userID.Hex())
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

// List handles notes listing, search and tag filtering
// @Summary List notes, newest first
// @Description q searches title, content, tags and scripture refs; tag filters by tag. q wins when both are set.
// @Tags notes
// @Produce json
// @Security Bearer
// @Param q query string false "Case-insensitive search"
// @Param tag query string false "Tag filter"
// @Success 200 {object} ListResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /notes [get]
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var list []*notes.Note
	switch {
	case c.Query("q") != "":
		list, err = h.service.Search(c.UserContext(), userID, c.Query("q"))
	case c.Query("tag") != "":
		list, err = h.service.ListByTag(c.UserContext(), userID, c.Query("tag"))
	default:
		list, err = h.service.List(c.UserContext(), userID)
	}
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "List", "user_id", userID.Hex())
	}

	return c.JSON(listResponse(list))
}

// Recent returns the most recently updated notes
// @Summary Recently updated notes
// @Tags notes
// @Produce json
// @Security Bearer
// @Param limit query int false "How many notes (default: 5, max: 50)" minimum(1) maximum(50)
// @Success 200 {object} ListResponse
// @Failure 400 {object} httperr.E
// @Router /notes/recent [get]
func (h *Handlers) Recent(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	list, err := h.service.Recent(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "Recent", "user_id", userID.Hex())
	}

	return c.JSON(listResponse(list))
}

// Get returns one note
// @Summary Get a note
// @Tags notes
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 200 {object} notes.Note
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [get]
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractID(c, "id", "Get", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	note, err := h.service.Get(c.UserContext(), userID, noteID)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "Get", "user_id", userID.Hex(), "note_id", noteID.Hex())
	}

	return c.JSON(note)
}

// Update handles note updates
// @Summary Update a note
// @Description Only the fields present in the body change.
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Param request body notes.Patch true "Update note request"
// @Success 200 {object} notes.Note
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [patch]
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractID(c, "id", "Update", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	var patch notes.Patch
	if err := handlerutil.ParseBody(c, &patch, "Update"); err != nil {
		return err
	}

	note, err := h.service.Update(c.UserContext(), userID, noteID, patch)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "Update", "user_id", userID.Hex(), "note_id", noteID.Hex())
	}

	return c.JSON(note)
}

// Delete handles note deletion
// @Summary Delete a note and its reminders
// @Tags notes
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 204
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [delete]
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractID(c, "id", "Delete", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), userID, noteID); err != nil {
		return handlerutil.HandleServiceError(c, err, "Delete", "user_id", userID.Hex(), "note_id", noteID.Hex())
	}

	return c.SendStatus(fiber.StatusNoContent)
}
