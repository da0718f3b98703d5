package reminders

import (
	"context"
	"time"

	"scribes/cmd/server/handlers/handlerutil"
	"scribes/cmd/server/handlers/httperr"
	"scribes/internal/services/notes"
	"scribes/internal/services/reminders"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Manager is the slice of reminders.Manager the handlers use.
type Manager interface {
	Create(ctx context.Context, userID, noteID bson.ObjectID, scheduledAt time.Time) (*reminders.Reminder, error)
	Get(ctx context.Context, userID, id bson.ObjectID) (*reminders.Reminder, error)
	List(ctx context.Context, userID bson.ObjectID, f reminders.ListFilter) ([]*reminders.Reminder, error)
	Count(ctx context.Context, userID bson.ObjectID, status reminders.Status) (int64, error)
	ListByNote(ctx context.Context, userID, noteID bson.ObjectID) ([]*reminders.Reminder, error)
	Reschedule(ctx context.Context, userID, id bson.ObjectID, scheduledAt time.Time) (*reminders.Reminder, error)
	Cancel(ctx context.Context, userID, id bson.ObjectID) (*reminders.Reminder, error)
	Delete(ctx context.Context, userID, id bson.ObjectID) error
	ListUpcoming(ctx context.Context, userID bson.ObjectID, limit int) ([]*reminders.Reminder, error)
	BulkTransitionOwned(ctx context.Context, userID bson.ObjectID, ids []bson.ObjectID, to reminders.Status) (int64, error)
	Stats(ctx context.Context, userID bson.ObjectID) (*reminders.Stats, error)
}

// CreateRequest schedules a reminder.
type CreateRequest struct {
	NoteID      string    `json:"note_id" example:"683cdb8aa96ad71e8e075bd1"`
	ScheduledAt time.Time `json:"scheduled_at" example:"2025-06-08T09:00:00Z"`
}

// RescheduleRequest moves a pending reminder.
type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" example:"2025-06-09T09:00:00Z"`
}

// BulkRequest transitions many pending reminders at once.
type BulkRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action" example:"cancel" enums:"cancel,mark_sent"`
}

// BulkResponse reports how many reminders actually changed.
type BulkResponse struct {
	Transitioned int64 `json:"transitioned" example:"3"`
}

// ListQuery holds the GET /reminders query parameters.
type ListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending sent cancelled"`
	Skip   int64  `query:"skip" validate:"min=0"`
	Limit  int64  `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ListResponse is a page of reminders plus the total for the filter.
type ListResponse struct {
	Reminders []*reminders.Reminder `json:"reminders"`
	Total     int64                 `json:"total" example:"12"`
}

var bulkActions = map[string]reminders.Status{
	"cancel":    reminders.StatusCancelled,
	"mark_sent": reminders.StatusSent,
}

// Handlers contains the reminders HTTP handlers
type Handlers struct {
	manager   Manager
	validator *validator.Validate
}

// NewHandlers creates new reminders handlers
func NewHandlers(manager Manager, validator *validator.Validate) *Handlers {
	return &Handlers{manager: manager, validator: validator}
}

func nonNil(list []*reminders.Reminder) []*reminders.Reminder {
	if list == nil {
		return []*reminders.Reminder{}
	}
	return list
}

func badRequest(msg string) error {
	return httperr.Fail(httperr.E{Status: fiber.StatusBadRequest, Message: msg})
}

// Create schedules a reminder
// @Summary Schedule a reminder for a note
// @Tags reminders
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateRequest true "Create reminder request"
// @Success 201 {object} reminders.Reminder
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /reminders [post]
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req CreateRequest
	if err := handlerutil.ParseBody(c, &req, "CreateReminder"); err != nil {
		return err
	}
	noteID, err := bson.ObjectIDFromHex(req.NoteID)
	if err != nil {
		return badRequest("note_id must be a valid id")
	}

	r, err := h.manager.Create(c.UserContext(), userID, noteID, req.ScheduledAt)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "CreateReminder", "user_id", userID.Hex(), "note_id", noteID.Hex())
	}

	return c.Status(fiber.StatusCreated).JSON(r)
}

// List pages through reminders
// @Summary List reminders, soonest first
// @Tags reminders
// @Produce json
// @Security Bearer
// @Param status query string false "pending|sent|cancelled"
// @Param skip query int false "Offset" minimum(0)
// @Param limit query int false "Page size (default: 20, max: 100)" minimum(1) maximum(100)
// @Success 200 {object} ListResponse
// @Failure 400 {object} httperr.E
// @Router /reminders [get]
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var q ListQuery
	if err := handlerutil.ParseAndValidateQuery(c, &q, h.validator, "ListReminders"); err != nil {
		return err
	}

	status := reminders.Status(q.Status)
	list, err := h.manager.List(c.UserContext(), userID, reminders.ListFilter{Status: status, Skip: q.Skip, Limit: q.Limit})
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "ListReminders", "user_id", userID.Hex())
	}
	total, err := h.manager.Count(c.UserContext(), userID, status)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "ListReminders", "user_id", userID.Hex())
	}

	return c.JSON(ListResponse{Reminders: nonNil(list), Total: total})
}

// Upcoming lists the next pending reminders
// @Summary Upcoming pending reminders
// @Tags reminders
// @Produce json
// @Security Bearer
// @Param limit query int false "How many (default: 10, max: 50)" minimum(1) maximum(50)
// @Success 200 {array} reminders.Reminder
// @Failure 400 {object} httperr.E
// @Router /reminders/upcoming [get]
func (h *Handlers) Upcoming(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	list, err := h.manager.ListUpcoming(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "UpcomingReminders", "user_id", userID.Hex())
	}

	return c.JSON(nonNil(list))
}

// Stats summarizes reminders by status
// @Summary Reminder statistics
// @Tags reminders
// @Produce json
// @Security Bearer
// @Success 200 {object} reminders.Stats
// @Router /reminders/stats [get]
func (h *Handlers) Stats(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	stats, err := h.manager.Stats(c.UserContext(), userID)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "ReminderStats", "user_id", userID.Hex())
	}

	return c.JSON(stats)
}

// Bulk cancels or marks sent many reminders
// @Summary Bulk transition pending reminders
// @Description Only pending reminders owned by the caller change; the response counts them.
// @Tags reminders
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body BulkRequest true "Bulk request"
// @Success 200 {object} BulkResponse
// @Failure 400 {object} httperr.E
// @Router /reminders/bulk [post]
func (h *Handlers) Bulk(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req BulkRequest
	if err := handlerutil.ParseBody(c, &req, "BulkReminders"); err != nil {
		return err
	}
	to, ok := bulkActions[req.Action]
	if !ok {
		return badRequest("action must be one of: cancel, mark_sent")
	}
	ids := make([]bson.ObjectID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := bson.ObjectIDFromHex(raw)
		if err != nil {
			return badRequest("ids must be valid ids")
		}
		ids = append(ids, id)
	}

	n, err := h.manager.BulkTransitionOwned(c.UserContext(), userID, ids, to)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "BulkReminders", "user_id", userID.Hex())
	}

	return c.JSON(BulkResponse{Transitioned: n})
}

// Get returns one reminder
// @Summary Get a reminder
// @Tags reminders
// @Produce json
// @Security Bearer
// @Param id path string true "Reminder ID"
// @Success 200 {object} reminders.Reminder
// @Failure 404 {object} httperr.E
// @Router /reminders/{id} [get]
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := handlerutil.ExtractID(c, "id", "GetReminder", reminders.ErrReminderNotFound)
	if err != nil {
		return err
	}

	r, err := h.manager.Get(c.UserContext(), userID, id)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "GetReminder", "user_id", userID.Hex(), "reminder_id", id.Hex())
	}

	return c.JSON(r)
}

// Reschedule moves a pending reminder
// @Summary Reschedule a pending reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Reminder ID"
// @Param request body RescheduleRequest true "New schedule"
// @Success 200 {object} reminders.Reminder
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /reminders/{id} [patch]
func (h *Handlers) Reschedule(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := handlerutil.ExtractID(c, "id", "RescheduleReminder", reminders.ErrReminderNotFound)
	if err != nil {
		return err
	}

	var req RescheduleRequest
	if err := handlerutil.ParseBody(c, &req, "RescheduleReminder"); err != nil {
		return err
	}

	r, err := h.manager.Reschedule(c.UserContext(), userID, id, req.ScheduledAt)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "RescheduleReminder", "user_id", userID.Hex(), "reminder_id", id.Hex())
	}

	return c.JSON(r)
}

// Cancel cancels a pending reminder
// @Summary Cancel a pending reminder
// @Tags reminders
// @Produce json
// @Security Bearer
// @Param id path string true "Reminder ID"
// @Success 200 {object} reminders.Reminder
// @Failure 404 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /reminders/{id}/cancel [post]
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := handlerutil.ExtractID(c, "id", "CancelReminder", reminders.ErrReminderNotFound)
	if err != nil {
		return err
	}

	r, err := h.manager.Cancel(c.UserContext(), userID, id)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "CancelReminder", "user_id", userID.Hex(), "reminder_id", id.Hex())
	}

	return c.JSON(r)
}

// Delete removes a reminder that was not sent
// @Summary Delete a reminder
// @Tags reminders
// @Security Bearer
// @Param id path string true "Reminder ID"
// @Success 204
// @Failure 404 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /reminders/{id} [delete]
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := handlerutil.ExtractID(c, "id", "DeleteReminder", reminders.ErrReminderNotFound)
	if err != nil {
		return err
	}

	if err := h.manager.Delete(c.UserContext(), userID, id); err != nil {
		return handlerutil.HandleServiceError(c, err, "DeleteReminder", "user_id", userID.Hex(), "reminder_id", id.Hex())
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListByNote lists the reminders of one note
// @Summary Reminders of a note
// @Tags reminders
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 200 {array} reminders.Reminder
// @Failure 404 {object} httperr.E
// @Router /notes/{id}/reminders [get]
func (h *Handlers) ListByNote(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	noteID, err := handlerutil.ExtractID(c, "id", "NoteReminders", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	list, err := h.manager.ListByNote(c.UserContext(), userID, noteID)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "NoteReminders", "user_id", userID.Hex(), "note_id", noteID.Hex())
	}

	return c.JSON(nonNil(list))
}
