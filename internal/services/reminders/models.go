package reminders

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Status is the lifecycle state of a reminder.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s can no longer change.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusCancelled
}

// CanTransition reports whether a reminder in from may move to to.
// Only pending reminders move, and only to sent or cancelled.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.Terminal()
}

// Reminder schedules a nudge about one of the user's notes.
type Reminder struct {
	ID          bson.ObjectID `json:"id" swaggertype:"string" example:"683cdb8aa96ad71e8e075bd3"`
	UserID      bson.ObjectID `json:"user_id" swaggertype:"string" example:"683cdb8aa96ad71e8e075bd0"`
	NoteID      bson.ObjectID `json:"note_id" swaggertype:"string" example:"683cdb8aa96ad71e8e075bd1"`
	ScheduledAt time.Time     `json:"scheduled_at" example:"2025-06-08T09:00:00Z"`
	Status      Status        `json:"status" example:"pending"`
	CreatedAt   time.Time     `json:"created_at" example:"2025-06-01T23:00:26.005Z"`
	// UpdatedAt stays nil until the first change after creation.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ListFilter narrows List and Count. A zero Status matches every status.
type ListFilter struct {
	Status Status
	Skip   int64
	Limit  int64
}

// Stats summarizes a user's reminders.
type Stats struct {
	Total     int64 `json:"total" example:"12"`
	Pending   int64 `json:"pending" example:"4"`
	Sent      int64 `json:"sent" example:"7"`
	Cancelled int64 `json:"cancelled" example:"1"`
	Upcoming  int64 `json:"upcoming" example:"3"`
}
