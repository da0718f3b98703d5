package reminders

import "scribes/internal/apperr"

var (
	// ErrReminderNotFound is returned when a reminder is absent or owned by another user.
	ErrReminderNotFound = apperr.NotFound("reminder not found")
	// ErrDuplicate is returned when the note already has a reminder at that time.
	ErrDuplicate = apperr.Conflict("a reminder already exists for this note at that time")
)
