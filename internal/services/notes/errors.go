package notes

import "scribes/internal/apperr"

// ErrNoteNotFound is returned when a note is absent or owned by another user.
var ErrNoteNotFound = apperr.NotFound("note not found")

const (
	msgCreateNote = "failed to create note"
	msgUpdateNote = "failed to update note"
	msgDeleteNote = "failed to delete note"
	msgListNotes  = "failed to list notes"
	msgGetNote    = "failed to get note"
)
