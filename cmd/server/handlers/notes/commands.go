package notes

import (
	"bytes"
	"encoding/json"
	"time"

	"scribes/internal/apperr"
	"scribes/internal/services/notes"
	"scribes/internal/services/reminders"
	"scribes/internal/services/state"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Client frame types that are not note intents.
const (
	cmdCreateReminder = "CreateReminder"
	cmdCancelReminder = "CancelReminder"
)

// Server frame types.
const (
	frameState    = "state"
	frameReminder = "reminder"
	frameError    = "error"
)

// command is one client frame. Only the fields of its type are read.
type command struct {
	Type        string          `json:"type"`
	ID          string          `json:"id,omitempty"`
	Note        json.RawMessage `json:"note,omitempty"`
	Query       string          `json:"query,omitempty"`
	Tag         string          `json:"tag,omitempty"`
	NoteID      string          `json:"note_id,omitempty"`
	ScheduledAt time.Time       `json:"scheduled_at,omitempty"`
}

type stateFrame struct {
	Type  string      `json:"type"`
	State state.State `json:"state"`
}

type reminderFrame struct {
	Type     string              `json:"type"`
	Reminder *reminders.Reminder `json:"reminder"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func decodeCommand(data []byte) (command, error) {
	var cmd command
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		return command{}, apperr.Invalid("malformed frame")
	}
	if cmd.Type == "" {
		return command{}, apperr.Invalid("type is required")
	}
	return cmd, nil
}

func parseID(raw, field string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return bson.ObjectID{}, apperr.Invalid("%s must be a valid id", field)
	}
	return id, nil
}

func (cmd command) decodeNote(into any) error {
	if len(cmd.Note) == 0 || string(cmd.Note) == "null" {
		return apperr.Invalid("note is required")
	}
	if err := json.Unmarshal(cmd.Note, into); err != nil {
		return apperr.Invalid("note is malformed")
	}
	return nil
}

// intent maps a note command to the controller intent it stands for.
func (cmd command) intent() (state.Intent, error) {
	switch cmd.Type {
	case "LoadNotes":
		return state.LoadNotes{}, nil
	case "Refresh":
		return state.Refresh{}, nil
	case "AddNote":
		var d notes.Draft
		if err := cmd.decodeNote(&d); err != nil {
			return nil, err
		}
		return state.AddNote{Draft: d}, nil
	case "UpdateNote":
		id, err := parseID(cmd.ID, "id")
		if err != nil {
			return nil, err
		}
		var p notes.Patch
		if err := cmd.decodeNote(&p); err != nil {
			return nil, err
		}
		return state.UpdateNote{ID: id, Patch: p}, nil
	case "DeleteNote":
		id, err := parseID(cmd.ID, "id")
		if err != nil {
			return nil, err
		}
		return state.DeleteNote{ID: id}, nil
	case "SearchNotes":
		return state.SearchNotes{Query: cmd.Query}, nil
	case "FilterNotesByTag":
		return state.FilterNotesByTag{Tag: cmd.Tag}, nil
	}
	return nil, apperr.Invalid("unknown frame type %q", cmd.Type)
}
