// Package state serializes note intents for one user session and publishes
// the resulting sequence of observable states.
package state

import (
	"scribes/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Kind is the phase of the observable state.
type Kind string

const (
	KindInitial Kind = "initial"
	KindLoading Kind = "loading"
	KindLoaded  Kind = "loaded"
	KindError   Kind = "error"
)

// State is one observable snapshot. Seq increases by one per emission.
//
// Loading and Error keep the notes of the last Loaded state so a failed
// intent never rolls the view back.
type State struct {
	Seq         uint64        `json:"seq"`
	Kind        Kind          `json:"kind"`
	Intent      string        `json:"intent,omitempty"`
	Notes       []*notes.Note `json:"notes"`
	SearchQuery string        `json:"search_query,omitempty"`
	FilterTag   string        `json:"filter_tag,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// Final reports whether s ends the handling of an intent.
func (s State) Final() bool {
	return s.Kind == KindLoaded || s.Kind == KindError
}

// Intent is a request submitted to a Controller.
type Intent interface {
	Name() string
}

// LoadNotes loads every note, newest first.
type LoadNotes struct{}

// AddNote creates a note and reloads the list.
type AddNote struct {
	Draft notes.Draft
}

// UpdateNote patches a note and reloads the list.
type UpdateNote struct {
	ID    bson.ObjectID
	Patch notes.Patch
}

// DeleteNote deletes a note with its reminders and reloads the list.
type DeleteNote struct {
	ID bson.ObjectID
}

// SearchNotes shows the notes matching Query. A blank query loads everything.
type SearchNotes struct {
	Query string
}

// FilterNotesByTag shows the notes with a tag containing Tag.
type FilterNotesByTag struct {
	Tag string
}

// Refresh re-runs the view of the last Loaded state, be it the full list,
// a search or a tag filter.
type Refresh struct{}

func (LoadNotes) Name() string        { return "LoadNotes" }
func (AddNote) Name() string          { return "AddNote" }
func (UpdateNote) Name() string       { return "UpdateNote" }
func (DeleteNote) Name() string       { return "DeleteNote" }
func (SearchNotes) Name() string      { return "SearchNotes" }
func (FilterNotesByTag) Name() string { return "FilterNotesByTag" }
func (Refresh) Name() string          { return "Refresh" }
