package notes

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Note is a sermon or study note owned by a single user.
type Note struct {
	ID            bson.ObjectID `json:"id" swaggertype:"string" example:"683cdb8aa96ad71e8e075bd1"`
	UserID        bson.ObjectID `json:"user_id" swaggertype:"string" example:"683cdb8aa96ad71e8e075bd0"`
	Title         string        `json:"title" example:"The Prodigal Son"`
	Content       string        `json:"content" example:"Grace runs to meet us before we finish our apology."`
	Preacher      string        `json:"preacher,omitempty" example:"Pastor Mark"`
	Tags          []string      `json:"tags" example:"grace,parables"`
	ScriptureRefs []string      `json:"scripture_refs" example:"Luke 15:11-32"`
	Summary       *string       `json:"summary,omitempty"`
	ReminderAt    *time.Time    `json:"reminder_at,omitempty"`
	Private       bool          `json:"private" example:"false"`
	CreatedAt     time.Time     `json:"created_at" example:"2025-06-01T23:00:26.005Z"`
	UpdatedAt     time.Time     `json:"updated_at" example:"2025-06-01T23:00:26.005Z"`
}

// Draft is the user-supplied part of a new note.
type Draft struct {
	Title         string     `json:"title" validate:"required,max=255" example:"The Prodigal Son"`
	Content       string     `json:"content" validate:"required" example:"Grace runs to meet us before we finish our apology."`
	Preacher      string     `json:"preacher,omitempty" validate:"max=100" example:"Pastor Mark"`
	Tags          []string   `json:"tags,omitempty" validate:"max=50,dive,max=64" example:"grace,parables"`
	ScriptureRefs []string   `json:"scripture_refs,omitempty" validate:"max=50,dive,max=64" example:"Luke 15:11-32"`
	Summary       *string    `json:"summary,omitempty" validate:"omitempty,max=5000"`
	ReminderAt    *time.Time `json:"reminder_at,omitempty"`
	Private       bool       `json:"private,omitempty" example:"false"`
}

// Patch lists the fields to replace. Nil fields are left untouched.
// ClearSummary and ClearReminderAt remove the optional fields; setting a field
// together with its clear flag is rejected.
type Patch struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255" example:"The Lost Sons"`
	Content       *string    `json:"content,omitempty" validate:"omitempty,min=1"`
	Preacher      *string    `json:"preacher,omitempty" validate:"omitempty,max=100"`
	Tags          *[]string  `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=64"`
	ScriptureRefs *[]string  `json:"scripture_refs,omitempty" validate:"omitempty,max=50,dive,max=64"`
	Summary       *string    `json:"summary,omitempty" validate:"omitempty,max=5000"`
	ReminderAt    *time.Time `json:"reminder_at,omitempty"`
	Private       *bool      `json:"private,omitempty"`

	ClearSummary    bool `json:"clear_summary,omitempty" validate:"excluded_with=Summary"`
	ClearReminderAt bool `json:"clear_reminder_at,omitempty" validate:"excluded_with=ReminderAt"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Preacher == nil &&
		p.Tags == nil && p.ScriptureRefs == nil && p.Summary == nil &&
		p.ReminderAt == nil && p.Private == nil &&
		!p.ClearSummary && !p.ClearReminderAt
}

// Apply returns a copy of n with the patch applied. It does not touch UpdatedAt.
func (p Patch) Apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Preacher != nil {
		n.Preacher = *p.Preacher
	}
	if p.Tags != nil {
		n.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.ScriptureRefs != nil {
		n.ScriptureRefs = append([]string(nil), (*p.ScriptureRefs)...)
	}
	if p.Summary != nil {
		s := *p.Summary
		n.Summary = &s
	}
	if p.ReminderAt != nil {
		t := p.ReminderAt.UTC()
		n.ReminderAt = &t
	}
	if p.ClearSummary {
		n.Summary = nil
	}
	if p.ClearReminderAt {
		n.ReminderAt = nil
	}
	if p.Private != nil {
		n.Private = *p.Private
	}
	return n
}

// NoteEvent tells other sessions of the same user that a note changed.
type NoteEvent struct {
	Type   string        `json:"type"` // "created", "updated", "deleted"
	UserID bson.ObjectID `json:"-"`
	NoteID bson.ObjectID `json:"note_id"`
	Origin string        `json:"-"`
}

// Timestamp normalizes t to the precision the store keeps.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
