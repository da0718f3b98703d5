package mongo

import (
	"time"

	"scribes/internal/services/auth"
	"scribes/internal/services/notes"
	"scribes/internal/services/reminders"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Collection names.
const (
	notesCollection     = "notes"
	remindersCollection = "reminders"
	usersCollection     = "users"
)

type noteRecord struct {
	ID            bson.ObjectID `bson:"_id"`
	UserID        bson.ObjectID `bson:"user_id"`
	Title         string        `bson:"title"`
	Content       string        `bson:"content"`
	Preacher      string        `bson:"preacher,omitempty"`
	Tags          []string      `bson:"tags"`
	ScriptureRefs []string      `bson:"scripture_refs"`
	Summary       *string       `bson:"summary,omitempty"`
	ReminderAt    *time.Time    `bson:"reminder_at,omitempty"`
	Private       bool          `bson:"private"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

type reminderRecord struct {
	ID          bson.ObjectID `bson:"_id"`
	UserID      bson.ObjectID `bson:"user_id"`
	NoteID      bson.ObjectID `bson:"note_id"`
	ScheduledAt time.Time     `bson:"scheduled_at"`
	Status      string        `bson:"status"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   *time.Time    `bson:"updated_at"`
}

type userRecord struct {
	ID           bson.ObjectID `bson:"_id"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func noteToRecord(n *notes.Note) noteRecord {
	return noteRecord{
		ID:            n.ID,
		UserID:        n.UserID,
		Title:         n.Title,
		Content:       n.Content,
		Preacher:      n.Preacher,
		Tags:          nonNil(n.Tags),
		ScriptureRefs: nonNil(n.ScriptureRefs),
		Summary:       n.Summary,
		ReminderAt:    utcPtr(n.ReminderAt),
		Private:       n.Private,
		CreatedAt:     n.CreatedAt.UTC(),
		UpdatedAt:     n.UpdatedAt.UTC(),
	}
}

func noteFromRecord(r noteRecord) *notes.Note {
	return &notes.Note{
		ID:            r.ID,
		UserID:        r.UserID,
		Title:         r.Title,
		Content:       r.Content,
		Preacher:      r.Preacher,
		Tags:          nonNil(r.Tags),
		ScriptureRefs: nonNil(r.ScriptureRefs),
		Summary:       r.Summary,
		ReminderAt:    utcPtr(r.ReminderAt),
		Private:       r.Private,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func reminderToRecord(r *reminders.Reminder) reminderRecord {
	return reminderRecord{
		ID:          r.ID,
		UserID:      r.UserID,
		NoteID:      r.NoteID,
		ScheduledAt: r.ScheduledAt.UTC(),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   utcPtr(r.UpdatedAt),
	}
}

func reminderFromRecord(r reminderRecord) *reminders.Reminder {
	return &reminders.Reminder{
		ID:          r.ID,
		UserID:      r.UserID,
		NoteID:      r.NoteID,
		ScheduledAt: r.ScheduledAt.UTC(),
		Status:      reminders.Status(r.Status),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   utcPtr(r.UpdatedAt),
	}
}

func userToRecord(u *auth.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func userFromRecord(r userRecord) *auth.User {
	return &auth.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}
