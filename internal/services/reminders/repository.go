package reminders

import (
	"context"
	"time"

	"scribes/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository persists reminders. Lists are ordered by scheduled_at ascending.
type Repository interface {
	// Create fails with a conflict when (note_id, scheduled_at) is taken.
	Create(ctx context.Context, r *Reminder) error
	Get(ctx context.Context, userID, id bson.ObjectID) (*Reminder, error)
	List(ctx context.Context, userID bson.ObjectID, f ListFilter) ([]*Reminder, error)
	Count(ctx context.Context, userID bson.ObjectID, status Status) (int64, error)
	ListByNote(ctx context.Context, userID, noteID bson.ObjectID) ([]*Reminder, error)
	ExistsAt(ctx context.Context, noteID bson.ObjectID, at time.Time) (bool, error)

	// UpdateSchedule and Cancel only touch pending reminders. A reminder that
	// is missing or no longer pending yields ErrReminderNotFound.
	UpdateSchedule(ctx context.Context, userID, id bson.ObjectID, at, now time.Time) (*Reminder, error)
	Cancel(ctx context.Context, userID, id bson.ObjectID, now time.Time) (*Reminder, error)
	// Delete refuses sent reminders with ErrReminderNotFound.
	Delete(ctx context.Context, userID, id bson.ObjectID) error

	ListUpcoming(ctx context.Context, userID bson.ObjectID, now time.Time, limit int) ([]*Reminder, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*Reminder, error)
	// TransitionPending moves the pending reminders among ids to status to and
	// returns how many moved. A nil owner matches every user.
	TransitionPending(ctx context.Context, owner *bson.ObjectID, ids []bson.ObjectID, to Status, now time.Time) (int64, error)
	CountByStatus(ctx context.Context, userID bson.ObjectID) (map[Status]int64, error)
	CountUpcoming(ctx context.Context, userID bson.ObjectID, now time.Time) (int64, error)
}

// NoteFinder resolves a note with an ownership check.
type NoteFinder interface {
	Get(ctx context.Context, userID, noteID bson.ObjectID) (*notes.Note, error)
}

// Atomic runs fn as one unit against the store.
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier is told about reminders that just became due.
type Notifier interface {
	ReminderDue(ctx context.Context, r *Reminder)
}
