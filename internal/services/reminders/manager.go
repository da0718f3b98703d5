package reminders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"scribes/internal/apperr"
	"scribes/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// DefaultMaxDaysAhead bounds how far in the future a reminder may be scheduled.
	DefaultMaxDaysAhead = 365

	defaultListLimit     = 20
	maxListLimit         = 100
	defaultUpcomingLimit = 10
	maxUpcomingLimit     = 50
	maxBulkIDs           = 500
)

const (
	msgCreateReminder = "failed to create reminder"
	msgUpdateReminder = "failed to update reminder"
	msgDeleteReminder = "failed to delete reminder"
	msgListReminders  = "failed to list reminders"
)

// Options tune the lifecycle rules.
type Options struct {
	MaxDaysAhead int
	Now          func() time.Time
}

// Manager enforces the reminder scheduling rules and status transitions.
type Manager struct {
	repo     Repository
	notes    NoteFinder
	atomic   Atomic
	log      *slog.Logger
	maxDays  int
	maxAhead time.Duration
	now      func() time.Time
}

// NewManager wires a lifecycle manager. atomic may be nil, in which case
// multi-step operations run without a transaction.
func NewManager(repo Repository, noteFinder NoteFinder, atomic Atomic, log *slog.Logger, opts Options) *Manager {
	if opts.MaxDaysAhead <= 0 {
		opts.MaxDaysAhead = DefaultMaxDaysAhead
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		repo:     repo,
		notes:    noteFinder,
		atomic:   atomic,
		log:      log,
		maxDays:  opts.MaxDaysAhead,
		maxAhead: time.Duration(opts.MaxDaysAhead) * 24 * time.Hour,
		now:      opts.Now,
	}
}

func (m *Manager) clock() time.Time {
	return notes.Timestamp(m.now())
}

func (m *Manager) runAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.atomic == nil {
		return fn(ctx)
	}
	return m.atomic.RunAtomic(ctx, fn)
}

func (m *Manager) checkSchedule(at, now time.Time) error {
	if at.IsZero() {
		return apperr.Invalid("scheduled_at is required")
	}
	if !at.After(now) {
		return apperr.Invalid("scheduled time must be in the future")
	}
	if at.Sub(now) > m.maxAhead {
		return apperr.Invalid("scheduled time must be within %d days", m.maxDays)
	}
	return nil
}

func (m *Manager) ownedNote(ctx context.Context, userID, noteID bson.ObjectID) error {
	if _, err := m.notes.Get(ctx, userID, noteID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return notes.ErrNoteNotFound
		}
		return apperr.Store("failed to look up note", err)
	}
	return nil
}

// Create schedules a pending reminder for a note the user owns.
func (m *Manager) Create(ctx context.Context, userID, noteID bson.ObjectID, scheduledAt time.Time) (*Reminder, error) {
	now := m.clock()
	at := notes.Timestamp(scheduledAt)
	if err := m.checkSchedule(at, now); err != nil {
		return nil, err
	}

	r := &Reminder{
		ID:          bson.NewObjectID(),
		UserID:      userID,
		NoteID:      noteID,
		ScheduledAt: at,
		Status:      StatusPending,
		CreatedAt:   now,
	}

	err := m.runAtomic(ctx, func(ctx context.Context) error {
		if err := m.ownedNote(ctx, userID, noteID); err != nil {
			return err
		}
		taken, err := m.repo.ExistsAt(ctx, noteID, at)
		if err != nil {
			return apperr.Store(msgCreateReminder, err)
		}
		if taken {
			return ErrDuplicate
		}
		return m.repo.Create(ctx, r)
	})
	if err != nil {
		m.logFailure(msgCreateReminder, err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, apperr.Store(msgCreateReminder, err)
	}

	m.log.Info("reminder created", "user_id", userID.Hex(), "reminder_id", r.ID.Hex(), "note_id", noteID.Hex())
	return r, nil
}

// Get returns a reminder owned by the user.
func (m *Manager) Get(ctx context.Context, userID, id bson.ObjectID) (*Reminder, error) {
	r, err := m.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrReminderNotFound
		}
		m.log.Error("failed to get reminder", "error", err, "user_id", userID.Hex(), "reminder_id", id.Hex())
		return nil, apperr.Store("failed to get reminder", err)
	}
	return r, nil
}

// List pages through the user's reminders, optionally by status.
func (m *Manager) List(ctx context.Context, userID bson.ObjectID, f ListFilter) ([]*Reminder, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Invalid("status must be one of: pending, sent, cancelled")
	}
	if f.Skip < 0 {
		return nil, apperr.Invalid("skip must not be negative")
	}
	if f.Limit == 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit < 1 || f.Limit > maxListLimit {
		return nil, apperr.Invalid("limit must be between 1 and %d", maxListLimit)
	}

	list, err := m.repo.List(ctx, userID, f)
	if err != nil {
		m.log.Error(msgListReminders, "error", err, "user_id", userID.Hex())
		return nil, apperr.Store(msgListReminders, err)
	}
	return list, nil
}

// Count returns how many reminders match status. An empty status counts all.
func (m *Manager) Count(ctx context.Context, userID bson.ObjectID, status Status) (int64, error) {
	if status != "" && !status.Valid() {
		return 0, apperr.Invalid("status must be one of: pending, sent, cancelled")
	}
	n, err := m.repo.Count(ctx, userID, status)
	if err != nil {
		m.log.Error(msgListReminders, "error", err, "user_id", userID.Hex())
		return 0, apperr.Store(msgListReminders, err)
	}
	return n, nil
}

// ListByNote returns every reminder of a note the user owns.
func (m *Manager) ListByNote(ctx context.Context, userID, noteID bson.ObjectID) ([]*Reminder, error) {
	if err := m.ownedNote(ctx, userID, noteID); err != nil {
		return nil, err
	}
	list, err := m.repo.ListByNote(ctx, userID, noteID)
	if err != nil {
		m.log.Error(msgListReminders, "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, apperr.Store(msgListReminders, err)
	}
	return list, nil
}

// Reschedule moves a pending reminder to a new time.
func (m *Manager) Reschedule(ctx context.Context, userID, id bson.ObjectID, scheduledAt time.Time) (*Reminder, error) {
	cur, err := m.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if cur.Status != StatusPending {
		return nil, apperr.Invalid("only pending reminders can be rescheduled, this one is %s", cur.Status)
	}

	now := m.clock()
	at := notes.Timestamp(scheduledAt)
	if err := m.checkSchedule(at, now); err != nil {
		return nil, err
	}
	if at.Equal(cur.ScheduledAt) {
		return cur, nil
	}

	var updated *Reminder
	err = m.runAtomic(ctx, func(ctx context.Context) error {
		taken, err := m.repo.ExistsAt(ctx, cur.NoteID, at)
		if err != nil {
			return apperr.Store(msgUpdateReminder, err)
		}
		if taken {
			return ErrDuplicate
		}
		updated, err = m.repo.UpdateSchedule(ctx, userID, id, at, now)
		return err
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Invalid("only pending reminders can be rescheduled")
		}
		m.logFailure(msgUpdateReminder, err, "user_id", userID.Hex(), "reminder_id", id.Hex())
		return nil, apperr.Store(msgUpdateReminder, err)
	}
	return updated, nil
}

// Cancel moves a pending reminder to cancelled.
func (m *Manager) Cancel(ctx context.Context, userID, id bson.ObjectID) (*Reminder, error) {
	cur, err := m.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, StatusCancelled) {
		return nil, apperr.Conflict("reminder is already %s", cur.Status)
	}

	updated, err := m.repo.Cancel(ctx, userID, id, m.clock())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Conflict("reminder is no longer pending")
		}
		m.log.Error(msgUpdateReminder, "error", err, "user_id", userID.Hex(), "reminder_id", id.Hex())
		return nil, apperr.Store(msgUpdateReminder, err)
	}

	m.log.Info("reminder cancelled", "user_id", userID.Hex(), "reminder_id", id.Hex())
	return updated, nil
}

// Delete removes a reminder that has not been sent.
func (m *Manager) Delete(ctx context.Context, userID, id bson.ObjectID) error {
	cur, err := m.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if cur.Status == StatusSent {
		return apperr.Conflict("sent reminders cannot be deleted")
	}

	if err := m.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Conflict("reminder changed while deleting, please retry")
		}
		m.log.Error(msgDeleteReminder, "error", err, "user_id", userID.Hex(), "reminder_id", id.Hex())
		return apperr.Store(msgDeleteReminder, err)
	}
	return nil
}

// ListUpcoming returns pending reminders still ahead, soonest first.
func (m *Manager) ListUpcoming(ctx context.Context, userID bson.ObjectID, limit int) ([]*Reminder, error) {
	if limit == 0 {
		limit = defaultUpcomingLimit
	}
	if limit < 1 || limit > maxUpcomingLimit {
		return nil, apperr.Invalid("limit must be between 1 and %d", maxUpcomingLimit)
	}

	list, err := m.repo.ListUpcoming(ctx, userID, m.clock(), limit)
	if err != nil {
		m.log.Error(msgListReminders, "error", err, "user_id", userID.Hex())
		return nil, apperr.Store(msgListReminders, err)
	}
	return list, nil
}

// ListOverdue returns pending reminders of every user that are due at now.
// It backs the background sweep and is not exposed to users.
func (m *Manager) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*Reminder, error) {
	if limit <= 0 {
		limit = maxBulkIDs
	}
	list, err := m.repo.ListOverdue(ctx, notes.Timestamp(now), limit)
	if err != nil {
		m.log.Error(msgListReminders, "error", err)
		return nil, apperr.Store(msgListReminders, err)
	}
	return list, nil
}

// BulkTransition moves every pending reminder among ids to status to and
// returns how many moved. Reminders that are not pending are skipped.
func (m *Manager) BulkTransition(ctx context.Context, ids []bson.ObjectID, to Status) (int64, error) {
	return m.transition(ctx, nil, ids, to)
}

// BulkTransitionOwned is BulkTransition restricted to the user's reminders.
func (m *Manager) BulkTransitionOwned(ctx context.Context, userID bson.ObjectID, ids []bson.ObjectID, to Status) (int64, error) {
	return m.transition(ctx, &userID, ids, to)
}

func (m *Manager) transition(ctx context.Context, owner *bson.ObjectID, ids []bson.ObjectID, to Status) (int64, error) {
	if !to.Terminal() {
		return 0, apperr.Invalid("reminders can only move to sent or cancelled")
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) > maxBulkIDs {
		return 0, apperr.Invalid("at most %d reminders per request", maxBulkIDs)
	}

	n, err := m.repo.TransitionPending(ctx, owner, ids, to, m.clock())
	if err != nil {
		m.log.Error(msgUpdateReminder, "error", err, "count", len(ids), "status", string(to))
		return 0, apperr.Store(msgUpdateReminder, err)
	}
	return n, nil
}

// Stats counts the user's reminders by status.
func (m *Manager) Stats(ctx context.Context, userID bson.ObjectID) (*Stats, error) {
	byStatus, err := m.repo.CountByStatus(ctx, userID)
	if err != nil {
		m.log.Error(msgListReminders, "error", err, "user_id", userID.Hex())
		return nil, apperr.Store(msgListReminders, err)
	}
	upcoming, err := m.repo.CountUpcoming(ctx, userID, m.clock())
	if err != nil {
		m.log.Error(msgListReminders, "error", err, "user_id", userID.Hex())
		return nil, apperr.Store(msgListReminders, err)
	}

	s := &Stats{
		Pending:   byStatus[StatusPending],
		Sent:      byStatus[StatusSent],
		Cancelled: byStatus[StatusCancelled],
		Upcoming:  upcoming,
	}
	s.Total = s.Pending + s.Sent + s.Cancelled
	return s, nil
}

func (m *Manager) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if apperr.Expected(err) {
		m.log.Info(msg, args...)
		return
	}
	m.log.Error(msg, args...)
}

func uniqueIDs(ids []bson.ObjectID) []bson.ObjectID {
	seen := make(map[bson.ObjectID]struct{}, len(ids))
	out := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
