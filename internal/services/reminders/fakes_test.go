package reminders

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"scribes/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// memRepo is an in-memory Repository with the same conditional-update
// semantics as the Mongo implementation.
type memRepo struct {
	mu   sync.Mutex
	byID map[bson.ObjectID]*Reminder
	err  error
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[bson.ObjectID]*Reminder)}
}

func clone(r *Reminder) *Reminder {
	c := *r
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func (m *memRepo) sorted(keep func(*Reminder) bool) []*Reminder {
	out := []*Reminder{}
	for _, r := range m.byID {
		if keep(r) {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out
}

func (m *memRepo) Create(_ context.Context, r *Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, x := range m.byID {
		if x.NoteID == r.NoteID && x.ScheduledAt.Equal(r.ScheduledAt) {
			return ErrDuplicate
		}
	}
	m.byID[r.ID] = clone(r)
	return nil
}

func (m *memRepo) Get(_ context.Context, userID, id bson.ObjectID) (*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.byID[id]
	if !ok || r.UserID != userID {
		return nil, ErrReminderNotFound
	}
	return clone(r), nil
}

func (m *memRepo) List(_ context.Context, userID bson.ObjectID, f ListFilter) ([]*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(r *Reminder) bool {
		return r.UserID == userID && (f.Status == "" || r.Status == f.Status)
	})
	if f.Skip >= int64(len(all)) {
		return []*Reminder{}, nil
	}
	all = all[f.Skip:]
	if int64(len(all)) > f.Limit {
		all = all[:f.Limit]
	}
	return all, nil
}

func (m *memRepo) Count(_ context.Context, userID bson.ObjectID, status Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sorted(func(r *Reminder) bool {
		return r.UserID == userID && (status == "" || r.Status == status)
	}))), nil
}

func (m *memRepo) ListByNote(_ context.Context, userID, noteID bson.ObjectID) ([]*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(r *Reminder) bool { return r.UserID == userID && r.NoteID == noteID }), nil
}

func (m *memRepo) ExistsAt(_ context.Context, noteID bson.ObjectID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, r := range m.byID {
		if r.NoteID == noteID && r.ScheduledAt.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) pending(userID, id bson.ObjectID) (*Reminder, bool) {
	r, ok := m.byID[id]
	if !ok || r.UserID != userID || r.Status != StatusPending {
		return nil, false
	}
	return r, true
}

func (m *memRepo) UpdateSchedule(_ context.Context, userID, id bson.ObjectID, at, now time.Time) (*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.pending(userID, id)
	if !ok {
		return nil, ErrReminderNotFound
	}
	r.ScheduledAt, r.UpdatedAt = at, &now
	return clone(r), nil
}

func (m *memRepo) Cancel(_ context.Context, userID, id bson.ObjectID, now time.Time) (*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.pending(userID, id)
	if !ok {
		return nil, ErrReminderNotFound
	}
	r.Status, r.UpdatedAt = StatusCancelled, &now
	return clone(r), nil
}

func (m *memRepo) Delete(_ context.Context, userID, id bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok || r.UserID != userID || r.Status == StatusSent {
		return ErrReminderNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memRepo) ListUpcoming(_ context.Context, userID bson.ObjectID, now time.Time, limit int) ([]*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(func(r *Reminder) bool {
		return r.UserID == userID && r.Status == StatusPending && r.ScheduledAt.After(now)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) ListOverdue(_ context.Context, now time.Time, limit int) ([]*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := m.sorted(func(r *Reminder) bool {
		return r.Status == StatusPending && !r.ScheduledAt.After(now)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) TransitionPending(_ context.Context, owner *bson.ObjectID, ids []bson.ObjectID, to Status, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		r, ok := m.byID[id]
		if !ok || r.Status != StatusPending || (owner != nil && r.UserID != *owner) {
			continue
		}
		t := now
		r.Status, r.UpdatedAt = to, &t
		n++
	}
	return n, nil
}

func (m *memRepo) CountByStatus(_ context.Context, userID bson.ObjectID) (map[Status]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[Status]int64{}
	for _, r := range m.byID {
		if r.UserID == userID {
			out[r.Status]++
		}
	}
	return out, nil
}

func (m *memRepo) CountUpcoming(ctx context.Context, userID bson.ObjectID, now time.Time) (int64, error) {
	list, _ := m.ListUpcoming(ctx, userID, now, 1<<30)
	return int64(len(list)), nil
}

// forceStatus sets a status directly, bypassing the lifecycle rules.
func (m *memRepo) forceStatus(id bson.ObjectID, s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].Status = s
}

// memNotes resolves notes by (owner, id).
type memNotes struct {
	owned map[bson.ObjectID]bson.ObjectID // note -> owner
	err   error
}

func (n *memNotes) Get(_ context.Context, userID, noteID bson.ObjectID) (*notes.Note, error) {
	if n.err != nil {
		return nil, n.err
	}
	if owner, ok := n.owned[noteID]; ok && owner == userID {
		return &notes.Note{ID: noteID, UserID: userID}, nil
	}
	return nil, notes.ErrNoteNotFound
}

// countingAtomic records how often RunAtomic is used.
type countingAtomic struct{ calls int }

func (a *countingAtomic) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	a.calls++
	return fn(ctx)
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	mgr    *Manager
	repo   *memRepo
	notes  *memNotes
	atomic *countingAtomic
	clock  *fakeClock
	user   bson.ObjectID
	note   bson.ObjectID
}

func newFixture() *fixture {
	f := &fixture{
		repo:   newMemRepo(),
		atomic: &countingAtomic{},
		clock:  &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		user:   bson.NewObjectID(),
		note:   bson.NewObjectID(),
	}
	f.notes = &memNotes{owned: map[bson.ObjectID]bson.ObjectID{f.note: f.user}}
	f.mgr = NewManager(f.repo, f.notes, f.atomic, silentLogger, Options{Now: f.clock.Now})
	return f
}

func (f *fixture) days(n int) time.Time {
	return f.clock.Now().Add(time.Duration(n) * 24 * time.Hour)
}

