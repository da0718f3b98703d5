package reminders

import (
	"context"
	"log/slog"
	"time"

	"scribes/internal/utils/sanitize"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const sweepBatch = 200

// Sweeper periodically moves overdue pending reminders to sent.
type Sweeper struct {
	manager  *Manager
	notifier Notifier
	interval time.Duration
	log      *slog.Logger

	swept     prometheus.Counter
	lastSweep prometheus.Gauge
}

// NewSweeper builds a sweeper and registers its collectors on reg when reg is non-nil.
func NewSweeper(m *Manager, n Notifier, interval time.Duration, log *slog.Logger, reg prometheus.Registerer) *Sweeper {
	if n == nil {
		n = LogNotifier{Log: log}
	}
	s := &Sweeper{
		manager:  m,
		notifier: n,
		interval: interval,
		log:      log,
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_swept_total",
			Help: "Pending reminders moved to sent by the overdue sweep",
		}),
		lastSweep: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reminders_last_sweep_timestamp_seconds",
			Help: "Unix time of the last completed overdue sweep",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.swept, s.lastSweep)
	}
	return s
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info("reminder sweeper started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("reminder sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.log.Info("reminder sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// SweepOnce transitions reminders that are due now and notifies about the
// ones it moved. It returns the number moved.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	var total int64
	for {
		now := s.manager.now()
		due, err := s.manager.ListOverdue(ctx, now, sweepBatch)
		if err != nil {
			return total, err
		}
		if len(due) == 0 {
			break
		}

		ids := make([]bson.ObjectID, len(due))
		for i, r := range due {
			ids[i] = r.ID
		}
		n, err := s.manager.BulkTransition(ctx, ids, StatusSent)
		if err != nil {
			return total, err
		}
		total += n
		s.swept.Add(float64(n))
		s.notify(ctx, due, n)

		if len(due) < sweepBatch || n == 0 {
			break
		}
	}

	s.lastSweep.SetToCurrentTime()
	if total > 0 {
		s.log.Info("reminders swept", "count", total)
	}
	return total, nil
}

// notify tells the notifier about reminders that really moved. When fewer
// moved than were listed, each one is re-read to skip those a user
// cancelled in between.
func (s *Sweeper) notify(ctx context.Context, due []*Reminder, moved int64) {
	for _, r := range due {
		if int(moved) != len(due) {
			cur, err := s.manager.repo.Get(ctx, r.UserID, r.ID)
			if err != nil || cur.Status != StatusSent {
				continue
			}
			r = cur
		} else {
			r.Status = StatusSent
		}
		s.notifier.ReminderDue(ctx, r)
	}
}

// LogNotifier records due reminders in the log. Delivery channels plug in
// behind the Notifier interface. When Notes is set the entry carries a short
// plain-text preview of the note title.
type LogNotifier struct {
	Log   *slog.Logger
	Notes NoteFinder
}

const previewRunes = 60

func (n LogNotifier) ReminderDue(ctx context.Context, r *Reminder) {
	attrs := []any{
		"reminder_id", r.ID.Hex(),
		"user_id", r.UserID.Hex(),
		"note_id", r.NoteID.Hex(),
		"scheduled_at", r.ScheduledAt.Format(time.RFC3339),
	}
	if n.Notes != nil {
		if note, err := n.Notes.Get(ctx, r.UserID, r.NoteID); err == nil {
			attrs = append(attrs, "title", sanitize.Preview(note.Title, previewRunes))
		}
	}
	n.Log.Info("reminder due", attrs...)
}
