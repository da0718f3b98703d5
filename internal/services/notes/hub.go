package notes

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"scribes/internal/logger"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscriber receives the change events of one user.
type Subscriber struct {
	UserID bson.ObjectID
	Ch     chan NoteEvent
	Done   chan struct{}
}

type connInfo struct {
	id          ulid.ULID
	connectedAt time.Time
	sub         *Subscriber
}

type userSubs struct {
	mu sync.RWMutex
	m  map[ulid.ULID]connInfo
}

// Hub fans note change events out to every session of the owning user.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[bson.ObjectID]*userSubs
	connIndex   map[ulid.ULID]bson.ObjectID
	bufferSize  int
	dropped     uint64
}

// NewHub creates a hub whose subscribers buffer up to bufferSize events.
func NewHub(bufferSize int) *Hub {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Hub{
		subscribers: make(map[bson.ObjectID]*userSubs),
		connIndex:   make(map[ulid.ULID]bson.ObjectID),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers connID for userID's events. The returned func unsubscribes.
func (h *Hub) Subscribe(connID ulid.ULID, userID bson.ObjectID) (*Subscriber, func()) {
	debug(func(l *slog.Logger) {
		l.Debug("subscribing connection", "conn_id", connID.String(), "user_id", userID.Hex())
	})

	sub := &Subscriber{
		UserID: userID,
		Ch:     make(chan NoteEvent, h.bufferSize),
		Done:   make(chan struct{}),
	}

	h.mu.Lock()
	bucket, ok := h.subscribers[userID]
	if !ok {
		bucket = &userSubs{m: make(map[ulid.ULID]connInfo)}
		h.subscribers[userID] = bucket
	}
	h.connIndex[connID] = userID
	bucket.mu.Lock()
	bucket.m[connID] = connInfo{id: connID, connectedAt: time.Now(), sub: sub}
	bucket.mu.Unlock()
	h.mu.Unlock()

	return sub, func() { h.Unsubscribe(connID) }
}

// Unsubscribe removes connID and closes its channels. Unknown ids are ignored.
func (h *Hub) Unsubscribe(connID ulid.ULID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	uid, ok := h.connIndex[connID]
	if !ok {
		return
	}
	delete(h.connIndex, connID)

	bucket := h.subscribers[uid]
	if bucket == nil {
		return
	}

	bucket.mu.Lock()
	info, exists := bucket.m[connID]
	if exists {
		delete(bucket.m, connID)
		close(info.sub.Done)
		close(info.sub.Ch)
	}
	empty := len(bucket.m) == 0
	bucket.mu.Unlock()

	if empty {
		delete(h.subscribers, uid)
	}

	debug(func(l *slog.Logger) {
		l.Debug("unsubscribed connection", "conn_id", connID.String(), "user_id", uid.Hex())
	})
}

// Broadcast delivers ev to every subscriber of ev.UserID without blocking.
func (h *Hub) Broadcast(_ context.Context, ev NoteEvent) {
	h.mu.RLock()
	bucket := h.subscribers[ev.UserID]
	h.mu.RUnlock()
	if bucket == nil {
		return
	}

	bucket.mu.RLock()
	defer bucket.mu.RUnlock()
	for _, info := range bucket.m {
		sendOrDrop(info.sub.Ch, ev, func() {
			atomic.AddUint64(&h.dropped, 1)
			logger.L().Warn("outbox full, dropping note event",
				"conn_id", info.id.String(), "user_id", ev.UserID.Hex(), "event_type", ev.Type)
		})
	}
}

// Stats returns the live subscriber count and the number of dropped events.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	h.mu.RLock()
	for _, b := range h.subscribers {
		b.mu.RLock()
		subscribers += len(b.m)
		b.mu.RUnlock()
	}
	h.mu.RUnlock()
	return subscribers, atomic.LoadUint64(&h.dropped)
}

// sendOrDrop is the only place that decides to drop an event.
func sendOrDrop(ch chan NoteEvent, ev NoteEvent, onDrop func()) {
	select {
	case ch <- ev:
	default:
		onDrop()
	}
}

func debug(fn func(*slog.Logger)) {
	if l := logger.L(); l.Enabled(context.Background(), slog.LevelDebug) {
		fn(l)
	}
}

// RegisterMetrics exposes the hub's subscriber count and drop counter on reg.
func (h *Hub) RegisterMetrics(reg prometheus.Registerer) error {
	subs := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "notes_hub_subscribers",
		Help: "Live websocket subscribers of the notes hub",
	}, func() float64 {
		n, _ := h.Stats()
		return float64(n)
	})
	dropped := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "notes_hub_dropped_events_total",
		Help: "Events dropped because a subscriber outbox was full",
	}, func() float64 {
		_, d := h.Stats()
		return float64(d)
	})
	for _, c := range []prometheus.Collector{subs, dropped} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
