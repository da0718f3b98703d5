package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"scribes/internal/apperr"
	"scribes/internal/services/notes"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrClosed is returned by Submit and Do once the controller is closed.
var ErrClosed = errors.New("state controller closed")

const (
	defaultQueueSize  = 32
	defaultOutboxSize = 16
)

// NoteService is the slice of the notes service the controller drives.
type NoteService interface {
	List(ctx context.Context, userID bson.ObjectID) ([]*notes.Note, error)
	Search(ctx context.Context, userID bson.ObjectID, query string) ([]*notes.Note, error)
	ListByTag(ctx context.Context, userID bson.ObjectID, tag string) ([]*notes.Note, error)
	Create(ctx context.Context, userID bson.ObjectID, draft notes.Draft) (*notes.Note, error)
	Update(ctx context.Context, userID, noteID bson.ObjectID, patch notes.Patch) (*notes.Note, error)
	Delete(ctx context.Context, userID, noteID bson.ObjectID) error
}

// Options tune a Controller.
type Options struct {
	QueueSize  int
	OutboxSize int
	// Origin tags mutations so the session can ignore its own change events.
	Origin string
}

type request struct {
	intent Intent
	reply  chan State
}

// Controller processes the intents of one user strictly one after another.
// Every intent emits Loading followed by exactly one Loaded or Error.
// Mutations always re-read the list from the store instead of patching the
// previous state locally.
type Controller struct {
	svc    NoteService
	userID bson.ObjectID
	log    *slog.Logger
	base   context.Context

	queue     chan request
	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	latest  State
	subs    map[ulid.ULID]*Subscriber
	outbox  int
	dropped uint64
}

// New starts a controller for userID. Call Close to stop it.
func New(svc NoteService, userID bson.ObjectID, log *slog.Logger, opts Options) *Controller {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = defaultOutboxSize
	}

	base := context.Background()
	if opts.Origin != "" {
		base = notes.WithOrigin(base, opts.Origin)
	}

	c := &Controller{
		svc:    svc,
		userID: userID,
		log:    log.With("user_id", userID.Hex()),
		base:   base,
		queue:  make(chan request, opts.QueueSize),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
		latest: State{Kind: KindInitial, Notes: []*notes.Note{}},
		subs:   make(map[ulid.ULID]*Subscriber),
		outbox: opts.OutboxSize,
	}
	go c.loop()
	return c
}

// Submit queues intent. It blocks while the queue is full until ctx is done.
func (c *Controller) Submit(ctx context.Context, intent Intent) error {
	return c.enqueue(ctx, request{intent: intent})
}

// Do submits intent and waits for the state that ends it.
func (c *Controller) Do(ctx context.Context, intent Intent) (State, error) {
	req := request{intent: intent, reply: make(chan State, 1)}
	if err := c.enqueue(ctx, req); err != nil {
		return State{}, err
	}
	select {
	case st := <-req.reply:
		return st, nil
	case <-c.done:
		return State{}, ErrClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

func (c *Controller) enqueue(ctx context.Context, req request) error {
	if req.intent == nil {
		return apperr.Invalid("intent is required")
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.queue <- req:
		return nil
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Latest returns the most recently emitted state.
func (c *Controller) Latest() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Dropped returns how many states were discarded from full outboxes.
func (c *Controller) Dropped() uint64 {
	return atomic.LoadUint64(&c.dropped)
}

// Close stops accepting intents, waits for the one in flight and closes
// every subscriber. Intents still queued are discarded.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		<-c.done

		c.mu.Lock()
		for id, s := range c.subs {
			delete(c.subs, id)
			s.close()
		}
		c.mu.Unlock()
	})
}

func (c *Controller) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.closed:
			return
		case req := <-c.queue:
			c.handle(req)
		}
	}
}

func (c *Controller) handle(req request) {
	name := req.intent.Name()
	prev := c.Latest()

	c.emit(State{Kind: KindLoading, Intent: name, Notes: prev.Notes, SearchQuery: prev.SearchQuery, FilterTag: prev.FilterTag})

	next, err := c.run(req.intent, prev)
	if err != nil {
		if apperr.Expected(err) {
			c.log.Info("intent rejected", "intent", name, "error", err)
		} else {
			c.log.Error("intent failed", "intent", name, "error", err)
		}
		next = State{Kind: KindError, Notes: prev.Notes, SearchQuery: prev.SearchQuery, FilterTag: prev.FilterTag, Message: apperr.Message(err)}
	}
	next.Intent = name

	final := c.emit(next)
	if req.reply != nil {
		req.reply <- final
	}
}

func (c *Controller) run(intent Intent, prev State) (st State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("intent %s panicked: %v", intent.Name(), r)
		}
	}()

	ctx := c.base
	switch in := intent.(type) {
	case LoadNotes:
		return c.loadAll(ctx)

	case AddNote:
		if _, err := c.svc.Create(ctx, c.userID, in.Draft); err != nil {
			return State{}, err
		}
		return c.loadAll(ctx)

	case UpdateNote:
		if _, err := c.svc.Update(ctx, c.userID, in.ID, in.Patch); err != nil {
			return State{}, err
		}
		return c.loadAll(ctx)

	case DeleteNote:
		if err := c.svc.Delete(ctx, c.userID, in.ID); err != nil {
			return State{}, err
		}
		return c.loadAll(ctx)

	case SearchNotes:
		return c.search(ctx, in.Query)

	case FilterNotesByTag:
		return c.filter(ctx, in.Tag)

	case Refresh:
		switch {
		case prev.SearchQuery != "":
			return c.search(ctx, prev.SearchQuery)
		case prev.FilterTag != "":
			return c.filter(ctx, prev.FilterTag)
		}
		return c.loadAll(ctx)
	}
	return State{}, apperr.Invalid("unknown intent %q", intent.Name())
}

func (c *Controller) loadAll(ctx context.Context) (State, error) {
	list, err := c.svc.List(ctx, c.userID)
	if err != nil {
		return State{}, err
	}
	return loaded(list, "", ""), nil
}

func (c *Controller) search(ctx context.Context, query string) (State, error) {
	q := notes.NormalizeQuery(query)
	list, err := c.svc.Search(ctx, c.userID, q)
	if err != nil {
		return State{}, err
	}
	return loaded(list, q, ""), nil
}

func (c *Controller) filter(ctx context.Context, tag string) (State, error) {
	t := strings.TrimSpace(tag)
	list, err := c.svc.ListByTag(ctx, c.userID, t)
	if err != nil {
		return State{}, err
	}
	return loaded(list, "", t), nil
}

func loaded(list []*notes.Note, query, tag string) State {
	if list == nil {
		list = []*notes.Note{}
	}
	return State{Kind: KindLoaded, Notes: list, SearchQuery: query, FilterTag: tag}
}

// emit stamps st with the next sequence number, stores it as the latest
// state and offers it to every subscriber.
func (c *Controller) emit(st State) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st.Seq = c.latest.Seq + 1
	c.latest = st
	for _, s := range c.subs {
		if s.offer(st) {
			atomic.AddUint64(&c.dropped, 1)
			c.log.Warn("outbox full, dropped oldest state", "conn_id", s.ID.String(), "seq", st.Seq)
		}
	}
	return st
}
