package state

import "github.com/oklog/ulid/v2"

// Subscriber receives states in emission order. When its outbox is full the
// oldest buffered state is discarded so the newest one always arrives.
type Subscriber struct {
	ID   ulid.ULID
	Ch   chan State
	Done chan struct{}
}

// offer must be called with the controller lock held. It reports whether an
// older state had to be dropped.
func (s *Subscriber) offer(st State) (dropped bool) {
	for {
		select {
		case s.Ch <- st:
			return dropped
		default:
		}
		select {
		case <-s.Ch:
			dropped = true
		default:
		}
	}
}

func (s *Subscriber) close() {
	close(s.Done)
	close(s.Ch)
}

// Subscribe registers id. The subscriber first receives the latest state,
// never older history. The returned func unsubscribes.
func (c *Controller) Subscribe(id ulid.ULID) (*Subscriber, func()) {
	s := &Subscriber{
		ID:   id,
		Ch:   make(chan State, c.outbox),
		Done: make(chan struct{}),
	}

	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		s.close()
		return s, func() {}
	default:
	}
	if old, ok := c.subs[id]; ok {
		old.close()
	}
	s.Ch <- c.latest
	c.subs[id] = s
	c.mu.Unlock()

	return s, func() { c.unsubscribe(id, s) }
}

func (c *Controller) unsubscribe(id ulid.ULID, s *Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.subs[id]; ok && cur == s {
		delete(c.subs, id)
		s.close()
	}
}

// Subscribers returns the number of live subscribers.
func (c *Controller) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
