// Package notify implements the process-wide publish/subscribe bus that
// pushes order-lifecycle events to connected admin dashboards.
//
// A Bus is created once at start-up, handed to the order service (the only
// publisher) and to the connection-accepting code (the subscribers), and
// closed at shutdown.  Delivery is best-effort and at-most-once: Publish
// never blocks, a subscriber whose buffer is full misses the event, and a
// subscriber that joins later never sees earlier events.  Events reach each
// subscriber in publish order.
package notify

import (
	"log"
	"sync"
	"sync/atomic"
)

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
}

// Subscription is a handle returned by Subscribe.  Events arrive on C until
// Unsubscribe or Close.
type Subscription struct {
	ch      chan Event
	dropped atomic.Uint64
}

// C returns the receive side of the subscription.  It is closed when the
// subscription ends.
func (s *Subscription) C() <-chan Event { return s.ch }

// Dropped reports how many events were skipped because the buffer was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// New creates a bus whose subscribers each buffer up to buffer events.
func New(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

// Subscribe registers a new subscriber.  On a closed bus the returned
// subscription's channel is already closed.
func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{ch: make(chan Event, b.buffer)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Unsubscribe removes s and closes its channel.  Calling it twice, or after
// Close, is a no-op.
func (b *Bus) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; !ok {
		return
	}
	delete(b.subs, s)
	close(s.ch)
}

// Publish delivers ev to every current subscriber without blocking and
// returns how many received it.
func (b *Bus) Publish(ev Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}
	delivered := 0
	for s := range b.subs {
		select {
		case s.ch <- ev:
			delivered++
		default:
			if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
				log.Printf("bus: slow subscriber dropped %d event(s)", n)
			}
		}
	}
	return delivered
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription and turns later Publish calls into no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
		delete(b.subs, s)
	}
}
