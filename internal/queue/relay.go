package queue

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/notify"
)

// Sink receives every event the relay reads off the bus.
type Sink interface {
	Deliver(ctx context.Context, ev OrderEvent) error
}

// NotificationStore persists notifications; implemented by
// repository.NotificationRepo.
type NotificationStore interface {
	Save(ctx context.Context, n model.Notification) error
}

// StoreSink writes events straight to the store.  It replaces the broker
// round trip when no broker is configured.
type StoreSink struct {
	Store NotificationStore
}

func (s StoreSink) Deliver(ctx context.Context, ev OrderEvent) error {
	return s.Store.Save(ctx, ev.Notification())
}

// Relay forwards bus events to a sink.  It is an ordinary bus subscriber,
// so it sees only events published after Run subscribed and may miss some
// when the sink falls behind the buffer.
type Relay struct {
	bus  *notify.Bus
	sink Sink
	// Timeout bounds a single Deliver call.
	Timeout time.Duration
}

func NewRelay(bus *notify.Bus, sink Sink) *Relay {
	return &Relay{bus: bus, sink: sink, Timeout: 5 * time.Second}
}

// Run subscribes and forwards until ctx is done or the bus closes.
// Delivery errors are logged and the event dropped.
func (r *Relay) Run(ctx context.Context) {
	sub := r.bus.Subscribe()
	defer r.bus.Unsubscribe(sub)
	r.forward(ctx, sub)
}

func (r *Relay) forward(ctx context.Context, sub *notify.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			dctx, cancel := context.WithTimeout(ctx, r.Timeout)
			if err := r.sink.Deliver(dctx, FromBusEvent(ev)); err != nil {
				log.Printf("relay: deliver %s %s: %v", ev.Type, ev.ID, err)
			}
			cancel()
		}
	}
}
