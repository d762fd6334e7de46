package events

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Notifier fans events out to subscribers, each behind a bounded queue.
// Publish never blocks: when a subscriber's queue is full the event is
// dropped and the subscriber's drop counter incremented, so the reader
// knows to reconcile with a snapshot. The notifier is never on the
// critical path of a service transaction.
type Notifier struct {
	mu        sync.RWMutex
	subs      map[string]*Subscription
	queueSize int
}

// Subscription is one subscriber's bounded event queue.
type Subscription struct {
	id      string
	ch      chan Event
	dropped atomic.Int64
}

// ID returns the subscription's identifier.
func (s *Subscription) ID() string { return s.id }

// Events returns the subscriber's receive channel. The channel is never
// closed; readers stop via their own context.
func (s *Subscription) Events() <-chan Event { return s.ch }

// TakeDropped returns the number of events lost since the last call and
// resets the counter. A non-zero result means the reader's view is stale
// and it must snapshot.
func (s *Subscription) TakeDropped() int64 { return s.dropped.Swap(0) }

// NewNotifier creates a notifier whose subscribers each buffer up to
// queueSize pending events.
func NewNotifier(queueSize int) *Notifier {
	return &Notifier{
		subs:      make(map[string]*Subscription),
		queueSize: queueSize,
	}
}

// Subscribe registers a new subscriber.
func (n *Notifier) Subscribe() *Subscription {
	sub := &Subscription{
		id: uuid.New().String(),
		ch: make(chan Event, n.queueSize),
	}
	n.mu.Lock()
	n.subs[sub.id] = sub
	n.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber. Safe to call twice.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	delete(n.subs, id)
	n.mu.Unlock()
}

// SubscriberCount returns the number of registered subscribers.
func (n *Notifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Publish delivers the event to every subscriber whose queue has room.
func (n *Notifier) Publish(event Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, sub := range n.subs {
		select {
		case sub.ch <- event:
		default:
			if sub.dropped.Add(1) == 1 {
				slog.Warn("Subscriber queue full, dropping events",
					"subscription_id", sub.id, "channel", event.Channel)
			}
		}
	}
}
