// Package pubsub broadcasts engine events to UI observers: each
// subscriber gets a buffered channel, and publishes never block the
// engine.
package pubsub

import (
	"sync"
	"time"

	"github.com/lucsky/cuid"
)

// EventKind discriminates the engine events observers can receive.
type EventKind string

const (
	EventSelectionChanged EventKind = "SELECTION_CHANGED"
	EventFixturesChanged  EventKind = "FIXTURES_CHANGED"
	EventObjectAdded      EventKind = "OBJECT_ADDED"
	EventObjectRemoved    EventKind = "OBJECT_REMOVED"
	EventIoStatus         EventKind = "IO_STATUS"
)

// Event is one engine notification. ObjectID is set for object
// lifecycle events; the Io fields for IoStatus.
type Event struct {
	Kind     EventKind `json:"kind"`
	ObjectID string    `json:"objectId,omitempty"`

	LastAdapterInput time.Time `json:"lastAdapterInput,omitempty"`
	LastDmxOutput    time.Time `json:"lastDmxOutput,omitempty"`
}

// Subscriber is one registered observer.
type Subscriber struct {
	ID      string
	Channel chan Event
}

// Broker manages subscriptions and event distribution.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
}

// New creates an empty Broker.
func New() *Broker {
	return &Broker{subscribers: make(map[string]*Subscriber)}
}

// Subscribe registers a new observer with a channel buffering up to
// bufferSize events.
func (b *Broker) Subscribe(bufferSize int) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscriber{
		ID:      cuid.New(),
		Channel: make(chan Event, bufferSize),
	}
	b.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broker) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub.ID]; ok {
		close(sub.Channel)
		delete(b.subscribers, sub.ID)
	}
}

// Publish delivers event to every subscriber. Subscribers with full
// channels are skipped; the engine never blocks on a slow observer.
func (b *Broker) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		select {
		case sub.Channel <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of registered observers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
