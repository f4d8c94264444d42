// Package events publishes registry lifecycle events (registrations,
// subscriptions, removals, delivery failures) to an observer. It is a side
// channel for operators; routed messages never travel through it.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event names.
const (
	ProducerRegistered   = "producer_registered"
	ProducerRemoved      = "producer_removed"
	ProducerSubscribed   = "producer_subscribed"
	ProducerUnsubscribed = "producer_unsubscribed"
	DeliveryFailed       = "delivery_failed"
)

// Event represents one lifecycle event.
// Minimal and stable: name + producer ID and optional fields via key/values.
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	ProducerID string         `json:"producer_id,omitempty"`
	Time       time.Time      `json:"time"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// New stamps an event with a fresh ID and the current time.
func New(name, producerID string, fields map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		ProducerID: producerID,
		Time:       time.Now().UTC(),
		Fields:     fields,
	}
}

// Publisher receives lifecycle events. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type Publisher interface {
	Publish(Event)
}

// Nop drops events. It is the default.
type Nop struct{}

func (Nop) Publish(Event) {}
