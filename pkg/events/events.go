// Package events implements an observer-style event bus for decoupling
// domain side effects from the services that trigger them.
package events

import (
	"context"
	"sync"
	"time"
)

// Event is a domain occurrence published on the bus.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides the OccurredAt timestamp for concrete events.
type BaseEvent struct {
	At time.Time
}

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{At: time.Now()}
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.At
}

// Handler consumes published events.
type Handler func(ctx context.Context, event Event)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	name string
	id   int
}

// Bus fan-outs events to subscribers by event name.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for an event name.
func (b *Bus) Subscribe(name string, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[name] == nil {
		b.handlers[name] = make(map[int]Handler)
	}
	b.nextID++
	b.handlers[name][b.nextID] = handler
	return Subscription{name: name, id: b.nextID}
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers[sub.name], sub.id)
}

// Publish delivers an event synchronously to every subscriber, in
// unspecified order.
func (b *Bus) Publish(ctx context.Context, event Event) {
	for _, handler := range b.snapshot(event.EventName()) {
		handler(ctx, event)
	}
}

// PublishAsync delivers an event to every subscriber on its own goroutine
// and returns a WaitGroup the caller may wait on.
func (b *Bus) PublishAsync(ctx context.Context, event Event) *sync.WaitGroup {
	handlers := b.snapshot(event.EventName())

	var wg sync.WaitGroup
	wg.Add(len(handlers))
	for _, handler := range handlers {
		go func(h Handler) {
			defer wg.Done()
			h(ctx, event)
		}(handler)
	}
	return &wg
}

func (b *Bus) snapshot(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers := make([]Handler, 0, len(b.handlers[name]))
	for _, h := range b.handlers[name] {
		handlers = append(handlers, h)
	}
	return handlers
}
