package event

import (
	"errors"
	"sync"
)

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes the event
	Handle(event DomainEvent) error
	// HandledEvents returns the event names this handler handles
	HandledEvents() []string
}

// EventDispatcher dispatches domain events to registered handlers
type EventDispatcher interface {
	// Dispatch sends an event to all registered handlers and returns the
	// joined handler errors
	Dispatch(event DomainEvent) error
	// Subscribe registers a handler for events
	Subscribe(handler EventHandler)
	// Unsubscribe removes a handler
	Unsubscribe(handler EventHandler)
}

// InMemoryDispatcher is a synchronous in-memory EventDispatcher.
// Handlers run in subscription order on the dispatching goroutine, so a
// journal subscriber sees events in the order files were processed.
type InMemoryDispatcher struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
}

// NewInMemoryDispatcher creates a new InMemoryDispatcher
func NewInMemoryDispatcher() *InMemoryDispatcher {
	return &InMemoryDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Dispatch sends an event to all registered handlers. Every handler runs
// even if an earlier one failed.
func (d *InMemoryDispatcher) Dispatch(event DomainEvent) error {
	d.mu.RLock()
	named := d.handlers[event.EventName()]
	wildcard := d.handlers["*"]
	combined := make([]EventHandler, 0, len(named)+len(wildcard))
	combined = append(combined, named...)
	combined = append(combined, wildcard...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range combined {
		if err := handler.Handle(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for events
func (d *InMemoryDispatcher) Subscribe(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, eventName := range handler.HandledEvents() {
		d.handlers[eventName] = append(d.handlers[eventName], handler)
	}
}

// Unsubscribe removes a handler
func (d *InMemoryDispatcher) Unsubscribe(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, eventName := range handler.HandledEvents() {
		handlers := d.handlers[eventName]
		for i, h := range handlers {
			if h == handler {
				d.handlers[eventName] = append(handlers[:i:i], handlers[i+1:]...)
				break
			}
		}
	}
}

// NullDispatcher is a no-op dispatcher for when events are not needed
type NullDispatcher struct{}

// NewNullDispatcher creates a new NullDispatcher
func NewNullDispatcher() *NullDispatcher {
	return &NullDispatcher{}
}

// Dispatch does nothing
func (d *NullDispatcher) Dispatch(event DomainEvent) error { return nil }

// Subscribe does nothing
func (d *NullDispatcher) Subscribe(handler EventHandler) {}

// Unsubscribe does nothing
func (d *NullDispatcher) Unsubscribe(handler EventHandler) {}
