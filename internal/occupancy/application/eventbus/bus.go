package eventbus

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// Handler handles a published event.
type Handler func(ctx context.Context, event any) error

// Bus delivers scoring events to subscribers.
type Bus interface {
	Publish(ctx context.Context, event any) error
	Subscribe(eventType string, handler Handler)
}

var (
	// ErrNilEvent is returned when a nil event is published.
	ErrNilEvent = errors.New("eventbus: nil event")
	// ErrInvalidEventType is returned when a handler receives an event of another type.
	ErrInvalidEventType = errors.New("eventbus: invalid event type")
)

// InMemoryBus dispatches events synchronously in publish order.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewInMemoryBus constructs an empty bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string][]Handler)}
}

// Publish calls every handler of the event type and returns the first handler error.
func (b *InMemoryBus) Publish(ctx context.Context, event any) error {
	if event == nil {
		return ErrNilEvent
	}
	eventType := TypeName(event)

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[eventType]...)
	b.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe registers handler for eventType.
func (b *InMemoryBus) Subscribe(eventType string, handler Handler) {
	if eventType == "" || handler == nil {
		return
	}
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// On subscribes a typed handler for events of type T.
func On[T any](bus Bus, handler func(ctx context.Context, event T) error) {
	if bus == nil || handler == nil {
		return
	}
	bus.Subscribe(TypeOf[T](), func(ctx context.Context, event any) error {
		typed, ok := event.(T)
		if !ok {
			return ErrInvalidEventType
		}
		return handler(ctx, typed)
	})
}

// TypeName returns the type name of an event instance, dereferencing pointers.
func TypeName(event any) string {
	t := reflect.TypeOf(event)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// TypeOf returns the type name for a type parameter.
func TypeOf[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
