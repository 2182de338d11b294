package eventbus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
)

type HandlerFunc func(event.Event) error

// InMemoryBus fans payment events out to in-process subscribers by type.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[event.Type][]HandlerFunc
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{subscribers: make(map[event.Type][]HandlerFunc)}
}

func (b *InMemoryBus) Subscribe(eventType event.Type, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish delivers evt to every subscriber of its type, even after one of
// them fails, and returns the joined failures. The outbox keeps the event
// unpublished while any subscriber fails.
func (b *InMemoryBus) Publish(evt event.Event) error {
	b.mu.RLock()
	handlers := append([]HandlerFunc(nil), b.subscribers[evt.Type]...)
	b.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := deliver(handler, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s subscriber %d: %w", evt.Type, i, err))
		}
	}
	return errors.Join(errs...)
}

func deliver(handler HandlerFunc, evt event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return handler(evt)
}
