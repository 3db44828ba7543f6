package eventbus

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/event"
)

type HandlerFunc func(event.Event) error

type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerFunc
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[event.Type][]HandlerFunc),
	}
}

func (b *InMemoryBus) Subscribe(eventType event.Type, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish runs the handlers for evt in subscription order and stops at the
// first error. Handlers run outside the lock so they may publish or
// subscribe themselves.
func (b *InMemoryBus) Publish(evt event.Event) error {
	b.mu.RLock()
	handlers := slices.Clone(b.handlers[evt.Type])
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(evt); err != nil {
			return fmt.Errorf("handle %s: %w", evt.Type, err)
		}
	}

	return nil
}
