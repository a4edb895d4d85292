package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
)

// Handler consumes one published event.
type Handler func(ctx context.Context, evt event.Event) error

// Memory is an in-process bus. Handlers run synchronously in subscription
// order; the first handler error aborts the publish.
type Memory struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

var _ event.Bus = (*Memory)(nil)

// NewMemory returns a bus with no subscribers.
func NewMemory() *Memory {
	return &Memory{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (m *Memory) Subscribe(h Handler) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.handlers[id] = h
	m.order = append(m.order, id)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.handlers[id]; !ok {
			return
		}
		delete(m.handlers, id)
		for i, existing := range m.order {
			if existing == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers events to every subscriber.
func (m *Memory) Publish(ctx context.Context, events ...event.Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.RLock()
	handlers := make([]Handler, 0, len(m.order))
	for _, id := range m.order {
		handlers = append(handlers, m.handlers[id])
	}
	m.mu.RUnlock()

	for _, evt := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, h := range handlers {
			if err := h(ctx, evt); err != nil {
				return fmt.Errorf("deliver %s: %w", evt.Type, err)
			}
		}
	}
	return nil
}
