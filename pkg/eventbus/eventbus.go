// Package eventbus provides the narrow observer interface the ledger uses
// for its before/after lifecycle hooks.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
)

// Bus publishes lifecycle events to registered handlers.
type Bus interface {
	Publish(ctx context.Context, event domain.Event) error
	Subscribe(eventType string, handler func(context.Context, domain.Event))
}

// MemoryBus is an in-process Bus dispatching synchronously to handlers in
// registration order.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]func(context.Context, domain.Event)
	logger   *slog.Logger
}

// NewMemoryBus creates an empty MemoryBus.
func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string][]func(context.Context, domain.Event)),
		logger:   logger,
	}
}

// Publish dispatches the event to every handler subscribed to its type.
func (b *MemoryBus) Publish(ctx context.Context, event domain.Event) error {
	b.logger.Debug("publishing event", "event_type", event.Type())
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, handler := range b.handlers[event.Type()] {
		handler(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for one event type.
func (b *MemoryBus) Subscribe(eventType string, handler func(context.Context, domain.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
