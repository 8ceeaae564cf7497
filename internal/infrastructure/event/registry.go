package event

import (
	"sync"

	"github.com/erp/payables/internal/domain/shared"
)

// HandlerRegistry maps event types to their subscribed handlers. Handlers
// registered without event types are wildcard subscribers and receive every
// event; the audit log handler works this way.
type HandlerRegistry struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		byType: make(map[string][]shared.EventHandler),
	}
}

// Register subscribes a handler to the given event types, or to all events
// when none are given
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		r.wildcard = append(r.wildcard, handler)
		return
	}
	for _, eventType := range eventTypes {
		r.byType[eventType] = append(r.byType[eventType], handler)
	}
}

// Unregister removes a handler from every subscription
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = without(r.wildcard, handler)
	for eventType, handlers := range r.byType {
		remaining := without(handlers, handler)
		if len(remaining) == 0 {
			delete(r.byType, eventType)
			continue
		}
		r.byType[eventType] = remaining
	}
}

// HandlersFor returns the handlers subscribed to the event type, wildcard
// subscribers included
func (r *HandlerRegistry) HandlersFor(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typed := r.byType[eventType]
	out := make([]shared.EventHandler, 0, len(typed)+len(r.wildcard))
	out = append(out, typed...)
	out = append(out, r.wildcard...)
	return out
}

func without(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := handlers[:0:0]
	for _, h := range handlers {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}
