package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/erp/payables/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus delivers domain events synchronously to subscribed
// handlers. The services publish after their transaction commits, so a
// failing handler can log but never roll anything back; Publish therefore
// reports the event as delivered even when handlers fail.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
	inflight sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish delivers each event to every handler subscribed to its type.
// Events published before Start or after Stop are dropped with a warning.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.running.Load() {
		for _, event := range events {
			b.logger.Warn("event dropped, bus not running",
				zap.String("event_type", event.EventType()),
			)
		}
		return nil
	}

	b.inflight.Add(1)
	defer b.inflight.Done()

	for _, event := range events {
		for _, handler := range b.registry.HandlersFor(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("event handler failed",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler. With no explicit event types the handler's
// own EventTypes decide; a nil or empty list subscribes it to every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler from every event type
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start makes the bus accept events
func (b *InMemoryEventBus) Start(context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop stops accepting events and waits for in-flight deliveries
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.running.Store(false)
	b.inflight.Wait()
	b.logger.Info("event bus stopped")
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
