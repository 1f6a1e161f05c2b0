// Package eventbus delivers purchase lifecycle events to interested
// consumers, either in-process or over AMQP.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
)

// Consumer handles a single delivered event.
type Consumer func(ctx context.Context, event domain.Event)

// InProcessBus dispatches events synchronously to subscribed consumers.
// Suitable for local mode where no broker is configured; delivery failures
// are logged, never propagated to the publishing operation.
type InProcessBus struct {
	logger *slog.Logger

	mu        sync.Mutex
	consumers map[string][]Consumer
}

// NewInProcessBus creates an empty in-process bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{
		logger:    logger,
		consumers: make(map[string][]Consumer),
	}
}

// Subscribe registers a consumer for the given event name. Subscriptions are
// not removable; a surface subscribes once for its lifetime.
func (b *InProcessBus) Subscribe(name string, consumer Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumers[name] = append(b.consumers[name], consumer)
}

// Publish dispatches the event to every consumer subscribed to its name.
func (b *InProcessBus) Publish(ctx context.Context, event domain.Event) error {
	b.mu.Lock()
	consumers := append([]Consumer(nil), b.consumers[event.Name]...)
	b.mu.Unlock()

	for _, consumer := range consumers {
		consumer(ctx, event)
	}
	b.logger.Debug("event dispatched",
		"event", event.Name,
		"event_id", event.EventID.String(),
		"consumers", len(consumers),
	)
	return nil
}
