package eventbus

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessBus_DispatchesToSubscribers(t *testing.T) {
	bus := NewInProcessBus(nil)

	var completed []domain.Event
	bus.Subscribe(domain.EventPurchaseCompleted, func(ctx context.Context, event domain.Event) {
		completed = append(completed, event)
	})

	event := domain.NewEvent(domain.EventPurchaseCompleted, "coins_100", "order-1", domain.CodeOK)
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, completed, 1)
	assert.Equal(t, "coins_100", completed[0].ProductID)
	assert.Equal(t, event.EventID, completed[0].EventID)
}

func TestInProcessBus_IgnoresUnsubscribedNames(t *testing.T) {
	bus := NewInProcessBus(nil)

	calls := 0
	bus.Subscribe(domain.EventPurchaseFailed, func(ctx context.Context, event domain.Event) {
		calls++
	})

	require.NoError(t, bus.Publish(context.Background(), domain.NewEvent(domain.EventPurchaseConsumed, "", "", 0)))
	assert.Zero(t, calls)
}

func TestInProcessBus_MultipleConsumersPerName(t *testing.T) {
	bus := NewInProcessBus(nil)

	calls := 0
	for i := 0; i < 3; i++ {
		bus.Subscribe(domain.EventConnectionLost, func(ctx context.Context, event domain.Event) {
			calls++
		})
	}

	require.NoError(t, bus.Publish(context.Background(), domain.NewEvent(domain.EventConnectionLost, "", "", domain.CodeBillingNotInitialized)))
	assert.Equal(t, 3, calls)
}
