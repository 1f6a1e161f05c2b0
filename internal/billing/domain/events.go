package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing keys for purchase lifecycle events.
const (
	EventPurchaseCompleted = "billing.purchase.completed"
	EventPurchaseFailed    = "billing.purchase.failed"
	EventPurchaseConsumed  = "billing.purchase.consumed"
	EventConnectionLost    = "billing.connection.lost"
)

// Event is a fire-and-forget notification about a purchase lifecycle change.
// Consumers subscribe once per surface; delivery failures never affect the
// operation that produced the event.
type Event struct {
	EventID    uuid.UUID `json:"event_id"`
	Name       string    `json:"name"`
	ProductID  string    `json:"product_id,omitempty"`
	OrderID    string    `json:"order_id,omitempty"`
	Code       int       `json:"code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(name, productID, orderID string, code int) Event {
	return Event{
		EventID:    uuid.New(),
		Name:       name,
		ProductID:  productID,
		OrderID:    orderID,
		Code:       code,
		OccurredAt: time.Now(),
	}
}

// EventPublisher delivers purchase lifecycle events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
