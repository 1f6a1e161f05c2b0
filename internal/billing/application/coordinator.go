package application

import (
	"sync"

	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
	"github.com/google/uuid"
)

// purchaseResult is the settled value of a purchase future.
type purchaseResult struct {
	record *domain.PurchaseRecord
	err    error
}

// inFlightPurchase binds a launched purchase flow to its eventual outcome.
type inFlightPurchase struct {
	token   uuid.UUID
	request domain.ProductRequest
	result  chan purchaseResult
}

// flowCoordinator owns the single in-flight purchase slot. A second purchase
// while the slot is occupied is rejected, never queued or overwritten; every
// occupied slot is resolved exactly once.
type flowCoordinator struct {
	mu       sync.Mutex
	inFlight *inFlightPurchase
}

// begin occupies the slot for the given request and returns the pending
// purchase, or ErrPurchaseInProgress if the slot is taken.
func (c *flowCoordinator) begin(req domain.ProductRequest) (*inFlightPurchase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight != nil {
		return nil, domain.NewBillingError(
			domain.KindPurchaseAlreadyInProgress, domain.CodeInvalidArguments,
			"purchase already in progress")
	}
	pending := &inFlightPurchase{
		token:   uuid.New(),
		request: req,
		result:  make(chan purchaseResult, 1),
	}
	c.inFlight = pending
	return pending, nil
}

// resolve settles the slot if token matches the current in-flight purchase.
// Unmatched or late tokens report false and leave the slot untouched, so a
// settled future is never re-resolved.
func (c *flowCoordinator) resolve(token uuid.UUID, res purchaseResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight == nil || c.inFlight.token != token {
		return false
	}
	c.inFlight.result <- res
	c.inFlight = nil
	return true
}

// abandon clears the slot without settling the future. Used when the waiting
// caller has already given up (context cancellation) and will not read the
// result channel again.
func (c *flowCoordinator) abandon(token uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight != nil && c.inFlight.token == token {
		c.inFlight = nil
	}
}

// cancelPending settles any occupied slot with err. Reports whether a
// pending purchase was resolved.
func (c *flowCoordinator) cancelPending(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight == nil {
		return false
	}
	c.inFlight.result <- purchaseResult{err: err}
	c.inFlight = nil
	return true
}

// active reports whether a purchase flow is outstanding.
func (c *flowCoordinator) active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight != nil
}
