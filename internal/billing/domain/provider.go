package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PurchaseOutcome is the asynchronous result of a launched purchase flow,
// delivered out-of-band by the provider and matched back to the launching
// call through the correlation token.
type PurchaseOutcome struct {
	CorrelationToken uuid.UUID
	ResponseCode     int
	Record           *PurchaseRecord
}

// OK reports whether the outcome is a successful purchase.
func (o PurchaseOutcome) OK() bool {
	return o.ResponseCode == ResponseOK && o.Record != nil
}

// OutcomeSink receives asynchronous purchase outcomes. The orchestrator
// implements it; the host wires the provider's result channel to it.
type OutcomeSink interface {
	HandlePurchaseOutcome(outcome PurchaseOutcome)
}

// Provider is the capability set required from the external billing service.
// Connect and the query operations block until the provider's completion
// arrives; LaunchPurchase returns once the purchase UI flow is started and
// the eventual outcome reaches the OutcomeSink instead.
type Provider interface {
	Connect(ctx context.Context) error
	LaunchPurchase(ctx context.Context, req ProductRequest, token uuid.UUID) error
	QueryProducts(ctx context.Context, ids []string) ([]CatalogEntry, error)
	QueryPurchases(ctx context.Context) ([]*PurchaseRecord, error)
	Consume(ctx context.Context, record *PurchaseRecord) error
	Disconnect() error
}

// ProviderError is a failure reported by a Provider implementation, carrying
// the provider's raw response code.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("provider error %d", e.Code)
}

// NewProviderError builds a ProviderError for the given response code.
func NewProviderError(code int, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

// ProviderCode extracts the raw response code from err, defaulting to
// CodeUnknownError when err carries none.
func ProviderCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeUnknownError
}

// ReceiptVerifier checks a purchase receipt's signature against the
// configured provider public key.
type ReceiptVerifier interface {
	Verify(record *PurchaseRecord) bool
}
