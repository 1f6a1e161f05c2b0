package domain

import "fmt"

// ProductKind distinguishes one-time products from subscriptions. The wire
// values match the provider's item types.
type ProductKind string

const (
	ProductOneTime      ProductKind = "inapp"
	ProductSubscription ProductKind = "subs"
)

// ParseProductKind maps a raw provider item type to a ProductKind.
func ParseProductKind(raw string) (ProductKind, error) {
	switch ProductKind(raw) {
	case ProductOneTime, ProductSubscription:
		return ProductKind(raw), nil
	default:
		return "", fmt.Errorf("unknown product kind %q", raw)
	}
}

// ProductRequest identifies the product a purchase flow is launched for.
// Constructed per call, never persisted.
type ProductRequest struct {
	ProductID string
	Kind      ProductKind
}

// Validate reports whether the request can be dispatched to the provider.
func (r ProductRequest) Validate() error {
	if r.ProductID == "" {
		return NewBillingError(KindInvalidArgument, CodeInvalidArguments, "product id is required")
	}
	if r.Kind != ProductOneTime && r.Kind != ProductSubscription {
		return NewBillingError(KindInvalidArgument, CodeInvalidArguments, "unknown product kind")
	}
	return nil
}

// CatalogEntry is the provider's metadata for a single product. Entries are
// ephemeral query results; the orchestrator keeps no copy.
type CatalogEntry struct {
	ProductID   string
	Title       string
	Description string
	Price       string
	Kind        ProductKind
}
