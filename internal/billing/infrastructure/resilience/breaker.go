// Package resilience wraps a billing provider with a circuit breaker so a
// flapping store service sheds load fast instead of stalling every caller.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	// MaxRequests allowed through in the half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the consecutive-failure count that trips the
	// breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerProvider decorates a domain.Provider with a shared circuit breaker
// over the request/response operations. LaunchPurchase is passed through
// untouched: its outcome arrives out-of-band and a tripped breaker must not
// block a purchase UI flow the user already started.
type BreakerProvider struct {
	inner   domain.Provider
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewBreakerProvider wraps inner with a circuit breaker.
func NewBreakerProvider(inner domain.Provider, cfg BreakerConfig, logger *slog.Logger) *BreakerProvider {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "billing-provider",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			// User cancellation is a normal outcome, not provider ill health.
			if err != nil && domain.Classify(domain.ProviderCode(err)) == domain.KindUserCancelled {
				return true
			}
			return err == nil
		},
	}

	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

// execute runs op through the breaker, translating an open circuit into a
// bad-response provider error so the taxonomy stays closed.
func (p *BreakerProvider) execute(op func() (any, error)) (any, error) {
	result, err := p.breaker.Execute(op)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, domain.NewProviderError(domain.CodeBadResponseFromServer, "billing provider unavailable")
	}
	return result, err
}

func (p *BreakerProvider) Connect(ctx context.Context) error {
	_, err := p.execute(func() (any, error) {
		return nil, p.inner.Connect(ctx)
	})
	return err
}

func (p *BreakerProvider) LaunchPurchase(ctx context.Context, req domain.ProductRequest, token uuid.UUID) error {
	return p.inner.LaunchPurchase(ctx, req, token)
}

func (p *BreakerProvider) QueryProducts(ctx context.Context, ids []string) ([]domain.CatalogEntry, error) {
	result, err := p.execute(func() (any, error) {
		return p.inner.QueryProducts(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	entries, _ := result.([]domain.CatalogEntry)
	return entries, nil
}

func (p *BreakerProvider) QueryPurchases(ctx context.Context) ([]*domain.PurchaseRecord, error) {
	result, err := p.execute(func() (any, error) {
		return p.inner.QueryPurchases(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, _ := result.([]*domain.PurchaseRecord)
	return records, nil
}

func (p *BreakerProvider) Consume(ctx context.Context, record *domain.PurchaseRecord) error {
	_, err := p.execute(func() (any, error) {
		return nil, p.inner.Consume(ctx, record)
	})
	return err
}

func (p *BreakerProvider) Disconnect() error {
	return p.inner.Disconnect()
}
