package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyProvider struct {
	queryErr    error
	queryCalls  int
	launchCalls int
}

func (f *flakyProvider) Connect(ctx context.Context) error { return nil }
func (f *flakyProvider) Disconnect() error                 { return nil }

func (f *flakyProvider) LaunchPurchase(ctx context.Context, req domain.ProductRequest, token uuid.UUID) error {
	f.launchCalls++
	return nil
}

func (f *flakyProvider) QueryProducts(ctx context.Context, ids []string) ([]domain.CatalogEntry, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []domain.CatalogEntry{{ProductID: "coins_100"}}, nil
}

func (f *flakyProvider) QueryPurchases(ctx context.Context) ([]*domain.PurchaseRecord, error) {
	return nil, nil
}

func (f *flakyProvider) Consume(ctx context.Context, record *domain.PurchaseRecord) error {
	return nil
}

func testConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 3,
	}
}

func TestBreakerProvider_PassesThroughSuccess(t *testing.T) {
	inner := &flakyProvider{}
	wrapped := NewBreakerProvider(inner, testConfig(), nil)

	entries, err := wrapped.QueryProducts(context.Background(), []string{"coins_100"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestBreakerProvider_TripsAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyProvider{queryErr: domain.NewProviderError(domain.ResponseServiceUnavailable, "down")}
	wrapped := NewBreakerProvider(inner, testConfig(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := wrapped.QueryProducts(ctx, nil)
		require.Error(t, err)
		assert.Equal(t, domain.ResponseServiceUnavailable, domain.ProviderCode(err))
	}

	// Breaker is open: the provider is no longer contacted and the error
	// stays inside the taxonomy.
	calls := inner.queryCalls
	_, err := wrapped.QueryProducts(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, calls, inner.queryCalls)
	assert.Equal(t, domain.KindBadResponse, domain.Classify(domain.ProviderCode(err)))
}

func TestBreakerProvider_UserCancellationDoesNotTrip(t *testing.T) {
	inner := &flakyProvider{queryErr: domain.NewProviderError(domain.ResponseUserCancelled, "cancelled")}
	wrapped := NewBreakerProvider(inner, testConfig(), nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := wrapped.QueryProducts(ctx, nil)
		require.Error(t, err)
	}

	// Still closed: every call reached the provider.
	assert.Equal(t, 5, inner.queryCalls)
}

func TestBreakerProvider_LaunchPurchaseBypassesBreaker(t *testing.T) {
	inner := &flakyProvider{queryErr: domain.NewProviderError(domain.ResponseServiceUnavailable, "down")}
	wrapped := NewBreakerProvider(inner, testConfig(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = wrapped.QueryProducts(ctx, nil)
	}

	req := domain.ProductRequest{ProductID: "coins_100", Kind: domain.ProductOneTime}
	require.NoError(t, wrapped.LaunchPurchase(ctx, req, uuid.New()))
	assert.Equal(t, 1, inner.launchCalls)
}
