package application

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowCoordinator_SingleSlot(t *testing.T) {
	var c flowCoordinator

	first, err := c.begin(domain.ProductRequest{ProductID: "sku1", Kind: domain.ProductOneTime})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, c.active())

	_, err = c.begin(domain.ProductRequest{ProductID: "sku2", Kind: domain.ProductOneTime})
	require.ErrorIs(t, err, domain.ErrPurchaseInProgress)
}

func TestFlowCoordinator_ResolveMatchesToken(t *testing.T) {
	var c flowCoordinator

	pending, err := c.begin(domain.ProductRequest{ProductID: "sku1", Kind: domain.ProductOneTime})
	require.NoError(t, err)

	assert.False(t, c.resolve(uuid.New(), purchaseResult{}), "unmatched token must be discarded")
	assert.True(t, c.active())

	require.True(t, c.resolve(pending.token, purchaseResult{err: errors.New("done")}))
	assert.False(t, c.active())

	res := <-pending.result
	require.Error(t, res.err)

	// The settled future must never be re-resolved.
	assert.False(t, c.resolve(pending.token, purchaseResult{}))
}

func TestFlowCoordinator_AbandonClearsWithoutSettling(t *testing.T) {
	var c flowCoordinator

	pending, err := c.begin(domain.ProductRequest{ProductID: "sku1", Kind: domain.ProductOneTime})
	require.NoError(t, err)

	c.abandon(pending.token)
	assert.False(t, c.active())
	select {
	case <-pending.result:
		t.Fatal("abandoned slot must not settle the future")
	default:
	}

	// Slot is free for the next flow.
	_, err = c.begin(domain.ProductRequest{ProductID: "sku2", Kind: domain.ProductOneTime})
	require.NoError(t, err)
}

func TestFlowCoordinator_CancelPending(t *testing.T) {
	var c flowCoordinator

	assert.False(t, c.cancelPending(errors.New("nothing pending")))

	pending, err := c.begin(domain.ProductRequest{ProductID: "sku1", Kind: domain.ProductOneTime})
	require.NoError(t, err)

	tornDown := domain.NewBillingError(domain.KindConnectionTornDown, domain.CodeBillingNotInitialized, "torn down")
	require.True(t, c.cancelPending(tornDown))

	res := <-pending.result
	require.ErrorIs(t, res.err, domain.ErrConnectionTornDown)
	assert.False(t, c.active())
}
