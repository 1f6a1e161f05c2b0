// Package fakeprovider is an in-memory billing provider for local mode and
// development. It honors the full provider contract, including out-of-band
// purchase outcome delivery, without talking to a real store.
package fakeprovider

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
	"github.com/google/uuid"
)

const fakePackageName = "dev.billingkit.local"

// Provider simulates an external billing service. Purchase outcomes are
// delivered asynchronously through the configured OutcomeSink, mirroring the
// real provider's result channel.
type Provider struct {
	latency time.Duration

	mu        sync.Mutex
	connected bool
	sink      domain.OutcomeSink
	catalog   []domain.CatalogEntry
	owned     map[string]*domain.PurchaseRecord
}

// New creates a provider with the given catalog. latency delays purchase
// outcome delivery to exercise the asynchronous path.
func New(catalog []domain.CatalogEntry, latency time.Duration) *Provider {
	return &Provider{
		latency: latency,
		catalog: append([]domain.CatalogEntry(nil), catalog...),
		owned:   make(map[string]*domain.PurchaseRecord),
	}
}

// SetSink wires the out-of-band outcome channel. Must be called before any
// purchase is launched.
func (p *Provider) SetSink(sink domain.OutcomeSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

func (p *Provider) Connect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.latency):
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	return nil
}

func (p *Provider) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	return nil
}

func (p *Provider) LaunchPurchase(ctx context.Context, req domain.ProductRequest, token uuid.UUID) error {
	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	if sink == nil {
		return domain.NewProviderError(domain.CodeUnknownError, "no outcome sink configured")
	}

	go func() {
		time.Sleep(p.latency)
		sink.HandlePurchaseOutcome(p.settlePurchase(req, token))
	}()
	return nil
}

// settlePurchase decides the outcome for a launched flow.
func (p *Provider) settlePurchase(req domain.ProductRequest, token uuid.UUID) domain.PurchaseOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ownedLocked(req.ProductID) {
		return domain.PurchaseOutcome{CorrelationToken: token, ResponseCode: domain.ResponseItemAlreadyOwned}
	}
	entry, ok := p.catalogEntryLocked(req.ProductID)
	if !ok || entry.Kind != req.Kind {
		return domain.PurchaseOutcome{CorrelationToken: token, ResponseCode: domain.ResponseItemUnavailable}
	}

	record := p.mintRecordLocked(req)
	p.owned[record.Token] = record
	return domain.PurchaseOutcome{
		CorrelationToken: token,
		ResponseCode:     domain.ResponseOK,
		Record:           record,
	}
}

func (p *Provider) QueryProducts(ctx context.Context, ids []string) ([]domain.CatalogEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make([]domain.CatalogEntry, 0, len(ids))
	for _, id := range ids {
		if entry, ok := p.catalogEntryLocked(id); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (p *Provider) QueryPurchases(ctx context.Context) ([]*domain.PurchaseRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	records := make([]*domain.PurchaseRecord, 0, len(p.owned))
	for _, record := range p.owned {
		records = append(records, record)
	}
	return records, nil
}

func (p *Provider) Consume(ctx context.Context, record *domain.PurchaseRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if record == nil {
		return domain.NewProviderError(domain.CodeInvalidArguments, "nil purchase record")
	}
	if _, ok := p.owned[record.Token]; !ok {
		return domain.NewProviderError(domain.ResponseItemNotOwned, "item not owned")
	}
	delete(p.owned, record.Token)
	return nil
}

func (p *Provider) ownedLocked(productID string) bool {
	for _, record := range p.owned {
		if record.ProductID == productID {
			return true
		}
	}
	return false
}

func (p *Provider) catalogEntryLocked(productID string) (domain.CatalogEntry, bool) {
	for _, entry := range p.catalog {
		if entry.ProductID == productID {
			return entry, true
		}
	}
	return domain.CatalogEntry{}, false
}

func (p *Provider) mintRecordLocked(req domain.ProductRequest) *domain.PurchaseRecord {
	orderID := uuid.New().String()
	token := uuid.New().String()
	now := time.Now()

	receipt, _ := json.Marshal(map[string]any{
		"orderId":       orderID,
		"packageName":   fakePackageName,
		"productId":     req.ProductID,
		"purchaseTime":  now.UnixMilli(),
		"purchaseState": int(domain.PurchasePurchased),
		"purchaseToken": token,
	})

	return &domain.PurchaseRecord{
		OrderID:      orderID,
		PackageName:  fakePackageName,
		ProductID:    req.ProductID,
		PurchaseTime: now,
		State:        domain.PurchasePurchased,
		Token:        token,
		Signature:    "fake-signature",
		Kind:         req.Kind,
		Receipt:      string(receipt),
	}
}
