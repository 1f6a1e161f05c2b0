package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
)

// ConnectionState tracks the provider handshake lifecycle.
type ConnectionState int

const (
	StateUninitialized ConnectionState = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "uninitialized"
	}
}

// Config carries orchestrator construction options.
type Config struct {
	// SkipVerification disables the receipt signature check. Without it a
	// verifier is mandatory; construction fails closed when neither is set.
	SkipVerification bool
}

// Orchestrator is the public billing surface. It owns the provider
// connection state and the single in-flight purchase slot, enforces the
// connected-before-anything precondition, and translates provider codes into
// the stable error taxonomy.
type Orchestrator struct {
	provider domain.Provider
	verifier domain.ReceiptVerifier
	events   domain.EventPublisher
	logger   *slog.Logger
	cfg      Config

	mu        sync.Mutex
	state     ConnectionState
	setupDone chan struct{}
	setupErr  error

	flow flowCoordinator
}

// NewOrchestrator wires the orchestrator. A nil verifier is only accepted
// when cfg.SkipVerification is set; otherwise construction fails with
// ErrMissingProviderKey rather than operating unauthenticated.
func NewOrchestrator(
	provider domain.Provider,
	verifier domain.ReceiptVerifier,
	events domain.EventPublisher,
	logger *slog.Logger,
	cfg Config,
) (*Orchestrator, error) {
	if provider == nil {
		return nil, fmt.Errorf("billing provider is required")
	}
	if verifier == nil && !cfg.SkipVerification {
		return nil, domain.ErrMissingProviderKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		provider: provider,
		verifier: verifier,
		events:   events,
		logger:   logger,
		cfg:      cfg,
	}, nil
}

// State returns the current connection state.
func (o *Orchestrator) State() ConnectionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// PurchaseInFlight reports whether a purchase flow is outstanding.
func (o *Orchestrator) PurchaseInFlight() bool {
	return o.flow.active()
}

// Initialize performs the provider handshake. It is idempotent once
// connected, and concurrent calls while the handshake is running share the
// single outcome instead of re-triggering a second handshake.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	switch o.state {
	case StateConnected:
		o.mu.Unlock()
		o.logger.Debug("billing already initialized")
		return nil
	case StateConnecting:
		done := o.setupDone
		o.mu.Unlock()
		select {
		case <-done:
			o.mu.Lock()
			err := o.setupErr
			o.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	default:
	}

	done := make(chan struct{})
	o.state = StateConnecting
	o.setupDone = done
	o.mu.Unlock()

	err := o.provider.Connect(ctx)

	o.mu.Lock()
	switch {
	case err != nil:
		if o.state == StateConnecting {
			o.state = StateUninitialized
		}
		o.setupErr = domain.NewBillingError(
			domain.KindSetupFailed, domain.CodeUnableToInitialize,
			fmt.Sprintf("unable to initialize billing: %v", err))
	case o.state != StateConnecting:
		// Teardown raced the handshake; stay down.
		o.setupErr = domain.NewBillingError(
			domain.KindConnectionTornDown, domain.CodeBillingNotInitialized,
			"billing connection torn down")
	default:
		o.state = StateConnected
		o.setupErr = nil
	}
	result := o.setupErr
	close(done)
	o.mu.Unlock()

	if result != nil {
		o.logger.Warn("billing setup failed", "error", err)
		return result
	}
	o.logger.Info("billing initialized")
	return nil
}

// Teardown releases provider resources and forces the connection down. Any
// in-flight purchase is resolved with KindConnectionTornDown before the
// provider is disconnected, so no caller is left hanging.
func (o *Orchestrator) Teardown() {
	if o.flow.cancelPending(domain.NewBillingError(
		domain.KindConnectionTornDown, domain.CodeBillingNotInitialized,
		"billing connection torn down")) {
		o.logger.Info("pending purchase resolved by teardown")
	}

	o.mu.Lock()
	o.state = StateDisconnected
	o.mu.Unlock()

	if err := o.provider.Disconnect(); err != nil {
		o.logger.Warn("provider disconnect failed", "error", err)
	}
	o.logger.Info("billing torn down")
}

// OnConnectionLost is the host's hook for an externally terminated provider
// connection. It forces the connection down and resolves any in-flight
// purchase, but does not call the provider again.
func (o *Orchestrator) OnConnectionLost() {
	o.flow.cancelPending(domain.NewBillingError(
		domain.KindConnectionTornDown, domain.CodeBillingNotInitialized,
		"billing connection lost"))

	o.mu.Lock()
	o.state = StateDisconnected
	o.mu.Unlock()

	o.logger.Warn("billing connection lost")
	o.publish(domain.NewEvent(domain.EventConnectionLost, "", "", domain.CodeBillingNotInitialized))
}

// requireConnected rejects operations issued outside the Connected state
// before any asynchronous work starts.
func (o *Orchestrator) requireConnected() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateConnected {
		return domain.NewBillingError(
			domain.KindNotInitialized, domain.CodeBillingNotInitialized,
			"billing is not initialized")
	}
	return nil
}

// Purchase launches the provider's purchase UI for productID and blocks
// until the out-of-band outcome for this flow arrives. One-time products and
// subscriptions share this path; subscribe only selects the provider entry
// point. A second call while a flow is outstanding fails with
// KindPurchaseAlreadyInProgress without contacting the provider.
func (o *Orchestrator) Purchase(ctx context.Context, productID string, subscribe bool) (*domain.PurchaseRecord, error) {
	if err := o.requireConnected(); err != nil {
		return nil, err
	}
	req := domain.ProductRequest{ProductID: productID, Kind: domain.ProductOneTime}
	if subscribe {
		req.Kind = domain.ProductSubscription
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pending, err := o.flow.begin(req)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("purchase flow launched",
		"product_id", req.ProductID,
		"kind", string(req.Kind),
		"token", pending.token.String(),
	)

	if err := o.provider.LaunchPurchase(ctx, req, pending.token); err != nil {
		o.flow.abandon(pending.token)
		return nil, domain.ClassifyError(domain.ProviderCode(err), "error completing purchase")
	}

	select {
	case res := <-pending.result:
		return res.record, res.err
	case <-ctx.Done():
		o.flow.abandon(pending.token)
		return nil, ctx.Err()
	}
}

// HandlePurchaseOutcome is the out-of-band entry point the host wires the
// provider's result channel to. Outcomes whose correlation token does not
// match the current in-flight purchase are discarded without re-resolving a
// settled future.
func (o *Orchestrator) HandlePurchaseOutcome(outcome domain.PurchaseOutcome) {
	if !outcome.OK() {
		err := domain.ClassifyError(outcome.ResponseCode, purchaseFailureMessage(outcome.ResponseCode))
		if !o.flow.resolve(outcome.CorrelationToken, purchaseResult{err: err}) {
			o.logger.Debug("discarding stale purchase outcome", "token", outcome.CorrelationToken.String())
			return
		}
		o.logger.Info("purchase failed",
			"code", outcome.ResponseCode,
			"kind", string(domain.Classify(outcome.ResponseCode)),
		)
		o.publish(domain.NewEvent(domain.EventPurchaseFailed, "", "", outcome.ResponseCode))
		return
	}

	record := outcome.Record
	if !o.cfg.SkipVerification && !o.verifier.Verify(record) {
		err := domain.NewBillingError(
			domain.KindVerificationFailed, domain.CodeVerificationFailed,
			"could not complete purchase")
		if !o.flow.resolve(outcome.CorrelationToken, purchaseResult{err: err}) {
			o.logger.Debug("discarding stale purchase outcome", "token", outcome.CorrelationToken.String())
			return
		}
		o.logger.Warn("purchase receipt verification failed", "product_id", record.ProductID)
		o.publish(domain.NewEvent(domain.EventPurchaseFailed, record.ProductID, record.OrderID, domain.CodeVerificationFailed))
		return
	}

	if !o.flow.resolve(outcome.CorrelationToken, purchaseResult{record: record}) {
		o.logger.Debug("discarding stale purchase outcome", "token", outcome.CorrelationToken.String())
		return
	}
	o.logger.Info("purchase completed",
		"product_id", record.ProductID,
		"order_id", record.OrderID,
	)
	o.publish(domain.NewEvent(domain.EventPurchaseCompleted, record.ProductID, record.OrderID, domain.CodeOK))
}

// Consume marks a non-durable purchase consumed so it can be bought again.
// The receipt/signature pair is validated before the connection check or any
// provider call; provider failures classify into KindItemNotOwned or
// collapse to KindConsumeFailed.
func (o *Orchestrator) Consume(ctx context.Context, kind domain.ProductKind, receipt, signature string) (*domain.ConsumptionReceipt, error) {
	record, err := domain.ParsePurchaseRecord(kind, receipt, signature)
	if err != nil {
		return nil, err
	}
	if err := o.requireConnected(); err != nil {
		return nil, err
	}

	if err := o.provider.Consume(ctx, record); err != nil {
		code := domain.ProviderCode(err)
		if domain.Classify(code) == domain.KindItemNotOwned {
			return nil, domain.NewBillingError(
				domain.KindItemNotOwned, code, "error consuming purchase (ITEM_NOT_OWNED)")
		}
		return nil, domain.NewBillingError(
			domain.KindConsumeFailed, code, "error consuming purchase (CONSUME_FAILED)")
	}

	o.logger.Info("purchase consumed", "product_id", record.ProductID, "order_id", record.OrderID)
	o.publish(domain.NewEvent(domain.EventPurchaseConsumed, record.ProductID, record.OrderID, domain.CodeOK))
	return &domain.ConsumptionReceipt{
		TransactionID: record.OrderID,
		ProductID:     record.ProductID,
		Token:         record.Token,
	}, nil
}

// QueryCatalog fetches metadata for the given product ids. Identifiers the
// provider cannot resolve are omitted from the result, never an error, so
// querying a superset of possibly-available ids is safe.
func (o *Orchestrator) QueryCatalog(ctx context.Context, productIDs []string) ([]domain.CatalogEntry, error) {
	if err := o.requireConnected(); err != nil {
		return nil, err
	}
	entries, err := o.provider.QueryProducts(ctx, productIDs)
	if err != nil {
		return nil, domain.NewQueryError(domain.ProviderCode(err), "error retrieving product details")
	}
	return entries, nil
}

// QueryOwnedPurchases returns every purchase the provider currently
// recognizes for the caller's account, dropping unresolvable entries.
func (o *Orchestrator) QueryOwnedPurchases(ctx context.Context) ([]*domain.PurchaseRecord, error) {
	if err := o.requireConnected(); err != nil {
		return nil, err
	}
	records, err := o.provider.QueryPurchases(ctx)
	if err != nil {
		return nil, domain.NewQueryError(domain.ProviderCode(err), "error retrieving purchases")
	}
	owned := make([]*domain.PurchaseRecord, 0, len(records))
	for _, record := range records {
		if record != nil {
			owned = append(owned, record)
		}
	}
	return owned, nil
}

// publish delivers a lifecycle event fire-and-forget.
func (o *Orchestrator) publish(event domain.Event) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(context.Background(), event); err != nil {
		o.logger.Warn("event publish failed", "event", event.Name, "error", err)
	}
}

// purchaseFailureMessage mirrors the caller-facing wording per failure class.
func purchaseFailureMessage(code int) string {
	switch domain.Classify(code) {
	case domain.KindBadResponse, domain.KindUnknown, domain.KindVerificationFailed:
		return "could not complete purchase"
	case domain.KindUserCancelled:
		return "purchase cancelled"
	case domain.KindItemAlreadyOwned:
		return "item already owned"
	default:
		return "error completing purchase"
	}
}
