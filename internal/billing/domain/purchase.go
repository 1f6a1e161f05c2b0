package domain

import (
	"encoding/json"
	"time"
)

// PurchaseState is the provider-reported state of a purchase.
type PurchaseState int

const (
	PurchasePurchased PurchaseState = 0
	PurchaseCancelled PurchaseState = 1
	PurchaseRefunded  PurchaseState = 2
)

// PurchaseRecord is the provider's raw description of a completed purchase.
// All fields come verbatim from the provider; the orchestrator neither
// reformats nor retains them once the record is handed to the caller.
type PurchaseRecord struct {
	OrderID      string
	PackageName  string
	ProductID    string
	PurchaseTime time.Time
	State        PurchaseState
	Token        string
	Signature    string
	Kind         ProductKind
	Receipt      string
}

// ConsumptionReceipt is the subset of a consumed purchase the caller needs to
// reconcile server-side entitlement.
type ConsumptionReceipt struct {
	TransactionID string
	ProductID     string
	Token         string
}

// receiptPayload is the JSON body of a provider receipt.
type receiptPayload struct {
	OrderID       string `json:"orderId"`
	PackageName   string `json:"packageName"`
	ProductID     string `json:"productId"`
	PurchaseTime  int64  `json:"purchaseTime"`
	PurchaseState int    `json:"purchaseState"`
	PurchaseToken string `json:"purchaseToken"`
}

// ParsePurchaseRecord rebuilds a PurchaseRecord from a raw receipt and its
// detached signature, the shape callers hold after a purchase completes. A
// receipt that is not valid JSON or names no product fails with
// KindInvalidArgument before any provider call is made.
func ParsePurchaseRecord(kind ProductKind, receipt, signature string) (*PurchaseRecord, error) {
	var payload receiptPayload
	if err := json.Unmarshal([]byte(receipt), &payload); err != nil {
		return nil, NewBillingError(KindInvalidArgument, CodeInvalidArguments, "invalid json in receipt")
	}
	if payload.ProductID == "" {
		return nil, NewBillingError(KindInvalidArgument, CodeInvalidArguments, "receipt names no product")
	}
	return &PurchaseRecord{
		OrderID:      payload.OrderID,
		PackageName:  payload.PackageName,
		ProductID:    payload.ProductID,
		PurchaseTime: time.UnixMilli(payload.PurchaseTime),
		State:        PurchaseState(payload.PurchaseState),
		Token:        payload.PurchaseToken,
		Signature:    signature,
		Kind:         kind,
		Receipt:      receipt,
	}, nil
}
