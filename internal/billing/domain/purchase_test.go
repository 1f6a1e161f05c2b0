package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePurchaseRecord_Valid(t *testing.T) {
	receipt := `{"orderId":"GPA.1234","packageName":"com.example.game","productId":"coins_100",` +
		`"purchaseTime":1700000000000,"purchaseState":0,"purchaseToken":"tok-abc"}`

	record, err := ParsePurchaseRecord(ProductOneTime, receipt, "sig-xyz")
	require.NoError(t, err)
	assert.Equal(t, "GPA.1234", record.OrderID)
	assert.Equal(t, "com.example.game", record.PackageName)
	assert.Equal(t, "coins_100", record.ProductID)
	assert.Equal(t, PurchasePurchased, record.State)
	assert.Equal(t, "tok-abc", record.Token)
	assert.Equal(t, "sig-xyz", record.Signature)
	assert.Equal(t, ProductOneTime, record.Kind)
	assert.Equal(t, receipt, record.Receipt, "raw receipt kept verbatim")
	assert.Equal(t, time.UnixMilli(1700000000000), record.PurchaseTime)
}

func TestParsePurchaseRecord_InvalidJSON(t *testing.T) {
	_, err := ParsePurchaseRecord(ProductOneTime, "{broken", "sig")
	require.Error(t, err)
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}

func TestParsePurchaseRecord_MissingProduct(t *testing.T) {
	_, err := ParsePurchaseRecord(ProductOneTime, `{"orderId":"GPA.1"}`, "sig")
	require.Error(t, err)
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}

func TestParseProductKind(t *testing.T) {
	kind, err := ParseProductKind("inapp")
	require.NoError(t, err)
	assert.Equal(t, ProductOneTime, kind)

	kind, err = ParseProductKind("subs")
	require.NoError(t, err)
	assert.Equal(t, ProductSubscription, kind)

	_, err = ParseProductKind("managed")
	require.Error(t, err)
}

func TestProductRequest_Validate(t *testing.T) {
	require.NoError(t, ProductRequest{ProductID: "sku", Kind: ProductOneTime}.Validate())

	err := ProductRequest{Kind: ProductOneTime}.Validate()
	require.Error(t, err)
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	err = ProductRequest{ProductID: "sku", Kind: ProductKind("other")}.Validate()
	require.Error(t, err)
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}
