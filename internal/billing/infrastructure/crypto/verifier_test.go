package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"testing"

	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedRecord(t *testing.T, key *rsa.PrivateKey, receipt string) *domain.PurchaseRecord {
	t.Helper()
	digest := sha1.Sum([]byte(receipt))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, digest[:])
	require.NoError(t, err)
	return &domain.PurchaseRecord{
		ProductID: "coins_100",
		Receipt:   receipt,
		Signature: base64.StdEncoding.EncodeToString(signature),
	}
}

func TestNewVerifier_EmptyKeyFailsClosed(t *testing.T) {
	_, err := NewVerifier("")
	require.ErrorIs(t, err, domain.ErrMissingProviderKey)
}

func TestNewVerifier_GarbageKeyRejected(t *testing.T) {
	_, err := NewVerifier("not base64!!!")
	require.Error(t, err)

	_, err = NewVerifier(base64.StdEncoding.EncodeToString([]byte("not a key")))
	require.Error(t, err)
}

func TestNewVerifier_ParsesEncodedKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	verifier, err := NewVerifier(base64.StdEncoding.EncodeToString(der))
	require.NoError(t, err)
	assert.NotNil(t, verifier)

	record := signedRecord(t, key, `{"orderId":"GPA.1","productId":"coins_100"}`)
	assert.True(t, verifier.Verify(record))
}

func TestVerifier_Verify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	verifier := NewVerifierWithKey(&key.PublicKey)

	receipt := `{"orderId":"GPA.1","productId":"coins_100","purchaseToken":"tok"}`

	t.Run("accepts valid signature", func(t *testing.T) {
		assert.True(t, verifier.Verify(signedRecord(t, key, receipt)))
	})

	t.Run("rejects tampered receipt", func(t *testing.T) {
		record := signedRecord(t, key, receipt)
		record.Receipt = `{"orderId":"GPA.1","productId":"coins_999","purchaseToken":"tok"}`
		assert.False(t, verifier.Verify(record))
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		assert.False(t, NewVerifierWithKey(&other.PublicKey).Verify(signedRecord(t, key, receipt)))
	})

	t.Run("rejects undecodable signature", func(t *testing.T) {
		record := signedRecord(t, key, receipt)
		record.Signature = "%%% not base64 %%%"
		assert.False(t, verifier.Verify(record))
	})

	t.Run("rejects nil and empty records", func(t *testing.T) {
		assert.False(t, verifier.Verify(nil))
		assert.False(t, verifier.Verify(&domain.PurchaseRecord{}))
	})
}
