// Package crypto implements receipt signature verification against the
// provider's published RSA key.
package crypto

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
)

// Verifier checks purchase receipts against a provider public key. The key
// arrives base64-encoded in X.509 SubjectPublicKeyInfo form, the format the
// provider console hands out.
type Verifier struct {
	publicKey *rsa.PublicKey
}

// NewVerifier parses the base64-encoded provider public key. An empty or
// unparsable key is a construction error so the orchestrator can fail closed
// instead of skipping verification silently.
func NewVerifier(base64Key string) (*Verifier, error) {
	if base64Key == "" {
		return nil, domain.ErrMissingProviderKey
	}
	der, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode provider public key: %w", err)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse provider public key: %w", err)
	}
	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("provider public key is not RSA")
	}
	return &Verifier{publicKey: rsaKey}, nil
}

// NewVerifierWithKey creates a verifier from an already-parsed key (for
// testing).
func NewVerifierWithKey(publicKey *rsa.PublicKey) *Verifier {
	return &Verifier{publicKey: publicKey}
}

// Verify checks the record's detached signature over the raw receipt. The
// receipt bytes are signed as-is; any reformatting would break the check.
func (v *Verifier) Verify(record *domain.PurchaseRecord) bool {
	if v == nil || record == nil || record.Receipt == "" || record.Signature == "" {
		return false
	}
	signature, err := base64.StdEncoding.DecodeString(record.Signature)
	if err != nil {
		return false
	}
	digest := sha1.Sum([]byte(record.Receipt))
	return rsa.VerifyPKCS1v15(v.publicKey, crypto.SHA1, digest[:], signature) == nil
}
