package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"invochat-core-sync-layer/internal/ports"
)

// HMACVerifier verifies base64-encoded HMAC-SHA256 webhook signatures, the
// scheme both Shopify and WooCommerce use. The digest is computed over the
// exact raw request body; a re-serialized body would not verify.
type HMACVerifier struct{}

// NewHMACVerifier creates a verifier.
func NewHMACVerifier() *HMACVerifier {
	return &HMACVerifier{}
}

// Verify fails closed: missing signature or secret rejects. The comparison
// is constant-time.
func (v *HMACVerifier) Verify(rawBody []byte, signatureHeader, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(signatureHeader)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hmac.Equal(mac.Sum(nil), expected)
}

var _ ports.WebhookVerifier = (*HMACVerifier)(nil)
