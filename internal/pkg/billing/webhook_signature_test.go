package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"meta":{"event_name":"subscription_created"}}`)
	secret := "whsec_test"

	sig := signBody(body, secret)
	if !VerifyWebhookSignature(body, sig, secret) {
		t.Fatalf("expected valid signature to verify")
	}

	// Uppercase hex and surrounding whitespace are accepted.
	if !VerifyWebhookSignature(body, "  "+strings.ToUpper(sig)+"\n", secret) {
		t.Fatalf("expected hex case and whitespace to be irrelevant")
	}
}

func TestVerifyWebhookSignatureRejectsTampering(t *testing.T) {
	body := []byte(`{"meta":{"event_name":"subscription_created"}}`)
	secret := "whsec_test"
	sig := signBody(body, secret)

	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] ^= 0x01
	if VerifyWebhookSignature(tampered, sig, secret) {
		t.Fatalf("expected signature over different body to fail")
	}

	if VerifyWebhookSignature(body, sig, "other_secret") {
		t.Fatalf("expected signature with wrong secret to fail")
	}

	if VerifyWebhookSignature(body, "", secret) {
		t.Fatalf("expected empty signature to fail")
	}

	if VerifyWebhookSignature(body, sig, "") {
		t.Fatalf("expected empty secret to fail")
	}

	if VerifyWebhookSignature(body, "not-hex!!", secret) {
		t.Fatalf("expected non-hex signature to fail")
	}
}

func TestComputePayloadHashMatchesSignature(t *testing.T) {
	body := []byte(`{"data":{"id":"1"}}`)
	secret := "whsec_test"

	hash := ComputePayloadHash(body, secret)
	if hash != signBody(body, secret) {
		t.Fatalf("payload hash %q does not match hmac digest", hash)
	}
	if len(hash) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(hash))
	}
}
