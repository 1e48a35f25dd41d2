package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/webhooks/lemonsqueezy", HandleLemonSqueezyWebhook)
	return app
}

func signWebhookBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func decodeJSONBody(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

func TestWebhookMissingSecret(t *testing.T) {
	t.Setenv("LEMON_SQUEEZY_WEBHOOK_SECRET", "")
	app := newWebhookTestApp()

	req := httptest.NewRequest("POST", "/webhooks/lemonsqueezy", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body := decodeJSONBody(t, resp.Body)
	assert.Equal(t, "webhook_secret_not_configured", body["error"])
}

func TestWebhookMissingSignature(t *testing.T) {
	t.Setenv("LEMON_SQUEEZY_WEBHOOK_SECRET", "whsec_test")
	app := newWebhookTestApp()

	req := httptest.NewRequest("POST", "/webhooks/lemonsqueezy", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	body := decodeJSONBody(t, resp.Body)
	assert.Equal(t, "invalid_signature", body["error"])
}

func TestWebhookInvalidSignature(t *testing.T) {
	t.Setenv("LEMON_SQUEEZY_WEBHOOK_SECRET", "whsec_test")
	app := newWebhookTestApp()

	payload := []byte(`{"meta":{"event_id":"evt_1"}}`)
	req := httptest.NewRequest("POST", "/webhooks/lemonsqueezy", bytes.NewReader(payload))
	req.Header.Set("X-Signature", signWebhookBody(payload, "wrong_secret"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookSignatureHeaderPrecedence(t *testing.T) {
	t.Setenv("LEMON_SQUEEZY_WEBHOOK_SECRET", "whsec_test")
	app := newWebhookTestApp()

	// x-signature wins over the alternates; an invalid value there fails the
	// request even when a valid signature sits in a lower-priority header.
	payload := []byte(`{"meta":{"event_id":"evt_1"}}`)
	req := httptest.NewRequest("POST", "/webhooks/lemonsqueezy", bytes.NewReader(payload))
	req.Header.Set("X-Signature", "deadbeef")
	req.Header.Set("X-Lemonsqueezy-Signature", signWebhookBody(payload, "whsec_test"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookMalformedJSON(t *testing.T) {
	t.Setenv("LEMON_SQUEEZY_WEBHOOK_SECRET", "whsec_test")
	app := newWebhookTestApp()

	for _, raw := range []string{`{"meta":`, `[]`, `"string"`, ``} {
		payload := []byte(raw)
		req := httptest.NewRequest("POST", "/webhooks/lemonsqueezy", bytes.NewReader(payload))
		req.Header.Set("X-Signature", signWebhookBody(payload, "whsec_test"))
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "payload %q", raw)
		body := decodeJSONBody(t, resp.Body)
		assert.Equal(t, "invalid_payload", body["error"])
		resp.Body.Close()
	}
}
