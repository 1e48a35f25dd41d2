package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tobiaskarsten/linkstash/internal/pkg/billing"
	"github.com/tobiaskarsten/linkstash/internal/pkg/cache"
	"github.com/tobiaskarsten/linkstash/internal/pkg/database"
	"github.com/tobiaskarsten/linkstash/internal/pkg/env"
)

// HandleLemonSqueezyWebhook ingests Lemon Squeezy webhook deliveries:
// authenticate the raw body, parse, dedup by event id, run the
// subscription reconciliation branch, then mark the logged event processed.
func HandleLemonSqueezyWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	secret := env.GetEnv("LEMON_SQUEEZY_WEBHOOK_SECRET", "")
	if secret == "" {
		log.Print("billing: LEMON_SQUEEZY_WEBHOOK_SECRET is not configured")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_secret_not_configured"})
	}

	signature := firstHeaderValue(c, "x-signature", "x-lemonsqueezy-signature", "signature")
	if !billing.VerifyWebhookSignature(rawBody, signature, secret) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	payload, err := billing.ParseWebhookPayload(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Dedup only applies to ids the provider actually sent; synthesized
	// fallback ids are never reused, so checking them is meaningless.
	eventID := payload.EventID
	synthetic := false
	if eventID == "" {
		eventID = billing.GenerateFallbackEventID()
		synthetic = true
	}

	created, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		EventID:     eventID,
		EventName:   payload.EventName,
		Type:        string(payload.Subject),
		PayloadHash: billing.ComputePayloadHash(rawBody, secret),
		PayloadJSON: string(rawBody),
	})
	if err != nil {
		// The audit trail is best-effort; a failed event insert must not
		// block payment processing.
		log.Printf("billing: failed to persist webhook event %s: %v", eventID, err)
		stored = nil
	} else if !created && !synthetic {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	result, procErr := svc.ProcessEvent(ctx, payload)
	if procErr != nil {
		log.Printf("billing: processing webhook event %s failed: %v", eventID, procErr)
		if stored != nil {
			// Leave the row in received state for manual reprocessing.
			_ = svc.RecordProcessingError(ctx, stored.ID, procErr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_processing_failed"})
	}

	if result.Synced {
		if err := cache.InvalidateUserPlan(result.UserID); err != nil {
			log.Printf("billing: plan cache invalidation for user %d failed: %v", result.UserID, err)
		}
	} else if result.Reason != "" {
		log.Printf("billing: webhook event %s skipped (%s)", eventID, result.Reason)
	}

	if stored != nil {
		if err := svc.MarkWebhookProcessed(ctx, stored.ID); err != nil {
			log.Printf("billing: failed to mark webhook event %s processed: %v", eventID, err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
