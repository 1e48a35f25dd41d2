package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tobiaskarsten/linkstash/internal/pkg/billing"
	"github.com/tobiaskarsten/linkstash/internal/pkg/cache"
	"github.com/tobiaskarsten/linkstash/internal/pkg/database"
	"github.com/tobiaskarsten/linkstash/internal/pkg/usercontext"
)

// HandleAPIUserProfile returns the authenticated user's profile with the
// effective plan (cache-backed, recomputed from subscription state on miss).
func HandleAPIUserProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	plan := cache.GetUserPlan(userCtx.UserID)
	if plan == "" {
		svc := billing.NewServiceFromDB(database.GetDB())
		computed, err := svc.EffectivePlan(ctx, userCtx.UserID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "plan_lookup_failed"})
		}
		plan = computed
		if err := cache.SetUserPlan(userCtx.UserID, plan); err != nil {
			log.Printf("failed to cache plan for user %d: %v", userCtx.UserID, err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":       userCtx.UserID,
		"username": userCtx.Username,
		"plan":     plan,
	})
}

// HandleAPIUserSubscription returns the raw subscription state for the user.
func HandleAPIUserSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc := billing.NewServiceFromDB(database.GetDB())
	sub, err := svc.Subscription(ctx, userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_lookup_failed"})
	}
	if sub == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "none",
			"plan":   billing.PlanFree,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"subscription_id":      sub.SubscriptionID,
		"status":               sub.Status,
		"plan":                 billing.PlanForStatus(sub.Status),
		"variant_id":           sub.VariantID,
		"product_id":           sub.ProductID,
		"current_period_start": formatTimePtr(sub.CurrentPeriodStart),
		"current_period_end":   formatTimePtr(sub.CurrentPeriodEnd),
		"trial_end":            formatTimePtr(sub.TrialEnd),
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
	})
}
