package billing

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/tobiaskarsten/linkstash/app/models"
	"gorm.io/gorm"
)

// checkoutPeriod is the subscription window granted for a completed
// checkout or paid order. These events carry no period fields, so the
// window starts at processing time.
const checkoutPeriod = 30 * 24 * time.Hour

// Service reconciles Lemon Squeezy webhook events into local subscription
// state.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// RecordWebhookEvent persists the event row idempotently. The returned bool
// reports whether this delivery created the row; false means a duplicate.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		return false, nil, errors.New("event_id is required")
	}

	event := &models.WebhookEvent{
		EventID:     eventID,
		EventName:   strings.TrimSpace(in.EventName),
		Type:        strings.TrimSpace(in.Type),
		PayloadHash: in.PayloadHash,
		PayloadJSON: in.PayloadJSON,
		Status:      models.WebhookEventStatusReceived,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed flips the event row to processed. Called only after
// the business-logic branch completed, even when that branch was a no-op.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	return s.repo.MarkWebhookProcessed(webhookEventID)
}

// RecordProcessingError notes a branch failure on the event row while
// leaving it in received state, eligible for manual reprocessing.
func (s *Service) RecordProcessingError(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 || processingErr == nil {
		return nil
	}
	return s.repo.RecordWebhookProcessingError(webhookEventID, processingErr.Error())
}

// ProcessEvent runs the reconciliation branch for the payload's subject
// type. Identity-resolution misses and non-actionable statuses are
// reported as skips, not errors; only store failures surface as errors.
func (s *Service) ProcessEvent(ctx context.Context, p *WebhookPayload) (ProcessResult, error) {
	switch p.Subject {
	case SubjectSubscription:
		return s.syncSubscription(ctx, p)
	case SubjectCheckout, SubjectOrder:
		return s.syncCheckoutOrder(ctx, p)
	default:
		return ProcessResult{Reason: "ignored_subject"}, nil
	}
}

func (s *Service) syncSubscription(ctx context.Context, p *WebhookPayload) (ProcessResult, error) {
	in := p.Subscription()

	userID, ok, err := s.resolveUserID(p)
	if err != nil {
		return ProcessResult{}, err
	}
	if !ok {
		log.Printf("billing: subscription event %s has no resolvable user, skipping", p.EventID)
		return ProcessResult{Reason: "no_user"}, nil
	}

	sub := &models.Subscription{
		UserID:             userID,
		StoreCustomerID:    in.StoreCustomerID,
		ProductID:          in.ProductID,
		VariantID:          in.VariantID,
		Status:             in.Status,
		CurrentPeriodStart: in.CurrentPeriodStart,
		CurrentPeriodEnd:   in.CurrentPeriodEnd,
		TrialEnd:           in.TrialEnd,
		CancelAtPeriodEnd:  in.CancelAtPeriodEnd,
	}

	if in.SubscriptionID != "" {
		subID := in.SubscriptionID
		sub.SubscriptionID = &subID
		err = s.repo.UpsertSubscriptionBySubscriptionID(sub)
	} else {
		err = s.repo.UpsertSubscriptionByUserID(sub)
	}
	if err != nil {
		return ProcessResult{}, err
	}
	return ProcessResult{Synced: true, UserID: userID}, nil
}

func (s *Service) syncCheckoutOrder(ctx context.Context, p *WebhookPayload) (ProcessResult, error) {
	in := p.CheckoutOrder()

	if in.Status != "completed" && in.Status != "paid" {
		log.Printf("billing: %s event %s has status %q, skipping", p.Subject, p.EventID, in.Status)
		return ProcessResult{Reason: "not_payable_status"}, nil
	}

	userID, ok, err := s.resolveUserID(p)
	if err != nil {
		return ProcessResult{}, err
	}
	if !ok || in.VariantID == "" {
		log.Printf("billing: %s event %s missing user or variant, skipping", p.Subject, p.EventID)
		return ProcessResult{Reason: "missing_user_or_variant"}, nil
	}

	start := s.now()
	end := start.Add(checkoutPeriod)
	sub := &models.Subscription{
		UserID:             userID,
		StoreCustomerID:    in.StoreCustomerID,
		ProductID:          in.ProductID,
		VariantID:          in.VariantID,
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		CancelAtPeriodEnd:  false,
	}
	if err := s.repo.UpsertSubscriptionByUserID(sub); err != nil {
		return ProcessResult{}, err
	}
	return ProcessResult{Synced: true, UserID: userID}, nil
}

// resolveUserID applies the identity precedence: explicit custom fields
// first, then a lookup by billing email.
func (s *Service) resolveUserID(p *WebhookPayload) (uint, bool, error) {
	if id, ok := p.CustomUserID(); ok {
		return id, true, nil
	}
	email := p.BillingEmail()
	if email == "" {
		return 0, false, nil
	}
	return s.repo.GetUserIDByEmail(email)
}

// EffectivePlan computes the user's plan from current subscription state.
func (s *Service) EffectivePlan(ctx context.Context, userID uint) (string, error) {
	_ = ctx
	sub, err := s.repo.GetSubscriptionByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PlanFree, nil
		}
		return "", err
	}
	return PlanForStatus(sub.Status), nil
}

// Subscription returns the user's subscription row, or nil when none exists.
func (s *Service) Subscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	_ = ctx
	sub, err := s.repo.GetSubscriptionByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}
