package billing

import "time"

// NormalizedSubscription is the provider-agnostic shape the billing service
// writes into the subscriptions table after extracting a webhook payload.
type NormalizedSubscription struct {
	UserID             uint
	SubscriptionID     string
	StoreCustomerID    string
	ProductID          string
	VariantID          string
	Status             string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	TrialEnd           *time.Time
	CancelAtPeriodEnd  bool
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	EventID     string
	EventName   string
	Type        string
	PayloadHash string
	PayloadJSON string
}

// ProcessResult reports what the reconciliation branch did with an event.
type ProcessResult struct {
	Synced bool
	UserID uint
	Reason string
}
