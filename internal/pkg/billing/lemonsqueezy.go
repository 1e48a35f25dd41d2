package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubjectType is the closed set of webhook subject categories this service
// reconciles. Every other data.type value maps to SubjectUnknown and is
// logged without running a business-logic branch.
type SubjectType string

const (
	SubjectSubscription SubjectType = "subscriptions"
	SubjectCheckout     SubjectType = "checkouts"
	SubjectOrder        SubjectType = "orders"
	SubjectUnknown      SubjectType = "unknown"
)

// flexString tolerates provider fields that arrive as either a JSON string
// or a number. Any other shape decodes to the empty string.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// customFields holds the checkout-time custom data Lemon Squeezy echoes
// back. Payload variants disagree on its shape, so anything that is not an
// object is treated as absent rather than rejected.
type customFields struct {
	UserID flexString `json:"user_id"`
}

func (cf *customFields) UnmarshalJSON(b []byte) error {
	type alias customFields
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		*cf = customFields{}
		return nil
	}
	*cf = customFields(a)
	return nil
}

type relData struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type payloadMeta struct {
	EventID    string       `json:"event_id"`
	ID         string       `json:"id"`
	EventName  string       `json:"event_name"`
	Event      string       `json:"event"`
	Custom     customFields `json:"custom"`
	CustomData customFields `json:"custom_data"`
}

type payloadAttributes struct {
	Status         string       `json:"status"`
	UserEmail      string       `json:"user_email"`
	CustomerEmail  string       `json:"customer_email"`
	PeriodStartsAt string       `json:"period_starts_at"`
	PeriodEndsAt   string       `json:"period_ends_at"`
	RenewsAt       string       `json:"renews_at"`
	EndsAt         string       `json:"ends_at"`
	TrialEndsAt    string       `json:"trial_ends_at"`
	Cancelled      bool         `json:"cancelled"`
	CancelledAt    flexString   `json:"cancelled_at"`
	Custom         customFields `json:"custom"`
	CheckoutData   struct {
		Custom customFields `json:"custom"`
	} `json:"checkout_data"`
}

type payloadData struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Attributes    payloadAttributes `json:"attributes"`
	Relationships struct {
		Variant struct {
			Data relData `json:"data"`
		} `json:"variant"`
		Product struct {
			Data relData `json:"data"`
		} `json:"product"`
		Customer struct {
			Data relData `json:"data"`
		} `json:"customer"`
	} `json:"relationships"`
}

type rawPayload struct {
	ID   string       `json:"id"`
	Meta *payloadMeta `json:"meta"`
	Data *payloadData `json:"data"`
}

// WebhookPayload is the tagged-variant view of a parsed webhook body.
// EventID is empty when the payload carried no identifier anywhere; callers
// then synthesize one and must skip deduplication.
type WebhookPayload struct {
	EventID   string
	EventName string
	Subject   SubjectType

	meta payloadMeta
	data payloadData
}

// ParseWebhookPayload parses and shape-validates a raw webhook body. The top
// level must be a JSON object; meta and data, when present, must be objects
// themselves. Deeper fields are optional and default to absent.
func ParseWebhookPayload(body []byte) (*WebhookPayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("webhook payload must be a JSON object")
	}

	var raw rawPayload
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	p := &WebhookPayload{Subject: SubjectUnknown}
	if raw.Meta != nil {
		p.meta = *raw.Meta
	}
	if raw.Data != nil {
		p.data = *raw.Data
	}

	p.EventID = firstNonEmpty(p.meta.EventID, p.meta.ID, raw.ID)
	p.EventName = firstNonEmpty(p.meta.EventName, p.meta.Event)

	switch strings.ToLower(strings.TrimSpace(p.data.Type)) {
	case string(SubjectSubscription):
		p.Subject = SubjectSubscription
	case string(SubjectCheckout):
		p.Subject = SubjectCheckout
	case string(SubjectOrder):
		p.Subject = SubjectOrder
	}

	return p, nil
}

// CustomUserID resolves the internal user id from the payload's custom
// fields, in precedence order: meta.custom, meta.custom_data,
// data.attributes.checkout_data.custom, data.attributes.custom.
func (p *WebhookPayload) CustomUserID() (uint, bool) {
	candidates := []flexString{
		p.meta.Custom.UserID,
		p.meta.CustomData.UserID,
		p.data.Attributes.CheckoutData.Custom.UserID,
		p.data.Attributes.Custom.UserID,
	}
	for _, c := range candidates {
		s := strings.TrimSpace(string(c))
		if s == "" {
			continue
		}
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		return uint(id), true
	}
	return 0, false
}

// BillingEmail returns the billing email carried by the payload, or "".
func (p *WebhookPayload) BillingEmail() string {
	return firstNonEmpty(p.data.Attributes.UserEmail, p.data.Attributes.CustomerEmail)
}

// Subscription extracts the normalized fields of a subscriptions-type event.
// Period boundaries fall back from the period_* fields to renews_at/ends_at;
// absent dates stay nil, never "now".
func (p *WebhookPayload) Subscription() NormalizedSubscription {
	attrs := p.data.Attributes
	status := strings.TrimSpace(attrs.Status)
	if status == "" {
		status = "none"
	}

	return NormalizedSubscription{
		SubscriptionID:     strings.TrimSpace(p.data.ID),
		VariantID:          strings.TrimSpace(p.data.Relationships.Variant.Data.ID),
		ProductID:          strings.TrimSpace(p.data.Relationships.Product.Data.ID),
		StoreCustomerID:    strings.TrimSpace(p.data.Relationships.Customer.Data.ID),
		Status:             status,
		CurrentPeriodStart: parseProviderTime(firstNonEmpty(attrs.PeriodStartsAt, attrs.RenewsAt)),
		CurrentPeriodEnd:   parseProviderTime(firstNonEmpty(attrs.PeriodEndsAt, attrs.EndsAt)),
		TrialEnd:           parseProviderTime(attrs.TrialEndsAt),
		CancelAtPeriodEnd:  attrs.Cancelled || strings.TrimSpace(string(attrs.CancelledAt)) != "",
	}
}

// CheckoutOrder extracts the fields shared by checkouts- and orders-type
// events: relationship ids plus the raw provider status.
func (p *WebhookPayload) CheckoutOrder() NormalizedSubscription {
	return NormalizedSubscription{
		VariantID:       strings.TrimSpace(p.data.Relationships.Variant.Data.ID),
		ProductID:       strings.TrimSpace(p.data.Relationships.Product.Data.ID),
		StoreCustomerID: strings.TrimSpace(p.data.Relationships.Customer.Data.ID),
		Status:          strings.ToLower(strings.TrimSpace(p.data.Attributes.Status)),
	}
}

// GenerateFallbackEventID synthesizes an identifier for payloads without
// one, so the event can still be logged. Synthesized ids are never reused,
// so deduplicating against them is meaningless and must be skipped.
func GenerateFallbackEventID() string {
	return fmt.Sprintf("evt_fallback_%d_%s", time.Now().UnixNano(), uuid.New().String()[:8])
}

func parseProviderTime(value string) *time.Time {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
