package billing

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tobiaskarsten/linkstash/app/models"
)

// fakeRepository keeps billing state in memory keyed the way the real
// schema is keyed: one event row per event id, one subscription per user.
type fakeRepository struct {
	events        map[string]*models.WebhookEvent
	subscriptions map[uint]*models.Subscription
	usersByEmail  map[string]uint
	nextID        uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		events:        map[string]*models.WebhookEvent{},
		subscriptions: map[uint]*models.Subscription{},
		usersByEmail:  map[string]uint{},
	}
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if existing, ok := f.events[event.EventID]; ok {
		return false, existing, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.events[event.EventID] = event
	return true, event, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint) error {
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now()
			e.Status = models.WebhookEventStatusProcessed
			e.ProcessedAt = &now
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) RecordWebhookProcessingError(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// UpsertSubscriptionBySubscriptionID mirrors the store's conflict rules:
// the insert can collide on either unique key (subscription_id or user_id),
// and in both cases the row must end up carrying the provider subscription
// id. The trailing lookup matches the real repository's re-read.
func (f *fakeRepository) UpsertSubscriptionBySubscriptionID(sub *models.Subscription) error {
	for _, existing := range f.subscriptions {
		if existing.SubscriptionID != nil && sub.SubscriptionID != nil &&
			*existing.SubscriptionID == *sub.SubscriptionID && existing.UserID != sub.UserID {
			delete(f.subscriptions, existing.UserID)
			break
		}
	}
	f.subscriptions[sub.UserID] = sub

	for _, existing := range f.subscriptions {
		if existing.SubscriptionID != nil && sub.SubscriptionID != nil &&
			*existing.SubscriptionID == *sub.SubscriptionID {
			*sub = *existing
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpsertSubscriptionByUserID(sub *models.Subscription) error {
	if existing, ok := f.subscriptions[sub.UserID]; ok && existing.SubscriptionID != nil {
		sub.SubscriptionID = existing.SubscriptionID
	}
	f.subscriptions[sub.UserID] = sub
	return nil
}

func (f *fakeRepository) GetSubscriptionByUserID(userID uint) (*models.Subscription, error) {
	sub, ok := f.subscriptions[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sub, nil
}

func (f *fakeRepository) GetUserIDByEmail(email string) (uint, bool, error) {
	id, ok := f.usersByEmail[email]
	return id, ok, nil
}

func newTestService(repo *fakeRepository, at time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return at }
	return svc
}

func mustParse(t *testing.T, body string) *WebhookPayload {
	t.Helper()
	p, err := ParseWebhookPayload([]byte(body))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return p
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	in := WebhookEventInput{EventID: "evt_1", EventName: "subscription_created", Type: "subscriptions", PayloadJSON: "{}"}
	created, stored, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || stored == nil {
		t.Fatalf("expected first delivery to create the row")
	}
	if stored.Status != models.WebhookEventStatusReceived {
		t.Errorf("Status = %q, want received", stored.Status)
	}

	created, stored2, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("expected second delivery to be a duplicate")
	}
	if stored2.ID != stored.ID {
		t.Errorf("duplicate returned a different row")
	}
}

func TestRecordWebhookEventRequiresEventID(t *testing.T) {
	svc := NewService(newFakeRepository())
	if _, _, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{}); err == nil {
		t.Fatalf("expected error for missing event id")
	}
}

func TestProcessEventSubscriptionCreatesRow(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	p := mustParse(t, subscriptionPayload)
	res, err := svc.ProcessEvent(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Synced || res.UserID != 42 {
		t.Fatalf("result = %+v, want synced for user 42", res)
	}

	sub, ok := repo.subscriptions[42]
	if !ok {
		t.Fatalf("expected subscription row for user 42")
	}
	if sub.SubscriptionID == nil || *sub.SubscriptionID != "sub_1" {
		t.Errorf("SubscriptionID = %v, want sub_1", sub.SubscriptionID)
	}
	if sub.Status != "active" || sub.VariantID != "v1" || sub.ProductID != "p1" || sub.StoreCustomerID != "c1" {
		t.Errorf("unexpected row: %+v", sub)
	}
	if sub.CurrentPeriodStart == nil || sub.CurrentPeriodStart.Year() != 2024 {
		t.Errorf("CurrentPeriodStart = %v", sub.CurrentPeriodStart)
	}
	if sub.CancelAtPeriodEnd {
		t.Errorf("CancelAtPeriodEnd = true, want false")
	}
}

func TestProcessEventSubscriptionResolvesUserByEmail(t *testing.T) {
	repo := newFakeRepository()
	repo.usersByEmail["jane@example.com"] = 99
	svc := NewService(repo)

	body := `{
	  "meta": {"event_id": "evt_2", "event_name": "subscription_updated"},
	  "data": {"id": "sub_9", "type": "subscriptions",
	    "attributes": {"status": "past_due", "user_email": "jane@example.com"}}
	}`
	res, err := svc.ProcessEvent(context.Background(), mustParse(t, body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Synced || res.UserID != 99 {
		t.Fatalf("result = %+v, want synced for user 99", res)
	}
	if repo.subscriptions[99].Status != "past_due" {
		t.Errorf("Status = %q", repo.subscriptions[99].Status)
	}
}

func TestProcessEventSubscriptionWithoutUserSkips(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	body := `{"meta":{"event_id":"evt_3"},"data":{"id":"sub_x","type":"subscriptions","attributes":{"status":"active","user_email":"nobody@example.com"}}}`
	res, err := svc.ProcessEvent(context.Background(), mustParse(t, body))
	if err != nil {
		t.Fatalf("identity miss must not be an error, got %v", err)
	}
	if res.Synced || res.Reason != "no_user" {
		t.Fatalf("result = %+v, want skip with reason no_user", res)
	}
	if len(repo.subscriptions) != 0 {
		t.Errorf("expected no subscription rows")
	}
}

func TestProcessEventCheckoutGrantsPeriod(t *testing.T) {
	repo := newFakeRepository()
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, at)

	body := `{
	  "meta": {"event_id": "evt_4", "event_name": "order_created", "custom": {"user_id": "7"}},
	  "data": {"id": "o1", "type": "orders",
	    "attributes": {"status": "paid"},
	    "relationships": {
	      "variant": {"data": {"id": "v5"}},
	      "product": {"data": {"id": "p5"}},
	      "customer": {"data": {"id": "c5"}}}}
	}`
	res, err := svc.ProcessEvent(context.Background(), mustParse(t, body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Synced || res.UserID != 7 {
		t.Fatalf("result = %+v, want synced for user 7", res)
	}

	sub := repo.subscriptions[7]
	if sub == nil {
		t.Fatalf("expected subscription row for user 7")
	}
	if sub.SubscriptionID != nil {
		t.Errorf("orders must not set a provider subscription id, got %v", sub.SubscriptionID)
	}
	if sub.Status != models.SubscriptionStatusActive {
		t.Errorf("Status = %q, want active", sub.Status)
	}
	if sub.CancelAtPeriodEnd {
		t.Errorf("CancelAtPeriodEnd = true, want false")
	}
	if sub.CurrentPeriodStart == nil || !sub.CurrentPeriodStart.Equal(at) {
		t.Errorf("CurrentPeriodStart = %v, want %v", sub.CurrentPeriodStart, at)
	}
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(at.Add(30*24*time.Hour)) {
		t.Errorf("CurrentPeriodEnd = %v, want 30 days after start", sub.CurrentPeriodEnd)
	}
}

// Lemon Squeezy sends order_created and subscription_created for the same
// purchase. The order arrives first and creates a row without a provider
// subscription id; the subscription event must then attach its id to that
// row instead of failing on the one-row-per-user constraint.
func TestProcessEventOrderThenSubscription(t *testing.T) {
	repo := newFakeRepository()
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, at)
	ctx := context.Background()

	orderBody := `{
	  "meta": {"event_id": "evt_order", "event_name": "order_created", "custom": {"user_id": "7"}},
	  "data": {"id": "o1", "type": "orders",
	    "attributes": {"status": "paid"},
	    "relationships": {"variant": {"data": {"id": "v1"}}}}
	}`
	res, err := svc.ProcessEvent(ctx, mustParse(t, orderBody))
	if err != nil {
		t.Fatalf("order event: unexpected error: %v", err)
	}
	if !res.Synced {
		t.Fatalf("order event result = %+v, want synced", res)
	}
	if repo.subscriptions[7].SubscriptionID != nil {
		t.Fatalf("order event must not set a provider subscription id")
	}

	subBody := `{
	  "meta": {"event_id": "evt_sub", "event_name": "subscription_created", "custom": {"user_id": "7"}},
	  "data": {"id": "sub_1", "type": "subscriptions",
	    "attributes": {"status": "active", "renews_at": "2024-07-01T00:00:00Z"},
	    "relationships": {"variant": {"data": {"id": "v1"}}}}
	}`
	res, err = svc.ProcessEvent(ctx, mustParse(t, subBody))
	if err != nil {
		t.Fatalf("subscription event after order: unexpected error: %v", err)
	}
	if !res.Synced || res.UserID != 7 {
		t.Fatalf("subscription event result = %+v, want synced for user 7", res)
	}

	sub := repo.subscriptions[7]
	if sub.SubscriptionID == nil || *sub.SubscriptionID != "sub_1" {
		t.Fatalf("expected the order-created row to pick up subscription id sub_1, got %+v", sub)
	}
	if sub.Status != "active" {
		t.Errorf("Status = %q, want active", sub.Status)
	}
	if len(repo.subscriptions) != 1 {
		t.Errorf("expected a single row for the user, got %d", len(repo.subscriptions))
	}
}

func TestProcessEventCheckoutPendingSkips(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	body := `{"meta":{"event_id":"evt_5","custom":{"user_id":"7"}},"data":{"id":"co1","type":"checkouts","attributes":{"status":"pending"},"relationships":{"variant":{"data":{"id":"v5"}}}}}`
	res, err := svc.ProcessEvent(context.Background(), mustParse(t, body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Synced || res.Reason != "not_payable_status" {
		t.Fatalf("result = %+v, want skip with reason not_payable_status", res)
	}
	if len(repo.subscriptions) != 0 {
		t.Errorf("expected no subscription rows")
	}
}

func TestProcessEventCheckoutMissingVariantSkips(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	body := `{"meta":{"event_id":"evt_6","custom":{"user_id":"7"}},"data":{"id":"o2","type":"orders","attributes":{"status":"completed"}}}`
	res, err := svc.ProcessEvent(context.Background(), mustParse(t, body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Synced || res.Reason != "missing_user_or_variant" {
		t.Fatalf("result = %+v, want skip with reason missing_user_or_variant", res)
	}
}

func TestProcessEventIgnoresUnknownSubject(t *testing.T) {
	svc := NewService(newFakeRepository())

	body := `{"meta":{"event_id":"evt_7","event_name":"license_key_created"},"data":{"id":"lk1","type":"license-keys"}}`
	res, err := svc.ProcessEvent(context.Background(), mustParse(t, body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Synced || res.Reason != "ignored_subject" {
		t.Fatalf("result = %+v, want skip with reason ignored_subject", res)
	}
}

func TestRecordProcessingErrorKeepsReceivedState(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	_, stored, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{EventID: "evt_8", Type: "subscriptions", PayloadJSON: "{}"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.RecordProcessingError(ctx, stored.ID, context.DeadlineExceeded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	event := repo.events["evt_8"]
	if event.Status != models.WebhookEventStatusReceived {
		t.Errorf("Status = %q, processing errors must not change it", event.Status)
	}
	if event.ProcessingError == "" {
		t.Errorf("expected processing error to be recorded")
	}
	if event.ProcessedAt != nil {
		t.Errorf("expected ProcessedAt to stay nil")
	}
}

func TestMarkWebhookProcessed(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	_, stored, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{EventID: "evt_9", Type: "orders", PayloadJSON: "{}"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.MarkWebhookProcessed(ctx, stored.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	event := repo.events["evt_9"]
	if event.Status != models.WebhookEventStatusProcessed || event.ProcessedAt == nil {
		t.Errorf("event not marked processed: %+v", event)
	}
}

func TestEffectivePlan(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	plan, err := svc.EffectivePlan(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan != PlanFree {
		t.Errorf("plan without subscription = %q, want free", plan)
	}

	repo.subscriptions[1] = &models.Subscription{UserID: 1, Status: "active"}
	plan, err = svc.EffectivePlan(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan != PlanPremium {
		t.Errorf("plan with active subscription = %q, want premium", plan)
	}

	repo.subscriptions[1].Status = "expired"
	plan, _ = svc.EffectivePlan(ctx, 1)
	if plan != PlanFree {
		t.Errorf("plan with expired subscription = %q, want free", plan)
	}
}

func TestSubscriptionLookup(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	sub, err := svc.Subscription(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != nil {
		t.Fatalf("expected nil subscription for unknown user")
	}

	repo.subscriptions[5] = &models.Subscription{UserID: 5, Status: "on_trial"}
	sub, err = svc.Subscription(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub == nil || sub.Status != "on_trial" {
		t.Fatalf("subscription = %+v", sub)
	}
}
