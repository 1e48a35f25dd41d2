package billing

import (
	"errors"
	"time"

	"github.com/tobiaskarsten/linkstash/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint) error
	RecordWebhookProcessingError(id uint, processingError string) error
	UpsertSubscriptionBySubscriptionID(sub *models.Subscription) error
	UpsertSubscriptionByUserID(sub *models.Subscription) error
	GetSubscriptionByUserID(userID uint) (*models.Subscription, error)
	GetUserIDByEmail(email string) (uint, bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CreateWebhookEventIfNotExists inserts the event row unless one with the
// same event id already exists. The conditional insert is a single statement
// so concurrent duplicate deliveries cannot both pass an existence check.
func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("event_id = ?", event.EventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.WebhookEventStatusProcessed,
		"processed_at": &now,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

// RecordWebhookProcessingError stores the failure message without touching
// the status, so the row stays in received state for manual follow-up.
func (r *gormRepository) RecordWebhookProcessingError(id uint, processingError string) error {
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).
		Update("processing_error", processingError).Error
}

// UpsertSubscriptionBySubscriptionID writes subscription state keyed by the
// provider subscription id as one conditional upsert statement.
func (r *gormRepository) UpsertSubscriptionBySubscriptionID(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subscription_id"}},
		// subscription_id must be in the assignment list: MySQL fires ON
		// DUPLICATE KEY UPDATE on any unique key, and a checkout-created row
		// conflicts on user_id while still carrying a NULL subscription_id.
		DoUpdates: clause.AssignmentColumns([]string{
			"subscription_id",
			"user_id",
			"store_customer_id",
			"product_id",
			"variant_id",
			"status",
			"current_period_start",
			"current_period_end",
			"trial_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("subscription_id = ?", sub.SubscriptionID).First(sub).Error
}

// UpsertSubscriptionByUserID writes subscription state keyed by user id;
// used for checkout/order events, which carry no provider subscription id.
// An existing subscription id on the row is intentionally left untouched.
func (r *gormRepository) UpsertSubscriptionByUserID(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"store_customer_id",
			"product_id",
			"variant_id",
			"status",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	return r.db.Where("user_id = ?", sub.UserID).First(sub).Error
}

func (r *gormRepository) GetSubscriptionByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetUserIDByEmail resolves a billing email to a local user id. First match
// or none; a missing user is not an error (identity-resolution misses are
// legitimate no-ops).
func (r *gormRepository) GetUserIDByEmail(email string) (uint, bool, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return user.ID, true, nil
}
