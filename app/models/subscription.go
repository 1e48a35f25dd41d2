package models

import "time"

const (
	SubscriptionStatusActive = "active"
	SubscriptionStatusNone   = "none"
)

// Subscription mirrors Lemon Squeezy subscription state for a user. One row
// per user; checkout- and order-derived rows may carry no provider
// subscription id. The provider's status vocabulary is stored verbatim and
// not validated against a closed set.
type Subscription struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	SubscriptionID     *string    `gorm:"type:varchar(191);uniqueIndex" json:"subscription_id,omitempty"`
	StoreCustomerID    string     `gorm:"type:varchar(191);default:''" json:"store_customer_id"`
	ProductID          string     `gorm:"type:varchar(191);default:''" json:"product_id"`
	VariantID          string     `gorm:"type:varchar(191);default:''" json:"variant_id"`
	Status             string     `gorm:"type:varchar(32);not null;default:'none';index" json:"status"`
	CurrentPeriodStart *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	TrialEnd           *time.Time `gorm:"type:timestamp;default:null" json:"trial_end,omitempty"`
	CancelAtPeriodEnd  bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
