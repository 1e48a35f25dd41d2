package models

import "time"

const (
	WebhookEventStatusReceived  = "received"
	WebhookEventStatusProcessed = "processed"
)

// WebhookEvent stores provider webhook payloads with deduplication
// metadata for idempotent processing. Rows are append-only; only the
// status/processed_at pair is updated after the business logic ran.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	EventID         string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"event_id"`
	EventName       string     `gorm:"type:varchar(100);not null;default:''" json:"event_name"`
	Type            string     `gorm:"type:varchar(50);not null;index" json:"type"`
	PayloadHash     string     `gorm:"type:char(64);not null;default:''" json:"payload_hash"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	Status          string     `gorm:"type:varchar(20);not null;default:'received';index" json:"status"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
