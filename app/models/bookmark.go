package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type Bookmark struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CollectionID uint           `gorm:"index:idx_bookmarks_collection_position,priority:1" json:"collection_id"`
	UserID       uint           `gorm:"index" json:"user_id"`
	URL          string         `gorm:"type:varchar(2048);not null" json:"url" validate:"required,url,max=2048"`
	Title        string         `gorm:"type:varchar(500)" json:"title" validate:"max=500"`
	Description  string         `gorm:"type:text" json:"description"`
	FaviconURL   string         `gorm:"type:varchar(2048)" json:"favicon_url"`
	Position     int            `gorm:"default:0;index:idx_bookmarks_collection_position,priority:2" json:"position"`
	AddedAt      *time.Time     `gorm:"type:timestamp;default:null" json:"added_at,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Bookmark) Validate() error {
	v := validator.New()

	return v.Struct(b)
}
