package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/tobiaskarsten/linkstash/internal/pkg/shortener"
)

const (
	VisibilityPrivate  = "private"
	VisibilityUnlisted = "unlisted"
	VisibilityPublic   = "public"
)

const shareLinkLength = 10

type Collection struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"user,omitempty" validate:"-"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Description string         `gorm:"type:text" json:"description"`
	Visibility  string         `gorm:"type:varchar(20);default:'private';index" json:"visibility" validate:"oneof=private unlisted public"`
	ShareLink   string         `gorm:"type:varchar(255) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex" json:"share_link"`
	Bookmarks   []Bookmark     `gorm:"foreignKey:CollectionID" json:"bookmarks,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (col *Collection) Validate() error {
	v := validator.New()

	return v.Struct(col)
}

// IsShared reports whether the collection is reachable via its share link.
func (col *Collection) IsShared() bool {
	return col.Visibility == VisibilityPublic || col.Visibility == VisibilityUnlisted
}

// BeforeCreate assigns an unguessable share link before inserting the record.
func (col *Collection) BeforeCreate(tx *gorm.DB) error {
	if col.Visibility == "" {
		col.Visibility = VisibilityPrivate
	}
	if col.ShareLink == "" {
		slug, err := shortener.GenerateSecureSlug(shareLinkLength)
		if err != nil {
			return err
		}
		col.ShareLink = slug
	}
	return nil
}
