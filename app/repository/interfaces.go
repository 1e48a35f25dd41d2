package repository

import (
	"github.com/tobiaskarsten/linkstash/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// CollectionRepository defines the interface for collection-related database operations
type CollectionRepository interface {
	Create(collection *models.Collection) error
	GetByID(id uint) (*models.Collection, error)
	GetByIDWithBookmarks(id uint) (*models.Collection, error)
	GetByUserID(userID uint) ([]models.Collection, error)
	GetByShareLink(shareLink string) (*models.Collection, error)
	GetByUserIDAndName(userID uint, name string) (*models.Collection, error)
	Update(collection *models.Collection) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
}

// BookmarkRepository defines the interface for bookmark-related database operations
type BookmarkRepository interface {
	Create(bookmark *models.Bookmark) error
	CreateBatch(bookmarks []models.Bookmark) error
	GetByID(id uint) (*models.Bookmark, error)
	GetByCollectionID(collectionID uint, offset, limit int) ([]models.Bookmark, error)
	ExistsInCollection(collectionID uint, url string) (bool, error)
	NextPosition(collectionID uint) (int, error)
	Update(bookmark *models.Bookmark) error
	Delete(id uint) error
	CountByCollectionID(collectionID uint) (int64, error)
	CountByUserID(userID uint) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User       UserRepository
	Collection CollectionRepository
	Bookmark   BookmarkRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Collection: NewCollectionRepository(db),
		Bookmark:   NewBookmarkRepository(db),
	}
}
