package repository

import (
	"github.com/tobiaskarsten/linkstash/app/models"
	"gorm.io/gorm"
)

// collectionRepository implements the CollectionRepository interface
type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new collection repository instance
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// Create creates a new collection in the database
func (r *collectionRepository) Create(collection *models.Collection) error {
	return r.db.Create(collection).Error
}

// GetByID retrieves a collection by its ID
func (r *collectionRepository) GetByID(id uint) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.First(&collection, id).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetByIDWithBookmarks retrieves a collection including its bookmarks in order
func (r *collectionRepository) GetByIDWithBookmarks(id uint) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.Preload("Bookmarks", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).First(&collection, id).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetByUserID retrieves all collections belonging to a specific user
func (r *collectionRepository) GetByUserID(userID uint) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&collections).Error
	return collections, err
}

// GetByShareLink retrieves a collection by its share link
func (r *collectionRepository) GetByShareLink(shareLink string) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.Where("share_link = ?", shareLink).First(&collection).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetByUserIDAndName retrieves a user's collection by its exact name
func (r *collectionRepository) GetByUserIDAndName(userID uint, name string) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.Where("user_id = ? AND name = ?", userID, name).First(&collection).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// Update updates an existing collection in the database
func (r *collectionRepository) Update(collection *models.Collection) error {
	return r.db.Save(collection).Error
}

// Delete soft deletes a collection and its bookmarks
func (r *collectionRepository) Delete(id uint) error {
	if err := r.db.Where("collection_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Collection{}, id).Error
}

// CountByUserID returns the number of collections for a user
func (r *collectionRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Collection{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
