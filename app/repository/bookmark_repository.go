package repository

import (
	"github.com/tobiaskarsten/linkstash/app/models"
	"gorm.io/gorm"
)

const createBatchSize = 200

// bookmarkRepository implements the BookmarkRepository interface
type bookmarkRepository struct {
	db *gorm.DB
}

// NewBookmarkRepository creates a new bookmark repository instance
func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

// Create creates a new bookmark in the database
func (r *bookmarkRepository) Create(bookmark *models.Bookmark) error {
	return r.db.Create(bookmark).Error
}

// CreateBatch inserts bookmarks in chunks; used by the importer
func (r *bookmarkRepository) CreateBatch(bookmarks []models.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}
	return r.db.CreateInBatches(bookmarks, createBatchSize).Error
}

// GetByID retrieves a bookmark by its ID
func (r *bookmarkRepository) GetByID(id uint) (*models.Bookmark, error) {
	var bookmark models.Bookmark
	err := r.db.First(&bookmark, id).Error
	if err != nil {
		return nil, err
	}
	return &bookmark, nil
}

// GetByCollectionID retrieves bookmarks of a collection ordered by position
func (r *bookmarkRepository) GetByCollectionID(collectionID uint, offset, limit int) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := r.db.Where("collection_id = ?", collectionID).
		Order("position ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&bookmarks).Error
	return bookmarks, err
}

// ExistsInCollection reports whether a collection already holds the URL
func (r *bookmarkRepository) ExistsInCollection(collectionID uint, url string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Bookmark{}).
		Where("collection_id = ? AND url = ?", collectionID, url).
		Count(&count).Error
	return count > 0, err
}

// NextPosition returns the next free position slot within a collection
func (r *bookmarkRepository) NextPosition(collectionID uint) (int, error) {
	var max *int
	err := r.db.Model(&models.Bookmark{}).
		Where("collection_id = ?", collectionID).
		Select("MAX(position)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

// Update updates an existing bookmark in the database
func (r *bookmarkRepository) Update(bookmark *models.Bookmark) error {
	return r.db.Save(bookmark).Error
}

// Delete soft deletes a bookmark by its ID
func (r *bookmarkRepository) Delete(id uint) error {
	return r.db.Delete(&models.Bookmark{}, id).Error
}

// CountByCollectionID returns the number of bookmarks in a collection
func (r *bookmarkRepository) CountByCollectionID(collectionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Bookmark{}).Where("collection_id = ?", collectionID).Count(&count).Error
	return count, err
}

// CountByUserID returns the number of bookmarks a user owns across collections
func (r *bookmarkRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Bookmark{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
