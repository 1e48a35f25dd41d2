package repository

import (
	"sync"

	"github.com/tobiaskarsten/linkstash/internal/pkg/database"
	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetCollectionRepository returns the collection repository instance
func (f *Factory) GetCollectionRepository() CollectionRepository {
	return f.GetRepositories().Collection
}

// GetBookmarkRepository returns the bookmark repository instance
func (f *Factory) GetBookmarkRepository() BookmarkRepository {
	return f.GetRepositories().Bookmark
}

var (
	globalFactory     *Factory
	globalFactoryOnce sync.Once
)

// GetGlobalFactory returns the process-wide factory bound to the global DB
// handle, creating it on first use.
func GetGlobalFactory() *Factory {
	globalFactoryOnce.Do(func() {
		globalFactory = NewFactory(database.GetDB())
	})
	return globalFactory
}
