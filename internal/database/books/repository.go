// Package books provides database operations for the book catalog.
//
// The catalog is deduplicated by the external provider's id: every lookup
// and insert is keyed by google_books_id, backed by a unique index.
package books

import (
	"errors"

	"gorm.io/gorm"

	"github.com/booklogapp/booklog/internal/entities"
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new catalog record. Returns gorm.ErrDuplicatedKey when a
// record with the same external id was inserted concurrently.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// FindByGoogleBooksID looks up a book by its external provider id.
// Returns (nil, nil) when no record exists.
func (r *Repository) FindByGoogleBooksID(googleBooksID string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("google_books_id = ?", googleBooksID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByID retrieves a book by primary key.
// Returns (nil, nil) when no record exists.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Save persists all fields of an existing book.
func (r *Repository) Save(book *entities.Book) error {
	return r.db.Save(book).Error
}

// ListIDs returns the primary keys of every catalog record, used by the
// refresh-all task to fan out per-book jobs.
func (r *Repository) ListIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Book{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// Count returns the number of books in the catalog.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}
