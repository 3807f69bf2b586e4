// Package userbooks provides database operations for per-user reading
// records.
//
// A (user_id, book_id) pair maps to at most one row; the unique index is the
// backstop for concurrent duplicate inserts.
package userbooks

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/booklogapp/booklog/internal/entities"
)

// Sort orders accepted by ListByUser. Anything else falls back to SortRecent.
const (
	SortRecent    = "recent"    // updated_at DESC
	SortCreated   = "created"   // created_at DESC
	SortTitle     = "title"     // book title ASC
	SortCompleted = "completed" // completed_at DESC
)

// Repository handles all reading-record database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new userbooks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new reading record. Returns gorm.ErrDuplicatedKey when
// the (user, book) pair already has one.
func (r *Repository) Create(userBook *entities.UserBook) error {
	return r.db.Omit(clause.Associations).Create(userBook).Error
}

// GetByID retrieves a reading record with its book preloaded.
// Returns (nil, nil) when no record exists.
func (r *Repository) GetByID(id uint) (*entities.UserBook, error) {
	var userBook entities.UserBook
	err := r.db.Preload("Book").First(&userBook, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &userBook, nil
}

// ExistsByUserAndBook reports whether the user already tracks the book.
func (r *Repository) ExistsByUserAndBook(userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.UserBook{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

// ListByUser returns the user's reading records, optionally filtered by
// status, with pagination and sort.
func (r *Repository) ListByUser(userID uint, status *entities.ReadingStatus, limit, offset int, sort string) ([]entities.UserBook, int64, error) {
	var userBooks []entities.UserBook
	var total int64

	countQuery := r.db.Model(&entities.UserBook{}).Where("user_id = ?", userID)
	if status != nil {
		countQuery = countQuery.Where("status = ?", *status)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Preload("Book").Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	switch sort {
	case SortCreated:
		query = query.Order("created_at DESC")
	case SortTitle:
		query = query.Joins("JOIN books ON books.id = user_books.book_id").
			Order("books.title ASC")
	case SortCompleted:
		query = query.Order("completed_at DESC")
	default:
		query = query.Order("updated_at DESC")
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&userBooks).Error
	return userBooks, total, err
}

// ListReadingWithBook returns the user's READING records with books
// preloaded, for the overall-progress roll-up.
func (r *Repository) ListReadingWithBook(userID uint) ([]entities.UserBook, error) {
	var userBooks []entities.UserBook
	err := r.db.Preload("Book").
		Where("user_id = ? AND status = ?", userID, entities.StatusReading).
		Find(&userBooks).Error
	return userBooks, err
}

// Save persists all fields of an existing reading record.
func (r *Repository) Save(userBook *entities.UserBook) error {
	return r.db.Omit(clause.Associations).Save(userBook).Error
}

// CountByUser returns the number of reading records for a user.
func (r *Repository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.UserBook{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CountByUserAndStatus returns the number of records in one status.
func (r *Repository) CountByUserAndStatus(userID uint, status entities.ReadingStatus) (int64, error) {
	var count int64
	err := r.db.Model(&entities.UserBook{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}

// SumCompletedPages returns the total current_page over COMPLETED records.
func (r *Repository) SumCompletedPages(userID uint) (int64, error) {
	var total *int64
	err := r.db.Model(&entities.UserBook{}).
		Where("user_id = ? AND status = ?", userID, entities.StatusCompleted).
		Select("SUM(current_page)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// LatestCompleted returns the COMPLETED record with the newest completed_at,
// highest id breaking ties. Returns (nil, nil) when the user has none.
func (r *Repository) LatestCompleted(userID uint) (*entities.UserBook, error) {
	var userBook entities.UserBook
	err := r.db.Preload("Book").
		Where("user_id = ? AND status = ?", userID, entities.StatusCompleted).
		Order("completed_at DESC, id DESC").
		First(&userBook).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &userBook, nil
}

// LatestReading returns the READING record with the newest updated_at.
// Returns (nil, nil) when the user has none.
func (r *Repository) LatestReading(userID uint) (*entities.UserBook, error) {
	var userBook entities.UserBook
	err := r.db.Preload("Book").
		Where("user_id = ? AND status = ?", userID, entities.StatusReading).
		Order("updated_at DESC, id DESC").
		First(&userBook).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &userBook, nil
}
