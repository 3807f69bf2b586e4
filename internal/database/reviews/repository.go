// Package reviews provides database operations for book reviews, including
// the aggregate queries consumed by book details and user statistics.
package reviews

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/booklogapp/booklog/internal/entities"
)

// Repository handles all review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reviews repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new review. Returns gorm.ErrDuplicatedKey when the
// (user, book) pair already has one.
func (r *Repository) Create(review *entities.Review) error {
	return r.db.Omit(clause.Associations).Create(review).Error
}

// GetByID retrieves a review with its book preloaded.
// Returns (nil, nil) when no record exists.
func (r *Repository) GetByID(id uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.Preload("Book").First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ExistsByUserAndBook reports whether the user already reviewed the book.
func (r *Repository) ExistsByUserAndBook(userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Review{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

// ListByBook returns a book's reviews, newest first, with pagination.
func (r *Repository) ListByBook(bookID uint, limit, offset int) ([]entities.Review, int64, error) {
	var reviews []entities.Review
	var total int64

	if err := r.db.Model(&entities.Review{}).Where("book_id = ?", bookID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Where("book_id = ?", bookID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&reviews).Error
	return reviews, total, err
}

// ListByUser returns a user's reviews, newest first, with pagination.
func (r *Repository) ListByUser(userID uint, limit, offset int) ([]entities.Review, int64, error) {
	var reviews []entities.Review
	var total int64

	if err := r.db.Model(&entities.Review{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Preload("Book").Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&reviews).Error
	return reviews, total, err
}

// Save persists all fields of an existing review.
func (r *Repository) Save(review *entities.Review) error {
	return r.db.Omit(clause.Associations).Save(review).Error
}

// Delete removes a review by primary key.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Review{}, id).Error
}

// CountByBook returns the number of reviews for a book.
func (r *Repository) CountByBook(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Review{}).
		Where("book_id = ?", bookID).
		Count(&count).Error
	return count, err
}

// AverageRatingByBook returns the mean rating for a book, 0.0 when it has
// no reviews.
func (r *Repository) AverageRatingByBook(bookID uint) (float64, error) {
	var avg *float64
	err := r.db.Model(&entities.Review{}).
		Where("book_id = ?", bookID).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0.0, nil
	}
	return *avg, nil
}

// CountByUser returns the number of reviews authored by a user.
func (r *Repository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Review{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// AverageRatingByUser returns the mean rating the user has given, or nil
// when they have no reviews.
func (r *Repository) AverageRatingByUser(userID uint) (*float64, error) {
	var avg *float64
	err := r.db.Model(&entities.Review{}).
		Where("user_id = ?", userID).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	return avg, nil
}
