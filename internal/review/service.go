// Package review manages book reviews: uniqueness per (user, book), rating
// validation and author-only mutation. Reviews are publicly readable.
package review

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/booklogapp/booklog/internal/apperrors"
	"github.com/booklogapp/booklog/internal/catalog"
	"github.com/booklogapp/booklog/internal/database/reviews"
	"github.com/booklogapp/booklog/internal/database/users"
	"github.com/booklogapp/booklog/internal/entities"
)

var (
	ErrUserNotFound    = apperrors.NotFound("USER_001", "user not found")
	ErrReviewNotFound  = apperrors.NotFound("REVIEW_001", "review not found")
	ErrDuplicateReview = apperrors.Conflict("REVIEW_002", "a review for this book already exists")
	ErrInvalidRating   = apperrors.Validation("REVIEW_003", "rating must be between 1 and 5")
	ErrNotAuthor       = apperrors.Forbidden("REVIEW_004", "only the author may modify a review")
)

// CreateParams carries the fields for a new review. DetailedReview is
// optional and defaults to empty.
type CreateParams struct {
	BookID         uint
	Rating         int
	OneLineReview  string
	DetailedReview string
}

// UpdateParams carries the partial-update fields for a review. A nil field
// means "leave unchanged", never "clear".
type UpdateParams struct {
	Rating         *int
	OneLineReview  *string
	DetailedReview *string
}

// Service owns the review ledger.
type Service struct {
	reviews *reviews.Repository
	users   *users.Repository
	catalog *catalog.Resolver
}

// NewService creates a review service.
func NewService(reviewsRepo *reviews.Repository, usersRepo *users.Repository, resolver *catalog.Resolver) *Service {
	return &Service{
		reviews: reviewsRepo,
		users:   usersRepo,
		catalog: resolver,
	}
}

// Create authors a new review. Fails with Conflict when the user already
// reviewed the book — a racing duplicate insert surfaces identically via
// the (user, book) unique index.
func (s *Service) Create(userID uint, params CreateParams) (*entities.Review, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("look up user %d: %w", userID, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	book, err := s.catalog.GetByID(params.BookID)
	if err != nil {
		return nil, err
	}

	if err := validateRating(params.Rating); err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsByUserAndBook(userID, book.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	review := &entities.Review{
		UserID:         userID,
		BookID:         book.ID,
		Rating:         params.Rating,
		OneLineReview:  params.OneLineReview,
		DetailedReview: params.DetailedReview,
	}

	err = s.reviews.Create(review)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateReview
	}
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	return review, nil
}

// Update applies a partial update to the caller's own review.
func (s *Service) Update(userID, reviewID uint, params UpdateParams) (*entities.Review, error) {
	review, err := s.authoredReview(userID, reviewID)
	if err != nil {
		return nil, err
	}

	if params.Rating != nil {
		if err := validateRating(*params.Rating); err != nil {
			return nil, err
		}
		review.Rating = *params.Rating
	}
	if params.OneLineReview != nil {
		review.OneLineReview = *params.OneLineReview
	}
	if params.DetailedReview != nil {
		review.DetailedReview = *params.DetailedReview
	}

	if err := s.reviews.Save(review); err != nil {
		return nil, fmt.Errorf("save review %d: %w", reviewID, err)
	}
	return review, nil
}

// Delete removes the caller's own review.
func (s *Service) Delete(userID, reviewID uint) error {
	review, err := s.authoredReview(userID, reviewID)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(review.ID); err != nil {
		return fmt.Errorf("delete review %d: %w", reviewID, err)
	}
	return nil
}

// Get returns one review. No ownership check: reviews are public reads.
func (s *Service) Get(reviewID uint) (*entities.Review, error) {
	review, err := s.reviews.GetByID(reviewID)
	if err != nil {
		return nil, fmt.Errorf("look up review %d: %w", reviewID, err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

// ListByBook returns a page of a book's reviews, newest first. Fails with
// NotFound when the book is not in the catalog.
func (s *Service) ListByBook(bookID uint, page, size int) ([]entities.Review, int64, error) {
	if _, err := s.catalog.GetByID(bookID); err != nil {
		return nil, 0, err
	}
	limit, offset := pageBounds(page, size)
	return s.reviews.ListByBook(bookID, limit, offset)
}

// ListByUser returns a page of a user's reviews, newest first.
func (s *Service) ListByUser(userID uint, page, size int) ([]entities.Review, int64, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("look up user %d: %w", userID, err)
	}
	if user == nil {
		return nil, 0, ErrUserNotFound
	}
	limit, offset := pageBounds(page, size)
	return s.reviews.ListByUser(userID, limit, offset)
}

// AverageRating returns the mean rating of a book's reviews, 0.0 if none.
func (s *Service) AverageRating(bookID uint) (float64, error) {
	return s.reviews.AverageRatingByBook(bookID)
}

// Count returns the number of reviews for a book.
func (s *Service) Count(bookID uint) (int64, error) {
	return s.reviews.CountByBook(bookID)
}

func (s *Service) authoredReview(userID, reviewID uint) (*entities.Review, error) {
	review, err := s.reviews.GetByID(reviewID)
	if err != nil {
		return nil, fmt.Errorf("look up review %d: %w", reviewID, err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	if review.UserID != userID {
		return nil, ErrNotAuthor
	}
	return review, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating.WithMessagef("rating must be between 1 and 5, got %d", rating)
	}
	return nil
}

func pageBounds(page, size int) (limit, offset int) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	return size, page * size
}
