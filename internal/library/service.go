// Package library manages per-user reading records: the status state
// machine, page-progress validation, auto-completion and ownership checks.
package library

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/booklogapp/booklog/internal/apperrors"
	"github.com/booklogapp/booklog/internal/catalog"
	"github.com/booklogapp/booklog/internal/database/userbooks"
	"github.com/booklogapp/booklog/internal/database/users"
	"github.com/booklogapp/booklog/internal/entities"
	"github.com/booklogapp/booklog/internal/metadata"
)

var (
	ErrUserNotFound   = apperrors.NotFound("USER_001", "user not found")
	ErrEntryNotFound  = apperrors.NotFound("USER_BOOK_001", "reading record not found")
	ErrDuplicateEntry = apperrors.Conflict("USER_BOOK_002", "book is already in the library")
	ErrInvalidPage    = apperrors.Validation("USER_BOOK_003", "invalid page number")
	ErrInvalidStatus  = apperrors.Validation("USER_BOOK_004", "invalid reading status")
	ErrNotOwner       = apperrors.Forbidden("AUTH_004", "access denied")
)

// AddParams carries the optional fields for AddToLibrary with their
// defaults made explicit: CurrentPage defaults to 0, Memo to empty.
type AddParams struct {
	Status      entities.ReadingStatus
	CurrentPage *int
	Memo        string
	Book        metadata.BookSummary
}

// UpdateParams carries the partial-update fields for UpdateUserBook. A nil
// field means "leave unchanged".
type UpdateParams struct {
	Status      *entities.ReadingStatus
	CurrentPage *int
	Memo        *string
}

// ListParams selects and orders a page of reading records.
type ListParams struct {
	Status *entities.ReadingStatus
	Page   int
	Size   int
	Sort   string
}

// Service coordinates reading records with the catalog and the review
// ledger's compensating cleanup.
type Service struct {
	db        *gorm.DB
	userBooks *userbooks.Repository
	users     *users.Repository
	catalog   *catalog.Resolver

	now func() time.Time
}

// NewService creates a library service.
func NewService(db *gorm.DB, userBooksRepo *userbooks.Repository, usersRepo *users.Repository, resolver *catalog.Resolver) *Service {
	return &Service{
		db:        db,
		userBooks: userBooksRepo,
		users:     usersRepo,
		catalog:   resolver,
		now:       time.Now,
	}
}

// AddToLibrary resolves the referenced book and creates a reading record
// for it. Fails with Conflict when the user already tracks the book —
// including when two requests race, via the (user, book) unique index.
func (s *Service) AddToLibrary(userID uint, params AddParams) (*entities.UserBook, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("look up user %d: %w", userID, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if !params.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	book, err := s.catalog.Resolve(&params.Book)
	if err != nil {
		return nil, err
	}

	exists, err := s.userBooks.ExistsByUserAndBook(userID, book.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing record: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEntry
	}

	currentPage := 0
	if params.CurrentPage != nil {
		currentPage = *params.CurrentPage
	}
	if err := validatePage(currentPage, book.PageCount); err != nil {
		return nil, err
	}

	entry := &entities.UserBook{
		UserID:      userID,
		BookID:      book.ID,
		CurrentPage: currentPage,
		Memo:        params.Memo,
		Book:        *book,
	}
	// A record created directly as COMPLETED gets its completion side
	// effects at creation time.
	entry.ApplyStatus(params.Status, s.now())

	err = s.userBooks.Create(entry)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateEntry
	}
	if err != nil {
		return nil, fmt.Errorf("create reading record: %w", err)
	}

	return entry, nil
}

// GetUserBook returns one reading record, enforcing ownership.
func (s *Service) GetUserBook(userID, entryID uint) (*entities.UserBook, error) {
	return s.ownedEntry(userID, entryID)
}

// ListUserBooks returns a page of the user's reading records.
func (s *Service) ListUserBooks(userID uint, params ListParams) ([]entities.UserBook, int64, error) {
	if params.Size <= 0 {
		params.Size = 20
	}
	if params.Page < 0 {
		params.Page = 0
	}
	if params.Status != nil && !params.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.userBooks.ListByUser(userID, params.Status, params.Size, params.Page*params.Size, params.Sort)
}

// UpdateUserBook applies a partial update. The page change is applied
// before the status change, so an auto-completion triggered by the page can
// be superseded by an explicitly requested status in the same call.
func (s *Service) UpdateUserBook(userID, entryID uint, params UpdateParams) (*entities.UserBook, error) {
	entry, err := s.ownedEntry(userID, entryID)
	if err != nil {
		return nil, err
	}

	if params.CurrentPage != nil {
		if err := s.applyCurrentPage(entry, *params.CurrentPage); err != nil {
			return nil, err
		}
	}

	if params.Status != nil {
		if !params.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		entry.ApplyStatus(*params.Status, s.now())
	}

	if params.Memo != nil {
		entry.Memo = *params.Memo
	}

	if err := s.userBooks.Save(entry); err != nil {
		return nil, fmt.Errorf("save reading record %d: %w", entryID, err)
	}
	return entry, nil
}

// Remove deletes a reading record and, in the same transaction, any review
// the user wrote for the same book. The review is linked only by the shared
// (user, book) pair, so this is an explicit compensating delete rather than
// a structural cascade.
func (s *Service) Remove(userID, entryID uint) error {
	entry, err := s.ownedEntry(userID, entryID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND book_id = ?", userID, entry.BookID).
			Delete(&entities.Review{})
		if result.Error != nil {
			return fmt.Errorf("delete review for book %d: %w", entry.BookID, result.Error)
		}
		if result.RowsAffected > 0 {
			log.Printf("Deleted review of user %d for book %d along with the reading record", userID, entry.BookID)
		}

		if err := tx.Delete(&entities.UserBook{}, entry.ID).Error; err != nil {
			return fmt.Errorf("delete reading record %d: %w", entry.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Removed book %d from the library of user %d", entry.BookID, userID)
	return nil
}

// applyCurrentPage validates and sets the page, then auto-completes when
// the page reaches a known page count. Setting the page to the maximum and
// completing agree on the final page, so the order is immaterial there.
func (s *Service) applyCurrentPage(entry *entities.UserBook, page int) error {
	if err := validatePage(page, entry.Book.PageCount); err != nil {
		return err
	}

	entry.CurrentPage = page

	if entry.Book.PageCount != nil && page == *entry.Book.PageCount {
		entry.ApplyStatus(entities.StatusCompleted, s.now())
	}
	return nil
}

func (s *Service) ownedEntry(userID, entryID uint) (*entities.UserBook, error) {
	entry, err := s.userBooks.GetByID(entryID)
	if err != nil {
		return nil, fmt.Errorf("look up reading record %d: %w", entryID, err)
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if entry.UserID != userID {
		return nil, ErrNotOwner
	}
	return entry, nil
}

// validatePage rejects negative pages always, and pages beyond the page
// count when it is known. An unknown page count imposes no upper bound.
func validatePage(page int, pageCount *int) error {
	if page < 0 {
		return ErrInvalidPage.WithMessagef("current page must not be negative, got %d", page)
	}
	if pageCount != nil && page > *pageCount {
		return ErrInvalidPage.WithMessagef("current page %d exceeds total pages %d", page, *pageCount)
	}
	return nil
}
