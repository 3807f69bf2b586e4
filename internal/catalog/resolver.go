// Package catalog resolves external book references to canonical stored
// books. Books are created lazily on first reference and deduplicated by
// the provider id.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/booklogapp/booklog/internal/apperrors"
	"github.com/booklogapp/booklog/internal/database/books"
	"github.com/booklogapp/booklog/internal/entities"
	"github.com/booklogapp/booklog/internal/metadata"
)

var ErrBookNotFound = apperrors.NotFound("BOOK_001", "book not found")

// Resolver owns the catalog's idempotent upsert semantics.
type Resolver struct {
	books *books.Repository
}

// NewResolver creates a catalog resolver backed by the books repository.
func NewResolver(booksRepo *books.Repository) *Resolver {
	return &Resolver{books: booksRepo}
}

// Resolve returns the stored book for the given provider summary, creating
// it when absent. An existing book is returned unchanged — resolution never
// overwrites stored metadata, so curated edits survive stale provider data.
// Use Refresh for an explicit overwrite.
func (r *Resolver) Resolve(summary *metadata.BookSummary) (*entities.Book, error) {
	if summary == nil || summary.GoogleBooksID == "" {
		return nil, apperrors.Validation("BOOK_003", "external book reference is required")
	}

	existing, err := r.books.FindByGoogleBooksID(summary.GoogleBooksID)
	if err != nil {
		return nil, fmt.Errorf("look up book %s: %w", summary.GoogleBooksID, err)
	}
	if existing != nil {
		return existing, nil
	}

	book := bookFromSummary(summary)
	err = r.books.Create(book)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent first reference; the winner's row is
		// the canonical one.
		existing, err = r.books.FindByGoogleBooksID(summary.GoogleBooksID)
		if err != nil {
			return nil, fmt.Errorf("look up book %s after duplicate insert: %w", summary.GoogleBooksID, err)
		}
		if existing == nil {
			return nil, fmt.Errorf("book %s vanished after duplicate insert", summary.GoogleBooksID)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create book %s: %w", summary.GoogleBooksID, err)
	}

	return book, nil
}

// Refresh overwrites all mutable fields of an existing book with the
// supplied provider metadata. Overwrite, not merge: empty provider fields
// clear stored values.
func (r *Resolver) Refresh(googleBooksID string, summary *metadata.BookSummary) (*entities.Book, error) {
	book, err := r.books.FindByGoogleBooksID(googleBooksID)
	if err != nil {
		return nil, fmt.Errorf("look up book %s: %w", googleBooksID, err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	book.Title = summary.Title
	book.Authors = joinAuthors(summary.Authors)
	book.Publisher = summary.Publisher
	book.PublishedDate = summary.PublishedDate
	book.Description = summary.Description
	book.PageCount = summary.PageCount
	book.ThumbnailURL = summary.ThumbnailURL
	book.ISBN = summary.ISBN

	if err := r.books.Save(book); err != nil {
		return nil, fmt.Errorf("refresh book %s: %w", googleBooksID, err)
	}
	return book, nil
}

// GetByID retrieves a stored book, failing with NotFound when absent.
func (r *Resolver) GetByID(id uint) (*entities.Book, error) {
	book, err := r.books.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("look up book %d: %w", id, err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}

// FindByGoogleBooksID retrieves a stored book by provider id, failing with
// NotFound when absent.
func (r *Resolver) FindByGoogleBooksID(googleBooksID string) (*entities.Book, error) {
	book, err := r.books.FindByGoogleBooksID(googleBooksID)
	if err != nil {
		return nil, fmt.Errorf("look up book %s: %w", googleBooksID, err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}

func bookFromSummary(summary *metadata.BookSummary) *entities.Book {
	return &entities.Book{
		GoogleBooksID: summary.GoogleBooksID,
		Title:         summary.Title,
		Authors:       joinAuthors(summary.Authors),
		Publisher:     summary.Publisher,
		PublishedDate: summary.PublishedDate,
		Description:   summary.Description,
		PageCount:     summary.PageCount,
		ThumbnailURL:  summary.ThumbnailURL,
		ISBN:          summary.ISBN,
	}
}

func joinAuthors(authors []string) string {
	return strings.Join(authors, ", ")
}
