package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/booklogapp/booklog/internal/apperrors"
	"github.com/booklogapp/booklog/internal/catalog"
	"github.com/booklogapp/booklog/internal/database/books"
	"github.com/booklogapp/booklog/internal/metadata"
)

// BookFetcher is the slice of the metadata client the refresh tasks need.
type BookFetcher interface {
	FetchByID(ctx context.Context, googleBooksID string) (*metadata.BookSummary, error)
}

// RefreshBookTask re-fetches one stored book's metadata from the provider
// and overwrites the catalog row with the result.
type RefreshBookTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for single-book refresh tasks.
func (t RefreshBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshBookProcessor creates a processor function for RefreshBookTask.
// Transient provider failures return an error so the queue retries them;
// a book deleted from the catalog or the provider is logged and dropped.
func RefreshBookProcessor(booksRepo *books.Repository, resolver *catalog.Resolver, fetcher BookFetcher) backlite.QueueProcessor[RefreshBookTask] {
	return func(ctx context.Context, task RefreshBookTask) error {
		book, err := booksRepo.GetByID(task.BookID)
		if err != nil {
			return fmt.Errorf("load book %d: %w", task.BookID, err)
		}
		if book == nil {
			log.Printf("[TASK] Book %d no longer exists, skipping refresh", task.BookID)
			return nil
		}

		summary, err := fetcher.FetchByID(ctx, book.GoogleBooksID)
		if err != nil {
			// A 404 from the provider is permanent; retrying won't help.
			if errors.Is(err, metadata.ErrBookNotFound) {
				log.Printf("[TASK] Provider no longer knows book %s, skipping refresh", book.GoogleBooksID)
				return nil
			}
			return fmt.Errorf("fetch metadata for book %s: %w", book.GoogleBooksID, err)
		}

		if _, err := resolver.Refresh(book.GoogleBooksID, summary); err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				log.Printf("[TASK] Book %s removed during refresh, skipping", book.GoogleBooksID)
				return nil
			}
			return fmt.Errorf("refresh book %s: %w", book.GoogleBooksID, err)
		}

		log.Printf("[TASK] Refreshed metadata for book %d (%s)", task.BookID, summary.Title)
		return nil
	}
}

// NewRefreshBookQueue creates a backlite queue for single-book refresh tasks.
func NewRefreshBookQueue(booksRepo *books.Repository, resolver *catalog.Resolver, fetcher BookFetcher) backlite.Queue {
	return backlite.NewQueue(RefreshBookProcessor(booksRepo, resolver, fetcher))
}
