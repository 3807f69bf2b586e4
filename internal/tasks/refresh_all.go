package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/booklogapp/booklog/internal/database/books"
)

// RefreshAllBooksTask fans out one RefreshBookTask per stored book. The
// per-book tasks carry their own retries, so the fan-out itself runs once.
type RefreshAllBooksTask struct{}

// Config returns the queue configuration for the refresh fan-out task.
func (t RefreshAllBooksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_all_books",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshAllBooksProcessor creates a processor function for
// RefreshAllBooksTask. It enqueues the per-book tasks through the same
// client it runs on.
func RefreshAllBooksProcessor(booksRepo *books.Repository, client *Client) backlite.QueueProcessor[RefreshAllBooksTask] {
	return func(ctx context.Context, task RefreshAllBooksTask) error {
		ids, err := booksRepo.ListIDs()
		if err != nil {
			return fmt.Errorf("list catalog books: %w", err)
		}
		if len(ids) == 0 {
			log.Println("[TASK] Catalog is empty, nothing to refresh")
			return nil
		}

		perBook := make([]backlite.Task, 0, len(ids))
		for _, id := range ids {
			perBook = append(perBook, RefreshBookTask{BookID: id})
		}
		if _, err := client.Add(perBook...).Ctx(ctx).Save(); err != nil {
			return fmt.Errorf("enqueue %d refresh tasks: %w", len(perBook), err)
		}

		log.Printf("[TASK] Enqueued metadata refresh for %d books", len(ids))
		return nil
	}
}

// NewRefreshAllBooksQueue creates a backlite queue for the refresh fan-out.
func NewRefreshAllBooksQueue(booksRepo *books.Repository, client *Client) backlite.Queue {
	return backlite.NewQueue(RefreshAllBooksProcessor(booksRepo, client))
}
