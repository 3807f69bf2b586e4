package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/booklogapp/booklog/internal/apperrors"
	"github.com/booklogapp/booklog/internal/catalog"
	"github.com/booklogapp/booklog/internal/database/books"
	"github.com/booklogapp/booklog/internal/entities"
	"github.com/booklogapp/booklog/internal/metadata"
)

type stubFetcher struct {
	summary *metadata.BookSummary
	err     error
	calls   int
}

func (s *stubFetcher) FetchByID(ctx context.Context, googleBooksID string) (*metadata.BookSummary, error) {
	s.calls++
	return s.summary, s.err
}

func setupRefresh(t *testing.T) (*books.Repository, *catalog.Resolver, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Book{}))

	repo := books.NewRepository(db)
	return repo, catalog.NewResolver(repo), db
}

func intPtr(v int) *int {
	return &v
}

func TestRefreshBookProcessor_OverwritesMetadata(t *testing.T) {
	repo, resolver, db := setupRefresh(t)

	book := &entities.Book{GoogleBooksID: "vol-1", Title: "Stale Title"}
	require.NoError(t, db.Create(book).Error)

	fetcher := &stubFetcher{summary: &metadata.BookSummary{
		GoogleBooksID: "vol-1",
		Title:         "Fresh Title",
		PageCount:     intPtr(300),
	}}

	process := RefreshBookProcessor(repo, resolver, fetcher)
	require.NoError(t, process(context.Background(), RefreshBookTask{BookID: book.ID}))

	refreshed, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh Title", refreshed.Title)
	require.NotNil(t, refreshed.PageCount)
	assert.Equal(t, 300, *refreshed.PageCount)
}

func TestRefreshBookProcessor_MissingBookIsDropped(t *testing.T) {
	repo, resolver, _ := setupRefresh(t)

	fetcher := &stubFetcher{}
	process := RefreshBookProcessor(repo, resolver, fetcher)

	// A deleted book is not an error: retrying would never succeed.
	assert.NoError(t, process(context.Background(), RefreshBookTask{BookID: 9999}))
	assert.Zero(t, fetcher.calls)
}

func TestRefreshBookProcessor_Provider404IsDropped(t *testing.T) {
	repo, resolver, db := setupRefresh(t)

	book := &entities.Book{GoogleBooksID: "vol-1", Title: "Gone"}
	require.NoError(t, db.Create(book).Error)

	fetcher := &stubFetcher{err: metadata.ErrBookNotFound}
	process := RefreshBookProcessor(repo, resolver, fetcher)

	assert.NoError(t, process(context.Background(), RefreshBookTask{BookID: book.ID}))

	// Stored metadata stays as it was
	kept, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gone", kept.Title)
}

func TestRefreshBookProcessor_GatewayErrorRetries(t *testing.T) {
	repo, resolver, db := setupRefresh(t)

	book := &entities.Book{GoogleBooksID: "vol-1", Title: "Flaky"}
	require.NoError(t, db.Create(book).Error)

	fetcher := &stubFetcher{err: apperrors.Gateway("BOOK_002", "provider unreachable", nil)}
	process := RefreshBookProcessor(repo, resolver, fetcher)

	// Transient failures must surface so the queue retries them.
	assert.Error(t, process(context.Background(), RefreshBookTask{BookID: book.ID}))
}
