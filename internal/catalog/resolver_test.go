package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/booklogapp/booklog/internal/apperrors"
	"github.com/booklogapp/booklog/internal/database/books"
	"github.com/booklogapp/booklog/internal/entities"
	"github.com/booklogapp/booklog/internal/metadata"
)

func setupResolver(t *testing.T) (*Resolver, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Book{}))

	return NewResolver(books.NewRepository(db)), db
}

func intPtr(v int) *int {
	return &v
}

func sampleSummary() *metadata.BookSummary {
	published := time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
	return &metadata.BookSummary{
		GoogleBooksID: "vol-dune",
		Title:         "Dune",
		Authors:       []string{"Frank Herbert"},
		Publisher:     "Chilton Books",
		PublishedDate: &published,
		Description:   "Desert planet",
		PageCount:     intPtr(412),
		ThumbnailURL:  "https://example.com/dune.jpg",
		ISBN:          "9780441013593",
	}
}

func TestResolver_Resolve_CreatesBook(t *testing.T) {
	resolver, _ := setupResolver(t)

	book, err := resolver.Resolve(sampleSummary())
	require.NoError(t, err)
	assert.NotZero(t, book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Frank Herbert", book.Authors)
	require.NotNil(t, book.PageCount)
	assert.Equal(t, 412, *book.PageCount)
}

func TestResolver_Resolve_JoinsMultipleAuthors(t *testing.T) {
	resolver, _ := setupResolver(t)

	summary := sampleSummary()
	summary.Authors = []string{"Kernighan", "Ritchie"}

	book, err := resolver.Resolve(summary)
	require.NoError(t, err)
	assert.Equal(t, "Kernighan, Ritchie", book.Authors)
}

func TestResolver_Resolve_IdempotentNeverOverwrites(t *testing.T) {
	resolver, _ := setupResolver(t)

	first, err := resolver.Resolve(sampleSummary())
	require.NoError(t, err)

	// A second reference with different provider data must return the
	// stored row untouched.
	stale := sampleSummary()
	stale.Title = "Dune (retitled)"
	stale.PageCount = intPtr(999)

	second, err := resolver.Resolve(stale)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Dune", second.Title)
	assert.Equal(t, 412, *second.PageCount)
}

func TestResolver_Resolve_RequiresExternalID(t *testing.T) {
	resolver, _ := setupResolver(t)

	_, err := resolver.Resolve(nil)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = resolver.Resolve(&metadata.BookSummary{Title: "No ID"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestResolver_Refresh_OverwritesAllFields(t *testing.T) {
	resolver, _ := setupResolver(t)

	created, err := resolver.Resolve(sampleSummary())
	require.NoError(t, err)

	fresh := sampleSummary()
	fresh.Title = "Dune: Deluxe Edition"
	fresh.PageCount = intPtr(528)
	fresh.Description = ""

	refreshed, err := resolver.Refresh("vol-dune", fresh)
	require.NoError(t, err)
	assert.Equal(t, created.ID, refreshed.ID)
	assert.Equal(t, "Dune: Deluxe Edition", refreshed.Title)
	assert.Equal(t, 528, *refreshed.PageCount)
	assert.Empty(t, refreshed.Description, "refresh overwrites, empty provider fields clear stored values")
}

func TestResolver_Refresh_UnknownBook(t *testing.T) {
	resolver, _ := setupResolver(t)

	_, err := resolver.Refresh("vol-missing", sampleSummary())
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestResolver_GetByID(t *testing.T) {
	resolver, _ := setupResolver(t)

	created, err := resolver.Resolve(sampleSummary())
	require.NoError(t, err)

	found, err := resolver.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.GoogleBooksID, found.GoogleBooksID)

	_, err = resolver.GetByID(9999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestResolver_FindByGoogleBooksID(t *testing.T) {
	resolver, _ := setupResolver(t)

	_, err := resolver.FindByGoogleBooksID("vol-dune")
	assert.ErrorIs(t, err, ErrBookNotFound)

	created, err := resolver.Resolve(sampleSummary())
	require.NoError(t, err)

	found, err := resolver.FindByGoogleBooksID("vol-dune")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}
