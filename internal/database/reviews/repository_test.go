package reviews

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/booklogapp/booklog/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{}, &entities.Book{}, &entities.Review{})
	require.NoError(t, err)

	return db
}

func seedBook(t *testing.T, db *gorm.DB, googleID string) *entities.Book {
	book := &entities.Book{GoogleBooksID: googleID, Title: "Book " + googleID}
	require.NoError(t, db.Create(book).Error)
	return book
}

func TestRepository_Create_DuplicatePair(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	book := seedBook(t, db, "vol-1")

	first := &entities.Review{UserID: 1, BookID: book.ID, Rating: 4, OneLineReview: "good"}
	require.NoError(t, repo.Create(first))

	dup := &entities.Review{UserID: 1, BookID: book.ID, Rating: 2, OneLineReview: "changed my mind"}
	assert.ErrorIs(t, repo.Create(dup), gorm.ErrDuplicatedKey)

	other := &entities.Review{UserID: 2, BookID: book.ID, Rating: 5, OneLineReview: "great"}
	assert.NoError(t, repo.Create(other))
}

func TestRepository_ListByBook_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	book := seedBook(t, db, "vol-1")

	for i := 1; i <= 3; i++ {
		review := &entities.Review{UserID: uint(i), BookID: book.ID, Rating: i, OneLineReview: "r"}
		require.NoError(t, repo.Create(review))
	}

	list, total, err := repo.ListByBook(book.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 3)

	page, total, err := repo.ListByBook(book.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}

func TestRepository_AverageRatingByBook(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	book := seedBook(t, db, "vol-1")

	require.NoError(t, repo.Create(&entities.Review{UserID: 1, BookID: book.ID, Rating: 4, OneLineReview: "r"}))
	require.NoError(t, repo.Create(&entities.Review{UserID: 2, BookID: book.ID, Rating: 5, OneLineReview: "r"}))

	avg, err := repo.AverageRatingByBook(book.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, avg, 0.001)

	empty, err := repo.AverageRatingByBook(9999)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty)
}

func TestRepository_AverageRatingByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	bookA := seedBook(t, db, "vol-a")
	bookB := seedBook(t, db, "vol-b")

	require.NoError(t, repo.Create(&entities.Review{UserID: 1, BookID: bookA.ID, Rating: 3, OneLineReview: "r"}))
	require.NoError(t, repo.Create(&entities.Review{UserID: 1, BookID: bookB.ID, Rating: 4, OneLineReview: "r"}))

	avg, err := repo.AverageRatingByUser(1)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 3.5, *avg, 0.001)

	none, err := repo.AverageRatingByUser(42)
	require.NoError(t, err)
	assert.Nil(t, none, "a user with no reviews has no average, not a zero one")
}

func TestRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	book := seedBook(t, db, "vol-1")

	review := &entities.Review{UserID: 1, BookID: book.ID, Rating: 4, OneLineReview: "r"}
	require.NoError(t, repo.Create(review))

	require.NoError(t, repo.Delete(review.ID))

	gone, err := repo.GetByID(review.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRepository_ExistsByUserAndBook(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	book := seedBook(t, db, "vol-1")

	exists, err := repo.ExistsByUserAndBook(1, book.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(&entities.Review{UserID: 1, BookID: book.ID, Rating: 5, OneLineReview: "r"}))

	exists, err = repo.ExistsByUserAndBook(1, book.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}
