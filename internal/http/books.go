package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/booklogapp/booklog/internal/catalog"
	"github.com/booklogapp/booklog/internal/metadata"
	"github.com/booklogapp/booklog/internal/review"
)

// MetadataProvider is the slice of the metadata client the controllers need.
type MetadataProvider interface {
	Search(ctx context.Context, query string, page, size int) (*metadata.SearchResult, error)
	FetchByID(ctx context.Context, googleBooksID string) (*metadata.BookSummary, error)
}

// BooksController serves provider search and book detail.
type BooksController struct {
	provider MetadataProvider
	catalog  *catalog.Resolver
	reviews  *review.Service
}

func NewBooksController(provider MetadataProvider, resolver *catalog.Resolver, reviewService *review.Service) *BooksController {
	return &BooksController{
		provider: provider,
		catalog:  resolver,
		reviews:  reviewService,
	}
}

// bookDetailResponse is the provider summary plus the stored aggregates,
// which are present only when the book is already in the catalog.
type bookDetailResponse struct {
	metadata.BookSummary
	BookID        *uint    `json:"book_id,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	ReviewCount   *int64   `json:"review_count,omitempty"`
}

// Search proxies a search query to the metadata provider.
// GET /api/books/search?q=&page=&size=
func (bc *BooksController) Search(c *gin.Context) {
	query := c.Query("q")
	page, size := parsePagination(c)

	result, err := bc.provider.Search(c.Request.Context(), query, page, size)
	if err != nil {
		respondDomainError(c, err, "search books")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Detail returns one book's provider metadata, merged with the catalog's
// review aggregates when the book is stored.
// GET /api/books/:googleBooksId
func (bc *BooksController) Detail(c *gin.Context) {
	googleBooksID := c.Param("googleBooksId")

	summary, err := bc.provider.FetchByID(c.Request.Context(), googleBooksID)
	if err != nil {
		respondDomainError(c, err, "fetch book detail")
		return
	}

	response := bookDetailResponse{BookSummary: *summary}

	book, err := bc.catalog.FindByGoogleBooksID(googleBooksID)
	if err != nil && !errors.Is(err, catalog.ErrBookNotFound) {
		respondInternalError(c, err, "look up stored book")
		return
	}
	if book != nil {
		avgRating, err := bc.reviews.AverageRating(book.ID)
		if err != nil {
			respondInternalError(c, err, "average book rating")
			return
		}
		count, err := bc.reviews.Count(book.ID)
		if err != nil {
			respondInternalError(c, err, "count book reviews")
			return
		}
		response.BookID = &book.ID
		response.AverageRating = &avgRating
		response.ReviewCount = &count
	}

	c.JSON(http.StatusOK, response)
}
