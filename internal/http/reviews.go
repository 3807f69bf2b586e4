package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/booklogapp/booklog/internal/catalog"
	"github.com/booklogapp/booklog/internal/review"
)

// ReviewsController manages the review ledger. Reads are public; writes
// require the author.
type ReviewsController struct {
	reviews *review.Service
	catalog *catalog.Resolver
}

func NewReviewsController(reviewService *review.Service, resolver *catalog.Resolver) *ReviewsController {
	return &ReviewsController{
		reviews: reviewService,
		catalog: resolver,
	}
}

type createReviewRequest struct {
	BookID         uint   `json:"book_id" binding:"required"`
	Rating         int    `json:"rating" binding:"required"`
	OneLineReview  string `json:"one_line_review" binding:"required"`
	DetailedReview string `json:"detailed_review"`
}

type updateReviewRequest struct {
	Rating         *int    `json:"rating"`
	OneLineReview  *string `json:"one_line_review"`
	DetailedReview *string `json:"detailed_review"`
}

// Create authors a new review for a catalog book.
// POST /api/reviews
func (rc *ReviewsController) Create(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id, rating and one_line_review are required")
		return
	}

	created, err := rc.reviews.Create(GetUserID(c), review.CreateParams{
		BookID:         req.BookID,
		Rating:         req.Rating,
		OneLineReview:  req.OneLineReview,
		DetailedReview: req.DetailedReview,
	})
	if err != nil {
		respondDomainError(c, err, "create review")
		return
	}
	respondCreated(c, created)
}

// Get returns one review. Public.
// GET /api/reviews/:id
func (rc *ReviewsController) Get(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	found, err := rc.reviews.Get(reviewID)
	if err != nil {
		respondDomainError(c, err, "get review")
		return
	}
	c.JSON(http.StatusOK, found)
}

// Update applies a partial update to the caller's own review.
// PATCH /api/reviews/:id
func (rc *ReviewsController) Update(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	updated, err := rc.reviews.Update(GetUserID(c), reviewID, review.UpdateParams{
		Rating:         req.Rating,
		OneLineReview:  req.OneLineReview,
		DetailedReview: req.DetailedReview,
	})
	if err != nil {
		respondDomainError(c, err, "update review")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes the caller's own review.
// DELETE /api/reviews/:id
func (rc *ReviewsController) Delete(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.reviews.Delete(GetUserID(c), reviewID); err != nil {
		respondDomainError(c, err, "delete review")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListByBook returns a page of a stored book's reviews, newest first. Public.
// GET /api/books/:googleBooksId/reviews
func (rc *ReviewsController) ListByBook(c *gin.Context) {
	book, err := rc.catalog.FindByGoogleBooksID(c.Param("googleBooksId"))
	if err != nil {
		respondDomainError(c, err, "look up book for reviews")
		return
	}

	page, size := parsePagination(c)
	list, total, err := rc.reviews.ListByBook(book.ID, page, size)
	if err != nil {
		respondDomainError(c, err, "list book reviews")
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{Data: list, Total: total, Page: page, Size: size})
}

// ListByUser returns a page of a user's reviews, newest first. Public.
// GET /api/users/:id/reviews
func (rc *ReviewsController) ListByUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	page, size := parsePagination(c)
	list, total, err := rc.reviews.ListByUser(userID, page, size)
	if err != nil {
		respondDomainError(c, err, "list user reviews")
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{Data: list, Total: total, Page: page, Size: size})
}

// ListMine returns a page of the authenticated user's reviews.
// GET /api/reviews/me
func (rc *ReviewsController) ListMine(c *gin.Context) {
	page, size := parsePagination(c)
	list, total, err := rc.reviews.ListByUser(GetUserID(c), page, size)
	if err != nil {
		respondDomainError(c, err, "list own reviews")
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{Data: list, Total: total, Page: page, Size: size})
}
