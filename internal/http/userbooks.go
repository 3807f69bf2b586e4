package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/booklogapp/booklog/internal/catalog"
	"github.com/booklogapp/booklog/internal/entities"
	"github.com/booklogapp/booklog/internal/library"
	"github.com/booklogapp/booklog/internal/metadata"
)

// UserBooksController manages the authenticated user's reading records.
type UserBooksController struct {
	library  *library.Service
	catalog  *catalog.Resolver
	provider MetadataProvider
}

func NewUserBooksController(libraryService *library.Service, resolver *catalog.Resolver, provider MetadataProvider) *UserBooksController {
	return &UserBooksController{
		library:  libraryService,
		catalog:  resolver,
		provider: provider,
	}
}

type createUserBookRequest struct {
	GoogleBooksID string `json:"google_books_id" binding:"required"`
	Status        string `json:"status" binding:"required"`
	CurrentPage   *int   `json:"current_page"`
	Memo          string `json:"memo"`
}

type updateUserBookRequest struct {
	Status      *string `json:"status"`
	CurrentPage *int    `json:"current_page"`
	Memo        *string `json:"memo"`
}

// userBookResponse augments the stored record with the derived progress
// percentage.
type userBookResponse struct {
	*entities.UserBook
	Progress float64 `json:"progress"`
}

func toUserBookResponse(entry *entities.UserBook) userBookResponse {
	return userBookResponse{UserBook: entry, Progress: entry.Progress()}
}

// Create adds a book to the user's library. The provider is only consulted
// when the book is not yet in the catalog.
// POST /api/userbooks
func (uc *UserBooksController) Create(c *gin.Context) {
	var req createUserBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "google_books_id and status are required")
		return
	}

	// For a stored book the resolver only needs the id; a full provider
	// summary is needed only to create the catalog row.
	summary := metadata.BookSummary{GoogleBooksID: req.GoogleBooksID}
	_, err := uc.catalog.FindByGoogleBooksID(req.GoogleBooksID)
	if errors.Is(err, catalog.ErrBookNotFound) {
		fetched, fetchErr := uc.provider.FetchByID(c.Request.Context(), req.GoogleBooksID)
		if fetchErr != nil {
			respondDomainError(c, fetchErr, "fetch book metadata")
			return
		}
		summary = *fetched
	} else if err != nil {
		respondInternalError(c, err, "look up stored book")
		return
	}

	entry, err := uc.library.AddToLibrary(GetUserID(c), library.AddParams{
		Status:      entities.ReadingStatus(req.Status),
		CurrentPage: req.CurrentPage,
		Memo:        req.Memo,
		Book:        summary,
	})
	if err != nil {
		respondDomainError(c, err, "add book to library")
		return
	}

	respondCreated(c, toUserBookResponse(entry))
}

// List returns a page of the user's reading records, optionally filtered by
// status and ordered by the sort query parameter.
// GET /api/userbooks?status=&page=&size=&sort=
func (uc *UserBooksController) List(c *gin.Context) {
	page, size := parsePagination(c)

	params := library.ListParams{
		Page: page,
		Size: size,
		Sort: c.Query("sort"),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := entities.ReadingStatus(statusStr)
		params.Status = &status
	}

	entries, total, err := uc.library.ListUserBooks(GetUserID(c), params)
	if err != nil {
		respondDomainError(c, err, "list reading records")
		return
	}

	data := make([]userBookResponse, 0, len(entries))
	for i := range entries {
		data = append(data, toUserBookResponse(&entries[i]))
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:  data,
		Total: total,
		Page:  page,
		Size:  size,
	})
}

// Get returns one of the user's reading records.
// GET /api/userbooks/:id
func (uc *UserBooksController) Get(c *gin.Context) {
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entry, err := uc.library.GetUserBook(GetUserID(c), entryID)
	if err != nil {
		respondDomainError(c, err, "get reading record")
		return
	}
	c.JSON(http.StatusOK, toUserBookResponse(entry))
}

// Update applies a partial update to a reading record. Absent fields are
// left unchanged.
// PATCH /api/userbooks/:id
func (uc *UserBooksController) Update(c *gin.Context) {
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateUserBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	params := library.UpdateParams{
		CurrentPage: req.CurrentPage,
		Memo:        req.Memo,
	}
	if req.Status != nil {
		status := entities.ReadingStatus(*req.Status)
		params.Status = &status
	}

	entry, err := uc.library.UpdateUserBook(GetUserID(c), entryID, params)
	if err != nil {
		respondDomainError(c, err, "update reading record")
		return
	}
	c.JSON(http.StatusOK, toUserBookResponse(entry))
}

// Delete removes a reading record and any review the user wrote for the
// same book.
// DELETE /api/userbooks/:id
func (uc *UserBooksController) Delete(c *gin.Context) {
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := uc.library.Remove(GetUserID(c), entryID); err != nil {
		respondDomainError(c, err, "remove reading record")
		return
	}
	c.Status(http.StatusNoContent)
}
