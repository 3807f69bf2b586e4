// Package stats computes read-only per-user roll-ups from the library and
// review state. Nothing here mutates.
package stats

import (
	"fmt"
	"math"

	"github.com/booklogapp/booklog/internal/database/reviews"
	"github.com/booklogapp/booklog/internal/database/userbooks"
	"github.com/booklogapp/booklog/internal/entities"
)

// BookInfo is the summary view of a book attached to the recent-activity
// fields of UserStats.
type BookInfo struct {
	BookID        uint   `json:"book_id"`
	GoogleBooksID string `json:"google_books_id"`
	Title         string `json:"title"`
	Authors       string `json:"authors,omitempty"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
	PageCount     *int   `json:"page_count,omitempty"`
}

// UserStats is the full per-user roll-up.
type UserStats struct {
	TotalBooks      int64     `json:"total_books"`
	ReadingBooks    int64     `json:"reading_books"`
	CompletedBooks  int64     `json:"completed_books"`
	WantToReadBooks int64     `json:"want_to_read_books"`
	TotalReviews    int64     `json:"total_reviews"`
	AverageRating   float64   `json:"average_rating"`
	TotalPagesRead  int64     `json:"total_pages_read"`
	ReadingProgress float64   `json:"reading_progress"`
	LastCompleted   *BookInfo `json:"last_completed_book,omitempty"`
	CurrentlyReading *BookInfo `json:"currently_reading,omitempty"`
}

// Service aggregates library and review state.
type Service struct {
	userBooks *userbooks.Repository
	reviews   *reviews.Repository
}

// NewService creates a stats service.
func NewService(userBooksRepo *userbooks.Repository, reviewsRepo *reviews.Repository) *Service {
	return &Service{
		userBooks: userBooksRepo,
		reviews:   reviewsRepo,
	}
}

// GetUserStats computes the user's reading and review roll-up. A user with
// no records gets zero counts, 0.0 averages and absent recent activity.
func (s *Service) GetUserStats(userID uint) (*UserStats, error) {
	stats := &UserStats{}

	var err error
	if stats.TotalBooks, err = s.userBooks.CountByUser(userID); err != nil {
		return nil, fmt.Errorf("count library entries: %w", err)
	}
	if stats.ReadingBooks, err = s.userBooks.CountByUserAndStatus(userID, entities.StatusReading); err != nil {
		return nil, fmt.Errorf("count reading entries: %w", err)
	}
	if stats.CompletedBooks, err = s.userBooks.CountByUserAndStatus(userID, entities.StatusCompleted); err != nil {
		return nil, fmt.Errorf("count completed entries: %w", err)
	}
	if stats.WantToReadBooks, err = s.userBooks.CountByUserAndStatus(userID, entities.StatusWantToRead); err != nil {
		return nil, fmt.Errorf("count want-to-read entries: %w", err)
	}

	if stats.TotalReviews, err = s.reviews.CountByUser(userID); err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	avgRating, err := s.reviews.AverageRatingByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("average review rating: %w", err)
	}
	if avgRating != nil {
		stats.AverageRating = *avgRating
	}

	if stats.TotalPagesRead, err = s.userBooks.SumCompletedPages(userID); err != nil {
		return nil, fmt.Errorf("sum completed pages: %w", err)
	}

	if stats.ReadingProgress, err = s.overallProgress(userID); err != nil {
		return nil, err
	}

	lastCompleted, err := s.userBooks.LatestCompleted(userID)
	if err != nil {
		return nil, fmt.Errorf("find last completed entry: %w", err)
	}
	stats.LastCompleted = bookInfo(lastCompleted)

	currentlyReading, err := s.userBooks.LatestReading(userID)
	if err != nil {
		return nil, fmt.Errorf("find currently reading entry: %w", err)
	}
	stats.CurrentlyReading = bookInfo(currentlyReading)

	return stats, nil
}

// overallProgress averages the per-book progress of READING entries whose
// page count is known. Entries with an unknown page count are excluded from
// both sides of the average rather than counted as 0%.
func (s *Service) overallProgress(userID uint) (float64, error) {
	reading, err := s.userBooks.ListReadingWithBook(userID)
	if err != nil {
		return 0, fmt.Errorf("list reading entries: %w", err)
	}

	var sum float64
	var n int
	for i := range reading {
		if reading[i].Book.PageCount == nil {
			continue
		}
		sum += reading[i].Progress()
		n++
	}
	if n == 0 {
		return 0.0, nil
	}
	return math.Round(sum/float64(n)*100) / 100, nil
}

func bookInfo(entry *entities.UserBook) *BookInfo {
	if entry == nil {
		return nil
	}
	return &BookInfo{
		BookID:        entry.BookID,
		GoogleBooksID: entry.Book.GoogleBooksID,
		Title:         entry.Book.Title,
		Authors:       entry.Book.Authors,
		ThumbnailURL:  entry.Book.ThumbnailURL,
		PageCount:     entry.Book.PageCount,
	}
}
