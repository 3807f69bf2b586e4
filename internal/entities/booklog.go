package entities

import (
	"math"
	"time"
)

// ReadingStatus tracks where a user is with a book in their library.
type ReadingStatus string

const (
	StatusWantToRead ReadingStatus = "WANT_TO_READ"
	StatusReading    ReadingStatus = "READING"
	StatusCompleted  ReadingStatus = "COMPLETED"
)

// Valid reports whether s is one of the known reading statuses.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusCompleted:
		return true
	}
	return false
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Book is a canonical catalog record, keyed by the identifier assigned by
// the external metadata provider. One row per book regardless of how many
// users track it.
type Book struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	GoogleBooksID string     `gorm:"uniqueIndex;size:100" json:"google_books_id"`
	Title         string     `gorm:"size:512" json:"title"`
	Authors       string     `gorm:"type:text" json:"authors,omitempty"`
	Publisher     string     `gorm:"size:256" json:"publisher,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	// PageCount is nil when the provider does not know the length.
	// Unknown is not the same as zero: page validation and progress
	// both special-case it.
	PageCount    *int      `json:"page_count,omitempty"`
	ThumbnailURL string    `gorm:"size:512" json:"thumbnail_url,omitempty"`
	ISBN         string    `gorm:"size:20" json:"isbn,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserBook is one user's reading record for one book.
// At most one row per (user, book) pair, enforced by a unique index so a
// racing duplicate insert fails at the storage layer.
type UserBook struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      uint          `gorm:"uniqueIndex:uniq_user_book;index" json:"user_id"`
	BookID      uint          `gorm:"uniqueIndex:uniq_user_book;index" json:"book_id"`
	Status      ReadingStatus `gorm:"size:20" json:"status"`
	CurrentPage int           `gorm:"default:0" json:"current_page"`
	Memo        string        `gorm:"type:text" json:"memo,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	User        User          `gorm:"foreignKey:UserID" json:"-"`
	Book        Book          `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ApplyStatus sets the status and its side effects. Entering READING stamps
// StartedAt on first entry only; entering COMPLETED stamps CompletedAt and
// snaps CurrentPage to the full page count when it is known. Timestamps are
// high-water marks: moving back to WANT_TO_READ or READING never clears them.
func (ub *UserBook) ApplyStatus(status ReadingStatus, now time.Time) {
	ub.Status = status

	switch status {
	case StatusReading:
		if ub.StartedAt == nil {
			ub.StartedAt = &now
		}
	case StatusCompleted:
		ub.CompletedAt = &now
		if ub.Book.PageCount != nil {
			ub.CurrentPage = *ub.Book.PageCount
		}
	}
}

// Progress returns the percentage of the book read, rounded to two decimal
// places. Returns 0.0 when the page count is unknown or zero.
// Requires ub.Book to be loaded.
func (ub *UserBook) Progress() float64 {
	if ub.Book.PageCount == nil || *ub.Book.PageCount == 0 {
		return 0.0
	}
	pct := float64(ub.CurrentPage) / float64(*ub.Book.PageCount) * 100
	return math.Round(pct*100) / 100
}

// Review is one user's review of one book, independent of whether the book
// is in the user's library. At most one per (user, book) pair.
type Review struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex:uniq_user_review;index" json:"user_id"`
	BookID         uint      `gorm:"uniqueIndex:uniq_user_review;index" json:"book_id"`
	Rating         int       `json:"rating"`
	OneLineReview  string    `gorm:"size:500" json:"one_line_review"`
	DetailedReview string    `gorm:"type:text" json:"detailed_review,omitempty"`
	User           User      `gorm:"foreignKey:UserID" json:"-"`
	Book           Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (UserBook) TableName() string {
	return "user_books"
}

func (Review) TableName() string {
	return "reviews"
}
