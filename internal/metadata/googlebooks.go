// Package metadata fetches book metadata from the Google Books API.
//
// The client is a thin, non-caching gateway: failures and timeouts surface
// as gateway errors and are never retried here, so a caller that needs
// retries has to schedule them itself (the task queue does exactly that for
// catalog refreshes).
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/booklogapp/booklog/internal/apperrors"
	"github.com/booklogapp/booklog/internal/config"
)

var (
	ErrBookNotFound = apperrors.NotFound("BOOK_001", "book not found")
	ErrProvider     = apperrors.Gateway("BOOK_002", "book metadata provider error", nil)
)

// BookSummary is the provider-shaped view of one book, used both for search
// results and as the input to catalog resolution.
type BookSummary struct {
	GoogleBooksID string     `json:"google_books_id"`
	Title         string     `json:"title"`
	Authors       []string   `json:"authors,omitempty"`
	Publisher     string     `json:"publisher,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Description   string     `json:"description,omitempty"`
	PageCount     *int       `json:"page_count,omitempty"`
	ThumbnailURL  string     `json:"thumbnail_url,omitempty"`
	ISBN          string     `json:"isbn,omitempty"`
}

// SearchResult is one page of provider search results.
type SearchResult struct {
	Items      []BookSummary `json:"items"`
	TotalItems int           `json:"total_items"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
}

// GoogleBooksClient fetches book metadata from the Google Books volumes API.
type GoogleBooksClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewGoogleBooksClient creates a client from configuration. A zero timeout
// falls back to 10 seconds.
func NewGoogleBooksClient(cfg config.GoogleBooks) *GoogleBooksClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &GoogleBooksClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// Search queries the volumes endpoint. Pages are zero-based.
func (c *GoogleBooksClient) Search(ctx context.Context, query string, page, size int) (*SearchResult, error) {
	if query == "" {
		return nil, apperrors.Validation("BOOK_003", "search query is required")
	}
	if size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", fmt.Sprint(page*size))
	params.Set("maxResults", fmt.Sprint(size))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var body volumesResponse
	if err := c.getJSON(ctx, c.baseURL+"/volumes?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	result := &SearchResult{
		Items:      make([]BookSummary, 0, len(body.Items)),
		TotalItems: body.TotalItems,
		Page:       page,
		Size:       size,
	}
	for i := range body.Items {
		result.Items = append(result.Items, convertVolume(&body.Items[i]))
	}
	return result, nil
}

// FetchByID retrieves one volume by its provider id. Returns
// ErrBookNotFound when the provider does not know the id.
func (c *GoogleBooksClient) FetchByID(ctx context.Context, googleBooksID string) (*BookSummary, error) {
	if googleBooksID == "" {
		return nil, apperrors.Validation("BOOK_003", "book id is required")
	}

	reqURL := c.baseURL + "/volumes/" + url.PathEscape(googleBooksID)
	if c.apiKey != "" {
		reqURL += "?key=" + url.QueryEscape(c.apiKey)
	}

	var item volumeItem
	if err := c.getJSON(ctx, reqURL, &item); err != nil {
		return nil, err
	}
	summary := convertVolume(&item)
	return &summary, nil
}

func (c *GoogleBooksClient) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Gateway("BOOK_002", "book metadata provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrBookNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.Gateway("BOOK_002",
			fmt.Sprintf("book metadata provider returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Gateway("BOOK_002", "decode provider response", err)
	}
	return nil
}

func convertVolume(item *volumeItem) BookSummary {
	summary := BookSummary{
		GoogleBooksID: item.ID,
		Title:         item.VolumeInfo.Title,
		Authors:       item.VolumeInfo.Authors,
		Publisher:     item.VolumeInfo.Publisher,
		Description:   item.VolumeInfo.Description,
		PublishedDate: parsePublishedDate(item.VolumeInfo.PublishedDate),
		ThumbnailURL:  pickThumbnail(item.VolumeInfo.ImageLinks),
		ISBN:          pickISBN(item.VolumeInfo.IndustryIdentifiers),
	}
	// The API reports 0 for unknown lengths; keep that distinct from a real
	// page count.
	if item.VolumeInfo.PageCount > 0 {
		pages := item.VolumeInfo.PageCount
		summary.PageCount = &pages
	}
	return summary
}

var (
	fullDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	yearMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearPattern      = regexp.MustCompile(`^\d{4}$`)
)

// parsePublishedDate handles the three formats the API emits: YYYY-MM-DD,
// YYYY-MM and YYYY. Partial dates are anchored to the first day.
func parsePublishedDate(dateStr string) *time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return nil
	}

	switch {
	case yearMonthPattern.MatchString(dateStr):
		dateStr += "-01"
	case yearPattern.MatchString(dateStr):
		dateStr += "-01-01"
	case !fullDatePattern.MatchString(dateStr):
		return nil
	}

	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil
	}
	return &t
}

// pickThumbnail prefers the larger thumbnail and upgrades to https, since
// the API still hands out http URLs.
func pickThumbnail(links *imageLinks) string {
	if links == nil {
		return ""
	}
	thumb := links.Thumbnail
	if thumb == "" {
		thumb = links.SmallThumbnail
	}
	return strings.Replace(thumb, "http://", "https://", 1)
}

// pickISBN prefers ISBN-13 over ISBN-10.
func pickISBN(identifiers []industryIdentifier) string {
	for _, id := range identifiers {
		if id.Type == "ISBN_13" {
			return id.Identifier
		}
	}
	for _, id := range identifiers {
		if id.Type == "ISBN_10" {
			return id.Identifier
		}
	}
	return ""
}

// Google Books API response types (internal)

type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	PageCount           int                  `json:"pageCount"`
	ImageLinks          *imageLinks          `json:"imageLinks"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}
