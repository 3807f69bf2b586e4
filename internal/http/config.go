package http

import (
	"github.com/booklogapp/booklog/internal/auth"
	"github.com/booklogapp/booklog/internal/catalog"
	"github.com/booklogapp/booklog/internal/database"
	"github.com/booklogapp/booklog/internal/library"
	"github.com/booklogapp/booklog/internal/review"
	"github.com/booklogapp/booklog/internal/stats"
)

// RouterConfig carries every dependency the router needs, so NewRouter
// stays a single-parameter call and tests can swap pieces out.
type RouterConfig struct {
	Database *database.Database

	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware

	Catalog        *catalog.Resolver
	LibraryService *library.Service
	ReviewService  *review.Service
	StatsService   *stats.Service

	MetadataProvider MetadataProvider

	Version string
}
