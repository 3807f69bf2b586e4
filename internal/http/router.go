package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Reads of books and reviews are public; everything touching a user's own
// library, reviews or stats sits behind the auth middleware.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	authController := NewAuthController(cfg.AuthService)
	booksController := NewBooksController(cfg.MetadataProvider, cfg.Catalog, cfg.ReviewService)
	userBooksController := NewUserBooksController(cfg.LibraryService, cfg.Catalog, cfg.MetadataProvider)
	reviewsController := NewReviewsController(cfg.ReviewService, cfg.Catalog)
	statsController := NewStatsController(cfg.StatsService)

	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Public endpoints
	router.POST("/api/auth/register", authController.Register)
	router.POST("/api/auth/login", authController.Login)

	router.GET("/api/books/search", booksController.Search)
	router.GET("/api/books/:googleBooksId", booksController.Detail)
	router.GET("/api/books/:googleBooksId/reviews", reviewsController.ListByBook)

	router.GET("/api/reviews/:id", reviewsController.Get)
	router.GET("/api/users/:id/reviews", reviewsController.ListByUser)

	// Authenticated endpoints
	authed := router.Group("/api", cfg.AuthMiddleware.RequireAuth())

	authed.GET("/auth/me", authController.Me)

	authed.POST("/userbooks", userBooksController.Create)
	authed.GET("/userbooks", userBooksController.List)
	authed.GET("/userbooks/:id", userBooksController.Get)
	authed.PATCH("/userbooks/:id", userBooksController.Update)
	authed.DELETE("/userbooks/:id", userBooksController.Delete)

	authed.POST("/reviews", reviewsController.Create)
	authed.GET("/reviews/me", reviewsController.ListMine)
	authed.PATCH("/reviews/:id", reviewsController.Update)
	authed.DELETE("/reviews/:id", reviewsController.Delete)

	authed.GET("/stats/me", statsController.Me)

	return router
}
