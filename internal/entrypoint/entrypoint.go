// Package entrypoint wires the application together and owns the server
// lifecycle.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/booklogapp/booklog/internal/auth"
	"github.com/booklogapp/booklog/internal/catalog"
	"github.com/booklogapp/booklog/internal/config"
	"github.com/booklogapp/booklog/internal/database"
	"github.com/booklogapp/booklog/internal/database/books"
	"github.com/booklogapp/booklog/internal/database/reviews"
	"github.com/booklogapp/booklog/internal/database/userbooks"
	"github.com/booklogapp/booklog/internal/database/users"
	"github.com/booklogapp/booklog/internal/library"
	"github.com/booklogapp/booklog/internal/metadata"
	"github.com/booklogapp/booklog/internal/review"
	"github.com/booklogapp/booklog/internal/stats"
	"github.com/booklogapp/booklog/internal/tasks"

	http_controllers "github.com/booklogapp/booklog/internal/http"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down within
// the configured timeout. The shutdown callback runs first so background
// workers stop before in-flight requests are drained.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run builds every component from configuration and serves until shutdown.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting booklog v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Repositories
	booksRepo := books.NewRepository(db.DB)
	userBooksRepo := userbooks.NewRepository(db.DB)
	reviewsRepo := reviews.NewRepository(db.DB)
	usersRepo := users.NewRepository(db.DB)

	// Metadata provider and catalog
	googleBooks := metadata.NewGoogleBooksClient(cfg.GoogleBooks)
	resolver := catalog.NewResolver(booksRepo)

	// Token signing secret; generated secrets do not survive restarts
	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = auth.GenerateSecret()
		if err != nil {
			log.Fatalf("Failed to generate JWT secret: %v", err)
		}
		log.Printf("Generated JWT secret (set AUTH_JWT_SECRET to persist sessions across restarts)")
	}
	tokenIssuer := auth.NewTokenIssuer(jwtSecret, cfg.Auth.TokenExpiry)
	authService := auth.NewService(usersRepo, tokenIssuer, cfg.Auth)
	authMiddleware := auth.NewMiddleware(tokenIssuer)

	// Domain services
	libraryService := library.NewService(db.DB, userBooksRepo, usersRepo, resolver)
	reviewService := review.NewService(reviewsRepo, usersRepo, resolver)
	statsService := stats.NewService(userBooksRepo, reviewsRepo)

	// Task queue for background catalog refresh
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewRefreshBookQueue(booksRepo, resolver, googleBooks),
			tasks.NewRefreshAllBooksQueue(booksRepo, taskClient),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Scheduled catalog refresh
	var scheduler *cron.Cron
	if cfg.CatalogSync.Enabled && taskClient != nil {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.CatalogSync.Schedule, func() {
			if _, err := taskClient.Add(tasks.RefreshAllBooksTask{}).Save(); err != nil {
				log.Printf("Failed to enqueue catalog refresh: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("Invalid catalog sync schedule %q: %v", cfg.CatalogSync.Schedule, err)
		}
		scheduler.Start()
		log.Printf("Catalog refresh scheduled: %s", cfg.CatalogSync.Schedule)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:         db,
		AuthService:      authService,
		AuthMiddleware:   authMiddleware,
		Catalog:          resolver,
		LibraryService:   libraryService,
		ReviewService:    reviewService,
		StatsService:     statsService,
		MetadataProvider: googleBooks,
		Version:          version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if scheduler != nil {
			scheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
