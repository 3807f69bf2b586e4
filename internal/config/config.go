package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		GoogleBooks
		Tasks
		CatalogSync
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Auth struct {
		JWTSecret   string
		TokenExpiry time.Duration
		BcryptCost  int
	}

	GoogleBooks struct {
		BaseURL string
		APIKey  string
		Timeout time.Duration
	}

	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}

	// CatalogSync controls the scheduled re-fetch of stored book metadata.
	CatalogSync struct {
		Enabled  bool
		Schedule string // Cron format: "0 4 * * *" = daily at 04:00
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_jwt_secret", "") // Auto-generated if empty (tokens won't survive restarts)
	v.SetDefault("auth_token_expiry", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)

	// Google Books API defaults
	v.SetDefault("google_books_base_url", "https://www.googleapis.com/books/v1")
	v.SetDefault("google_books_api_key", "")
	v.SetDefault("google_books_timeout", "10s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Catalog sync defaults
	v.SetDefault("catalog_sync_enabled", false)
	v.SetDefault("catalog_sync_schedule", "0 4 * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			JWTSecret:   v.GetString("AUTH_JWT_SECRET"),
			TokenExpiry: v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:  v.GetInt("AUTH_BCRYPT_COST"),
		},
		GoogleBooks: GoogleBooks{
			BaseURL: v.GetString("GOOGLE_BOOKS_BASE_URL"),
			APIKey:  v.GetString("GOOGLE_BOOKS_API_KEY"),
			Timeout: v.GetDuration("GOOGLE_BOOKS_TIMEOUT"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		CatalogSync: CatalogSync{
			Enabled:  v.GetBool("CATALOG_SYNC_ENABLED"),
			Schedule: v.GetString("CATALOG_SYNC_SCHEDULE"),
		},
	}
}
