package main

import (
	"context"
	"database/sql"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/nutritracker/client/internal/app"
	"github.com/nutritracker/client/internal/config"
	"github.com/nutritracker/client/internal/handlers"
	"github.com/nutritracker/client/internal/logger"
	"github.com/nutritracker/client/internal/middlewares"
	"github.com/nutritracker/client/internal/repositories"
	"github.com/nutritracker/client/internal/services"
	"github.com/nutritracker/client/internal/storage"
	"github.com/nutritracker/client/internal/views"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// repository is the full persistence surface used by the services
type repository interface {
	services.AccountRepository
	services.CalendarRepository
	services.EntryRepository
	services.MealRepository
	services.TargetRepository
	services.AdminRepository
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting NutriTracker client",
		zap.String("storage", cfg.Storage.Mode),
		zap.String("backend", cfg.Storage.Backend),
	)

	// Initialize persistence
	repo, closeRepo, err := newRepository(context.Background(), cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer closeRepo()

	// Initialize services
	sessionService := services.NewSessionService(repo, logger.Logger)
	calendarService := services.NewCalendarService(repo, time.Now, logger.Logger)
	trackerService := services.NewTrackerService(repo, repo, repo, time.Now, logger.Logger)
	adminService := services.NewAdminService(repo, logger.Logger)

	controller := app.NewController(sessionService, calendarService, trackerService, adminService, time.Now, logger.Logger)

	renderer, err := views.NewRenderer()
	if err != nil {
		logger.Logger.Fatal("Failed to parse templates", zap.Error(err))
	}

	// Initialize handlers
	var csrfField func(r *http.Request) template.HTML
	if cfg.CSRFKey != nil {
		csrfField = middlewares.CSRFField
	}
	pageHandler := handlers.NewPageHandler(controller, renderer, csrfField, cfg.RateLimit.AuthPerMinute, logger.Logger)
	apiHandler := handlers.NewAPIHandler(controller, cfg.CORS.AllowedOrigins, cfg.Storage.Mode, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestID)
	r.Use(middlewares.Logger(logger.Logger))
	r.Use(middlewares.Recovery(logger.Logger))
	r.Use(middlewares.RequestSizeLimit(middlewares.DefaultMaxRequestSize))

	apiHandler.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		if cfg.CSRFKey != nil {
			r.Use(middlewares.CSRF(cfg.CSRFKey, []string{cfg.Addr()}))
		}
		pageHandler.RegisterRoutes(r)
	})

	// Start server
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.Storage.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	controller.Logout()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// newRepository builds the persistence adapter selected by the configuration
//
// The returned func releases connections held by the adapter.
func newRepository(ctx context.Context, cfg *config.Config) (repository, func(), error) {
	noop := func() {}
	if cfg.Storage.Mode == config.StorageRemote {
		client := &http.Client{Timeout: cfg.Storage.APITimeout}
		return repositories.NewRemoteRepository(cfg.Storage.APIBaseURL, client, cfg.Targets, cfg.CalendarConcurrency, logger.Logger), noop, nil
	}

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, noop, err
	}
	return repositories.NewLocalRepository(store, cfg.Targets, cfg.AdminUsernames, logger.Logger), closeStore, nil
}

// newStore opens the key-value backend of the local variant
func newStore(ctx context.Context, cfg *config.Config) (repositories.KeyValueStore, func(), error) {
	noop := func() {}
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return storage.NewRedisStore(client, "nutritracker:"), func() { _ = client.Close() }, nil

	case config.BackendMySQL:
		db, err := connectDB("mysql", cfg.DSN())
		if err != nil {
			return nil, noop, err
		}
		if err := storage.RunMigrations(db, "migrations"); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return storage.NewSQLStore(db, storage.DialectMySQL), func() { _ = db.Close() }, nil

	case config.BackendSQLite:
		db, err := connectDB("sqlite", cfg.Storage.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
		if err := storage.EnsureSQLiteSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return storage.NewSQLStore(db, storage.DialectSQLite), func() { _ = db.Close() }, nil

	default:
		return storage.NewFileStore(cfg.Storage.DataDir), noop, nil
	}
}

// connectDB opens and pings a database
func connectDB(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
