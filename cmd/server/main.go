package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"assetlib/internal/auth"
	"assetlib/internal/config"
	"assetlib/internal/handler"
	"assetlib/internal/jobs"
	"assetlib/internal/middleware"
	"assetlib/internal/repository/postgres"
	"assetlib/internal/service"
	"assetlib/internal/storage"
	"assetlib/internal/thumbnail"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"queue_driver", cfg.QueueDriver,
		"storage_driver", cfg.StorageDriver,
	)

	verifier, err := auth.NewHMACVerifier(cfg.AuthSecret, logger)
	if err != nil {
		log.Fatalf("Failed to create token verifier: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store, err := buildStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Logger: logger,
	}
	folderRepo := postgres.NewFolderRepository(repoConfig)
	assetRepo := postgres.NewAssetRepository(repoConfig)
	tokenRepo := postgres.NewFolderTokenRepository(repoConfig)

	// Queue driver. The sync scheduler runs jobs inline and is bound to the
	// dispatcher after the services exist.
	var scheduler jobs.Scheduler
	var syncScheduler *jobs.SyncScheduler
	if cfg.QueueDriver == "sync" {
		syncScheduler = jobs.NewSyncScheduler()
		scheduler = syncScheduler
	} else {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		scheduler = jobs.NewRedisScheduler(redisClient, cfg.QueueKey)
	}

	encoder, err := thumbnail.NewEncoder(cfg.PreviewThumbFormat)
	if err != nil {
		log.Fatalf("Failed to create thumbnail encoder: %v", err)
	}

	folderService := service.NewFolderService(service.FolderServiceConfig{
		Folders:   folderRepo,
		Assets:    assetRepo,
		Tx:        postgres.NewTransactionManager(pool),
		Scheduler: scheduler,
		Logger:    logger,
	})
	previewService := service.NewPreviewService(service.PreviewServiceConfig{
		Folders:   folderRepo,
		Assets:    assetRepo,
		Storage:   store,
		Encoder:   encoder,
		Scheduler: scheduler,
		Preview: service.PreviewConfig{
			MaxItems:  cfg.PreviewMaxItems,
			ThumbSize: cfg.PreviewThumbSize,
			Quality:   cfg.PreviewThumbQuality,
		},
		Logger: logger,
	})
	assetService := service.NewAssetService(service.AssetServiceConfig{
		Assets:      assetRepo,
		Folders:     folderRepo,
		Storage:     store,
		Scheduler:   scheduler,
		MaxFileSize: cfg.MaxFileSize,
		Logger:      logger,
	})
	tokenService := service.NewTokenService(service.TokenServiceConfig{
		Tokens:  tokenRepo,
		Folders: folderRepo,
		Logger:  logger,
	})

	if syncScheduler != nil {
		syncScheduler.Bind(jobs.NewDispatcher(folderService, previewService, logger))
	}

	folderHandler := handler.NewFolderHandler(folderService, previewService, tokenService, logger)
	assetHandler := handler.NewAssetHandler(assetService, cfg.MaxFileSize, logger)
	healthHandler := handler.NewHealthHandler(pool)

	logger.Info("services initialized")

	// Owner-facing folder API.
	v1 := http.NewServeMux()
	v1.HandleFunc("POST /api/v1/folders", folderHandler.Create)
	v1.HandleFunc("GET /api/v1/folders", folderHandler.List)
	v1.HandleFunc("GET /api/v1/folders/{id}", folderHandler.Get)
	v1.HandleFunc("PATCH /api/v1/folders/{id}", folderHandler.Rename)
	v1.HandleFunc("DELETE /api/v1/folders/{id}", folderHandler.Delete)
	v1.HandleFunc("POST /api/v1/folders/{id}/move", folderHandler.Move)
	v1.HandleFunc("POST /api/v1/folders/{id}/restore", folderHandler.Restore)
	v1.HandleFunc("GET /api/v1/folders/{id}/children", folderHandler.Children)
	v1.HandleFunc("GET /api/v1/folders/{id}/preview", folderHandler.Preview)
	v1.HandleFunc("POST /api/v1/folders/{id}/preview/toggle", folderHandler.TogglePreview)
	v1.HandleFunc("POST /api/v1/folders/{id}/tokens", folderHandler.CreateToken)

	// Programmatic asset API, authenticated by service or folder token.
	assets := http.NewServeMux()
	assets.HandleFunc("POST /api/assets/upload", assetHandler.Upload)
	assets.HandleFunc("GET /api/assets/list", assetHandler.List)
	assets.HandleFunc("DELETE /api/assets/file", assetHandler.Delete)
	assets.HandleFunc("POST /api/assets/{id}/move", assetHandler.Move)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Check)
	mux.Handle("/api/v1/", middleware.OwnerAuth(verifier, logger)(v1))
	mux.Handle("/api/assets/", middleware.ServiceOrFolderToken(cfg.ServiceToken, tokenService, logger)(assets))

	// Order: CORS → Recovery → Routes
	var root http.Handler = mux
	root = middleware.Recovery(logger)(root)
	root = cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// buildStorage picks the blob store from configuration.
func buildStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Storage(ctx, storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PathStyle: cfg.S3PathStyle,
			BaseURL:   cfg.StorageBaseURL,
		})
	}
	return storage.NewDiskStorage(cfg.StorageRoot, cfg.StorageBaseURL)
}
