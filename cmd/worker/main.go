// The worker process consumes the redis job queue and runs the folder
// consistency jobs: counter reconciliation and preview generation. It shares
// the server's configuration and wiring but exposes no HTTP surface.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"assetlib/internal/config"
	"assetlib/internal/jobs"
	"assetlib/internal/repository/postgres"
	"assetlib/internal/service"
	"assetlib/internal/storage"
	"assetlib/internal/thumbnail"
)

func main() {
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

	logger.Info("worker starting", "queue", cfg.QueueKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

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

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// The worker schedules follow-up jobs (counter propagation) back onto the
	// same queue it consumes.
	scheduler := jobs.NewRedisScheduler(redisClient, cfg.QueueKey)

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

	dispatcher := jobs.NewDispatcher(folderService, previewService, logger)
	worker := jobs.NewWorker(redisClient, cfg.QueueKey, dispatcher, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		logger.Info("signal received, stopping")
		cancel()
	}()

	if err := worker.Run(ctx); err != nil {
		log.Fatalf("Worker failed: %v", err)
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
