package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	DatabaseURL string `yaml:"database_url"`
	CORSOrigins string `yaml:"cors_origins"`

	// Queue
	QueueDriver string `yaml:"queue_driver"` // "redis" or "sync"
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	QueueKey    string `yaml:"queue_key"`

	// Storage
	StorageDriver  string `yaml:"storage_driver"` // "disk" or "s3"
	StorageRoot    string `yaml:"storage_root"`
	StorageBaseURL string `yaml:"storage_base_url"`
	S3Endpoint     string `yaml:"s3_endpoint"`
	S3Region       string `yaml:"s3_region"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3PathStyle    bool   `yaml:"s3_path_style"`

	// Auth
	AuthSecret   string `yaml:"auth_secret"`   // HMAC secret for owner API tokens
	ServiceToken string `yaml:"service_token"` // static bearer token for the asset endpoints

	// Library behavior
	PreviewMaxItems     int    `yaml:"preview_max_items"`
	PreviewThumbSize    int    `yaml:"preview_thumb_size"`
	PreviewThumbQuality int    `yaml:"preview_thumb_quality"`
	PreviewThumbFormat  string `yaml:"preview_thumb_format"`
	MaxFileSize         int64  `yaml:"max_file_size"`
}

// Load builds the configuration from environment variables, optionally
// overlaid on a YAML file named in CONFIG_FILE. Environment values win over
// file values so deployments can override a checked-in config.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                "8080",
		Environment:         "dev",
		CORSOrigins:         "http://localhost:3000",
		QueueDriver:         "redis",
		RedisAddr:           "localhost:6379",
		QueueKey:            "library:jobs",
		StorageDriver:       "disk",
		StorageRoot:         "storage/assets",
		StorageBaseURL:      "/assets",
		S3Region:            "us-east-1",
		PreviewMaxItems:     4,
		PreviewThumbSize:    512,
		PreviewThumbQuality: 80,
		PreviewThumbFormat:  "jpeg",
		MaxFileSize:         10 << 20,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)

	cfg.QueueDriver = getEnv("QUEUE_DRIVER", cfg.QueueDriver)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.QueueKey = getEnv("QUEUE_KEY", cfg.QueueKey)

	cfg.StorageDriver = getEnv("STORAGE_DRIVER", cfg.StorageDriver)
	cfg.StorageRoot = getEnv("STORAGE_ROOT", cfg.StorageRoot)
	cfg.StorageBaseURL = getEnv("STORAGE_BASE_URL", cfg.StorageBaseURL)
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3PathStyle = getEnvBool("S3_PATH_STYLE", cfg.S3PathStyle)

	cfg.AuthSecret = getEnv("AUTH_SECRET", cfg.AuthSecret)
	cfg.ServiceToken = getEnv("ASSETS_TOKEN", cfg.ServiceToken)

	cfg.PreviewMaxItems = getEnvInt("PREVIEW_MAX_ITEMS", cfg.PreviewMaxItems)
	cfg.PreviewThumbSize = getEnvInt("PREVIEW_THUMB_SIZE", cfg.PreviewThumbSize)
	cfg.PreviewThumbQuality = getEnvInt("PREVIEW_THUMB_QUALITY", cfg.PreviewThumbQuality)
	cfg.PreviewThumbFormat = getEnv("PREVIEW_THUMB_FORMAT", cfg.PreviewThumbFormat)
	cfg.MaxFileSize = getEnvInt64("ASSETS_MAX_FILE_SIZE", cfg.MaxFileSize)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
