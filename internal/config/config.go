package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Service configuration
	ServicePort   string
	ServiceName   string
	PublicBaseURL string

	// Upload handling
	StorageBackend string // "local" or "minio"
	UploadDir      string
	DataDir        string
	MaxUploadMB    int

	// Rate limiting
	RateLimitMax           int
	RateLimitWindowSeconds int

	// Thumbnail generation
	ThumbnailTimeoutSeconds int

	// MinIO configuration
	MinIOEndpoint   string
	MinIOAccessKey  string
	MinIOSecretKey  string
	MinIOBucketName string
	MinIOUseSSL     bool

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Jaeger configuration
	JaegerEndpoint string
}

// LoadConfig loads configuration from environment variables with sensible defaults
func LoadConfig() (*Config, error) {
	config := &Config{
		// Service defaults
		ServicePort:   getEnv("SERVICE_PORT", "8080"),
		ServiceName:   getEnv("SERVICE_NAME", "mediabin-service"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		// Upload defaults
		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		DataDir:        getEnv("DATA_DIR", "data"),
		MaxUploadMB:    getEnvAsInt("MAX_UPLOAD_MB", 64),

		// Rate limit defaults: 5 uploads per 10 minutes per client
		RateLimitMax:           getEnvAsInt("RATE_LIMIT_MAX", 5),
		RateLimitWindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 600),

		// Thumbnail defaults
		ThumbnailTimeoutSeconds: getEnvAsInt("THUMBNAIL_TIMEOUT_SECONDS", 15),

		// MinIO defaults
		MinIOEndpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucketName: getEnv("MINIO_BUCKET_NAME", "mediabin"),
		MinIOUseSSL:     getEnvAsBool("MINIO_USE_SSL", false),

		// Redis defaults; empty REDIS_HOST disables the listing cache
		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Jaeger defaults
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:4318"),
	}

	if config.StorageBackend != "local" && config.StorageBackend != "minio" {
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q (expected local or minio)", config.StorageBackend)
	}

	return config, nil
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// RedisEnabled reports whether the listing cache should be wired up
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// GetRateWindow returns the rate limit window as a duration
func (c *Config) GetRateWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// GetThumbnailTimeout returns the bound on a single thumbnail generation
func (c *Config) GetThumbnailTimeout() time.Duration {
	return time.Duration(c.ThumbnailTimeoutSeconds) * time.Second
}

// GetMaxUploadBytes returns the upload size cap in bytes
func (c *Config) GetMaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
