package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`

	// Postgres configuration
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_ssl_mode"`

	// Redis configuration (rendering-cache invalidation)
	RedisURL    string `json:"redis_url"`
	RedisPrefix string `json:"redis_prefix"`

	// Blob storage (S3-compatible, e.g. Cloudflare R2)
	BlobEndpoint   string `json:"blob_endpoint"`
	BlobAccessKey  string `json:"blob_access_key"`
	BlobSecretKey  string `json:"blob_secret_key"`
	BlobBucket     string `json:"blob_bucket"`
	BlobPublicHost string `json:"blob_public_host"`
	MaxUploadSize  int64  `json:"max_upload_size"`

	// Frontend revalidation webhook (optional)
	RevalidateURL    string `json:"revalidate_url"`
	RevalidateSecret string `json:"revalidate_secret"`

	// Listing
	PageSize int `json:"page_size"`

	// Logging
	LogLevel string `json:"log_level"`

	// Security
	AdminPassword string `json:"admin_password"`
	AdminAPIKey   string `json:"admin_api_key"`
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		// Postgres configuration
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "pressroom"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "pressroom"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis configuration
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix: getEnv("REDIS_PREFIX", "pressroom:"),

		// Blob storage
		BlobEndpoint:   getEnv("BLOB_ENDPOINT", ""),
		BlobAccessKey:  getEnv("BLOB_ACCESS_KEY", ""),
		BlobSecretKey:  getEnv("BLOB_SECRET_ACCESS_KEY", ""),
		BlobBucket:     getEnv("BLOB_BUCKET", "pressroom-media"),
		BlobPublicHost: getEnv("BLOB_PUBLIC_HOST", "media.calderaweb.com"),
		MaxUploadSize:  getEnvAsInt64("MAX_UPLOAD_SIZE", 10<<20), // 10MB

		// Revalidation webhook
		RevalidateURL:    getEnv("REVALIDATE_URL", ""),
		RevalidateSecret: getEnv("REVALIDATE_SECRET", ""),

		// Listing
		PageSize: getEnvAsInt("PAGE_SIZE", 10),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Security
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminAPIKey:   getEnv("ADMIN_API_KEY", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.AdminPassword == "" && c.Env != "development" {
		return fmt.Errorf("ADMIN_PASSWORD must be set outside development")
	}
	if c.BlobPublicHost == "" {
		return fmt.Errorf("BLOB_PUBLIC_HOST must be set")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be at least 1")
	}
	return nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsInt64(name string, defaultVal int64) int64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
