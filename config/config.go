package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL               string // if set, used as-is (e.g. postgres://localhost:5432/corpus?sslmode=disable)
	Host              string
	Port              string
	User              string
	Password          string
	DBName            string
	SSLMode           string
	MaxConns          int32
	ConnectTimeoutSec int
}

// StorageConfig holds S3/MinIO settings.
type StorageConfig struct {
	Region            string
	Endpoint          string
	AccessKeyID       string
	SecretAccessKey   string
	Bucket            string
	SkipCheck         bool // skip the boot-time storage configuration check
	CleanupOnConflict bool // best-effort delete of the uploaded object when the metadata insert conflicts
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	maxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	connectTimeout, _ := strconv.Atoi(getEnv("DB_CONNECT_TIMEOUT_SEC", "10"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "5000"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ORIGIN", "*"),
		},
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnv("DB_PORT", "5432"),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			DBName:            getEnv("DB_NAME", "corpus"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(maxConns),
			ConnectTimeoutSec: connectTimeout,
		},
		Storage: StorageConfig{
			Region:            getEnv("AWS_REGION", "us-east-1"),
			Endpoint:          getEnv("AWS_ENDPOINT", ""),
			AccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:            getEnv("AWS_BUCKET_NAME", ""),
			SkipCheck:         getEnvBool("SKIP_S3_CHECK", false),
			CleanupOnConflict: getEnvBool("STORAGE_CLEANUP_ON_CONFLICT", false),
		},
	}
	return cfg, nil
}

// Validate returns an error naming every missing required variable.
// The process must exit non-zero when this fails.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" && c.Database.Password == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Storage.AccessKeyID == "" {
		missing = append(missing, "AWS_ACCESS_KEY_ID")
	}
	if c.Storage.SecretAccessKey == "" {
		missing = append(missing, "AWS_SECRET_ACCESS_KEY")
	}
	if c.Storage.Bucket == "" {
		missing = append(missing, "AWS_BUCKET_NAME")
	}
	if c.Storage.Endpoint == "" {
		missing = append(missing, "AWS_ENDPOINT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
