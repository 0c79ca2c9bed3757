package config

import (
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
)

// DefaultSnippetMaxSize is used when SNIPPET_MAX_SIZE is unset or unparsable.
const DefaultSnippetMaxSize = 64 * units.KB

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// SnippetConfig holds limits applied to snippet content.
type SnippetConfig struct {
	// MaxSize is the largest accepted code body, in bytes.
	MaxSize          int64
	PresignExpirySec int
}

// PresignExpiry returns the lifetime of raw download URLs.
func (c SnippetConfig) PresignExpiry() time.Duration {
	return time.Duration(c.PresignExpirySec) * time.Second
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost            string
	Port               string
	Timezone           string
	ShutdownTimeoutSec int
	Database           DatabaseConfig
	MinIO              MinIOConfig
	Snippet            SnippetConfig
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ShutdownTimeout bounds graceful shutdown.
func (c *AppConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:            getEnv("APP_HOST", "localhost:8080"),
		Port:               getEnv("PORT", "8080"),
		Timezone:           getEnv("APP_TIMEZONE", "UTC"),
		ShutdownTimeoutSec: getEnvInt("SHUTDOWN_TIMEOUT_SEC", 10),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "snippets"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Snippet: SnippetConfig{
			MaxSize:          getEnvSize("SNIPPET_MAX_SIZE", DefaultSnippetMaxSize),
			PresignExpirySec: getEnvInt("SNIPPET_PRESIGN_EXPIRY_SEC", 300),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvSize accepts human sizes such as "64KB" or "1MiB".
func getEnvSize(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		n, err := units.FromHumanSize(v)
		if err == nil && n > 0 {
			return n
		}
	}
	return def
}
