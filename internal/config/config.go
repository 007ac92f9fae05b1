package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port         string
	RateLimitMax int

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBConnectionLimit int
	DBLogLevel        string

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// File store configuration
	FileStore     string // http, oss
	UploadURL     string
	UploadPreset  string
	UploadTimeout time.Duration

	OSSEndpoint        string
	OSSAccessKeyID     string
	OSSAccessKeySecret string
	OSSBucket          string
	OSSPrefix          string

	// Letter configuration
	LetterOrgName    string
	LetterOrgAddress string
	LetterSignatory  string
	LetterRefPrefix  string
	// TrueType files for letter text, empty uses the core cp1252 font
	LetterFont     string
	LetterFontBold string

	// Logging
	LogLevel  string
	LogFormat string

	// Cron schedule for the slot count audit, empty disables it
	SlotAuditSchedule string
}

// LoadEnv reads an optional .env file into the process environment
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		RateLimitMax:       getEnvAsInt("RATE_LIMIT_MAX", 120),
		DBType:             strings.ToLower(getEnv("DB_TYPE", "mysql")),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBDatabase:         getEnv("DB_DATABASE", ""),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBSSLMode:          getEnv("DB_SSL_MODE", "disable"),
		DBConnectionLimit:  getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		DBLogLevel:         getEnv("DB_LOG_LEVEL", "warn"),
		AuthzURL:           getEnv("AUTHZ_URL", ""),
		AuthzClientID:      getEnv("AUTHZ_CLIENT_ID", ""),
		FileStore:          strings.ToLower(getEnv("FILE_STORE", "http")),
		UploadURL:          getEnv("UPLOAD_URL", ""),
		UploadPreset:       getEnv("UPLOAD_PRESET", ""),
		UploadTimeout:      getEnvAsDuration("UPLOAD_TIMEOUT", 30*time.Second),
		OSSEndpoint:        getEnv("OSS_ENDPOINT", ""),
		OSSAccessKeyID:     getEnv("OSS_ACCESS_KEY_ID", ""),
		OSSAccessKeySecret: getEnv("OSS_ACCESS_KEY_SECRET", ""),
		OSSBucket:          getEnv("OSS_BUCKET", ""),
		OSSPrefix:          getEnv("OSS_PREFIX", "rcf/"),
		LetterOrgName:      getEnv("LETTER_ORG_NAME", "Training & Development Centre"),
		LetterOrgAddress:   getEnv("LETTER_ORG_ADDRESS", ""),
		LetterSignatory:    getEnv("LETTER_SIGNATORY", "Training Officer"),
		LetterRefPrefix:    getEnv("LETTER_REF_PREFIX", "RCF/TRG"),
		LetterFont:         getEnv("LETTER_FONT", ""),
		LetterFontBold:     getEnv("LETTER_FONT_BOLD", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		SlotAuditSchedule:  getEnv("SLOT_AUDIT_SCHEDULE", ""),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.AuthzURL == "" {
		return nil, fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return nil, fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}

	switch cfg.FileStore {
	case "http":
		if cfg.UploadURL == "" {
			return nil, fmt.Errorf("UPLOAD_URL is required")
		}
	case "oss":
		if cfg.OSSEndpoint == "" || cfg.OSSBucket == "" {
			return nil, fmt.Errorf("OSS_ENDPOINT and OSS_BUCKET are required")
		}
		if cfg.OSSAccessKeyID == "" || cfg.OSSAccessKeySecret == "" {
			return nil, fmt.Errorf("OSS_ACCESS_KEY_ID and OSS_ACCESS_KEY_SECRET are required")
		}
	default:
		return nil, fmt.Errorf("unsupported FILE_STORE: %s", cfg.FileStore)
	}

	return cfg, nil
}

// LoadDatabase loads only the database settings, for tooling that never serves requests
func LoadDatabase() (*Config, error) {
	cfg := &Config{
		DBType:            strings.ToLower(getEnv("DB_TYPE", "mysql")),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBSSLMode:         getEnv("DB_SSL_MODE", "disable"),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		DBLogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts a Go duration string or a number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
