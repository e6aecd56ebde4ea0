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
	Port string
	Env  string // development, production

	// Database configuration
	DBType        string // mysql, postgres, sqlite, sqlserver
	DBHost        string
	DBPort        string
	DBName        string
	DBUser        string
	DBPassword    string
	DBMaxConns    int
	DBMinIdle     int
	DBIdleTimeout time.Duration
	DBProbeEvery  time.Duration

	// Upload storage
	UploadDir   string
	MaxFileSize int64

	// Auth
	JWTSecret  string
	JWTExpires time.Duration

	// CORS allow-list
	CORSOrigins []string
}

// Load loads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "5001"),
		Env:           getEnv("ENV", "development"),
		DBType:        getEnv("DB_TYPE", "postgres"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBName:        getEnv("DB_NAME", "advodocs_db"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", ""),
		DBMaxConns:    getEnvAsInt("DB_MAX_CONNS", 10),
		DBMinIdle:     getEnvAsInt("DB_MIN_IDLE", 2),
		DBIdleTimeout: getEnvAsDuration("DB_IDLE_TIMEOUT", 60*time.Second),
		DBProbeEvery:  getEnvAsDuration("DB_PROBE_INTERVAL", 30*time.Second),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		MaxFileSize:   getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpires:    getEnvAsDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}

	// Validate required fields
	if cfg.DBName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	if cfg.JWTSecret == "" {
		if cfg.Env != "development" {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE must be positive")
	}

	return cfg, nil
}

// Development reports whether the service runs in development mode. Error
// details are only exposed to clients in this mode.
func (c *Config) Development() bool {
	return c.Env == "development"
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration syntax ("30s") or a bare number of
// seconds.
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

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
