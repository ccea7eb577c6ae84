package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Dashboard timezone; all "today" and month-window computations use
	// this zone regardless of the host clock.
	Timezone string

	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// Postgres
	DatabaseURL string

	// Redis (optional; empty selects the in-process LRU caches)
	RedisURL string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets backup
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Auth (single user)
	JWTSecret    string
	JWTTTL       time.Duration
	UserID       string
	UserEmail    string
	PasswordHash string

	// Derived view caches
	CacheSize int
	CacheTTL  time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8081"),
		Timezone: getEnv("TIMEZONE", "America/Sao_Paulo"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/vida.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		RedisURL:     getEnv("REDIS_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "vida"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "item_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Items"),

		JWTSecret:    getEnv("AUTH_JWT_SECRET", ""),
		JWTTTL:       getEnvDuration("AUTH_JWT_TTL", 24*time.Hour),
		UserID:       getEnv("AUTH_USER_ID", ""),
		UserEmail:    getEnv("AUTH_USER_EMAIL", ""),
		PasswordHash: getEnv("AUTH_PASSWORD_HASH", ""),

		CacheSize: getEnvInt("CACHE_SIZE", 128),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" && c.DatabaseURL == "" {
		errors = append(errors, "DATABASE_URL is required when using postgres backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.JWTSecret == "" {
		errors = append(errors, "AUTH_JWT_SECRET cannot be empty")
	}
	if c.UserID == "" {
		errors = append(errors, "AUTH_USER_ID cannot be empty")
	}
	if c.UserEmail == "" {
		errors = append(errors, "AUTH_USER_EMAIL cannot be empty")
	}
	if c.PasswordHash == "" {
		errors = append(errors, "AUTH_PASSWORD_HASH cannot be empty")
	} else if !strings.HasPrefix(c.PasswordHash, "$2") {
		errors = append(errors, "AUTH_PASSWORD_HASH must be a bcrypt hash")
	}

	if c.JWTTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid JWT TTL %v: must be at least 1 minute", c.JWTTTL))
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location resolves the configured timezone. Call Validate first; an
// unparseable zone falls back to UTC here.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
