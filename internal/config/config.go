package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tutorbill/internal/core"
	"tutorbill/internal/log"
)

type Config struct {
	// HTTP Server
	Port           string
	CORSOrigins    []string
	TrustedProxies []string
	RateLimit      int // mutating requests per client per minute

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string
	DatabaseURL  string
	SeedFile     string

	// Google Sheets
	SheetsSpreadsheetID   string
	SheetsName            string
	SheetsCredentialsFile string
	SheetsCredentialsJSON string
	SheetsAccessToken     string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Invoice generator
	InvoiceGeneratorURL string
	InvoiceTimeout      time.Duration
	InvoiceCacheSize    int
	InvoiceCacheTTL     time.Duration

	// Worker
	LedgerDBPath string

	// View
	InitialMonth    string // YYYY-MM, empty for the current month
	CleanupInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		CORSOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", nil),
		RateLimit:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tutorbill.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SeedFile:     getEnv("SEED_FILE", "./data/sessions.csv"),

		SheetsSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		SheetsName:            getEnv("GOOGLE_SHEET_NAME", "Sessions"),
		SheetsCredentialsFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		SheetsCredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		SheetsAccessToken:     getEnv("GOOGLE_ACCESS_TOKEN", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tutorbill"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "billing_events"),

		InvoiceGeneratorURL: getEnv("INVOICE_GENERATOR_URL", "http://localhost:8080"),
		InvoiceTimeout:      getEnvDuration("INVOICE_TIMEOUT", 30*time.Second),
		InvoiceCacheSize:    getEnvInt("INVOICE_CACHE_SIZE", 32),
		InvoiceCacheTTL:     getEnvDuration("INVOICE_CACHE_TTL", 10*time.Minute),

		LedgerDBPath: getEnv("LEDGER_DB_PATH", "./data/billing_events.db"),

		InitialMonth:    getEnv("INITIAL_MONTH", ""),
		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "postgres", "sheets"}
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

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(c.SQLiteDBPath); msg != "" {
			errors = append(errors, msg)
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// URL")
		}
	case "sheets":
		if c.SheetsSpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required when using sheets backend")
		}
		if c.SheetsAccessToken == "" && c.SheetsCredentialsJSON == "" && c.SheetsCredentialsFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "sheets backend needs GOOGLE_ACCESS_TOKEN, GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS")
		}
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

	if u, err := url.Parse(c.InvoiceGeneratorURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid invoice generator URL '%s': must be an absolute http(s) URL", c.InvoiceGeneratorURL))
	}
	if c.InvoiceTimeout < time.Second || c.InvoiceTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid invoice timeout %v: must be between 1s and 5m", c.InvoiceTimeout))
	}
	if c.InvoiceCacheSize < 0 || c.InvoiceCacheSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid invoice cache size %d: must be between 0 and 1000", c.InvoiceCacheSize))
	}
	if c.InvoiceCacheSize > 0 && c.InvoiceCacheTTL <= 0 {
		errors = append(errors, "invoice cache TTL must be positive when the cache is enabled")
	}

	if c.RateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimit))
	}
	if c.CleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cleanup interval %v: must be at least 1 second", c.CleanupInterval))
	}

	if c.InitialMonth != "" {
		if _, err := core.ParseMonth(c.InitialMonth); err != nil {
			errors = append(errors, fmt.Sprintf("invalid initial month '%s': %v", c.InitialMonth, err))
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks what the ledger worker needs.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	}
	if c.LedgerDBPath == "" {
		errors = append(errors, "LEDGER_DB_PATH cannot be empty")
	} else if msg := ensureDir(c.LedgerDBPath); msg != "" {
		errors = append(errors, msg)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// StartMonth is the month the view opens on.
func (c *Config) StartMonth(now time.Time) core.Month {
	if m, err := core.ParseMonth(c.InitialMonth); err == nil {
		return m
	}
	return core.MonthOf(now)
}

// ensureDir creates the parent directory of path if needed and returns a
// problem description on failure.
func ensureDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("cannot create database directory '%s': %v", dir, err)
		}
	}
	return ""
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

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
