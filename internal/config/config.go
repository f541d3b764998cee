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
	LogLevel string

	// API server
	Port         string
	SQLiteDBPath string

	// Sessions
	JWTSecret string
	TokenTTL  time.Duration

	// Gateway
	GatewayPort     string
	BackendAPIURL   string
	APIToken        string
	UpstreamTimeout time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration
}

func Load() *Config {
	return &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Port:         getEnv("SERVER_PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		GatewayPort:     getEnv("GATEWAY_PORT", "3000"),
		BackendAPIURL:   getEnv("BACKEND_API_URL", ""),
		APIToken:        getEnv("API_TOKEN", ""),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_expenses"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),
	}
}

// ValidateServer checks the settings the API server needs at startup.
func (c *Config) ValidateServer() error {
	var errs []string

	errs = appendPortErr(errs, "port", c.Port)

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		errs = append(errs, "JWT_SECRET too short: need at least 16 bytes")
	}
	if c.TokenTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}

	errs = c.appendAMQPErrs(errs)

	return combine(errs)
}

// ValidateGateway checks the settings the gateway needs at startup.
func (c *Config) ValidateGateway() error {
	var errs []string

	errs = appendPortErr(errs, "gateway port", c.GatewayPort)

	if c.BackendAPIURL == "" {
		errs = append(errs, "BACKEND_API_URL is required")
	} else if u, err := url.Parse(c.BackendAPIURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid BACKEND_API_URL '%s': %v", c.BackendAPIURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Sprintf("invalid BACKEND_API_URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if c.UpstreamTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid upstream timeout %v: must be at least 1 second", c.UpstreamTimeout))
	}

	return combine(errs)
}

// ValidateWorker checks the settings the export worker needs at startup.
func (c *Config) ValidateWorker() error {
	var errs []string

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	}
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP_URL is required for the export worker")
	}
	errs = c.appendAMQPErrs(errs)

	if c.SyncBatchSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	return combine(errs)
}

func (c *Config) appendAMQPErrs(errs []string) []string {
	if c.AMQPURL == "" {
		return errs
	}
	if u, err := url.Parse(c.AMQPURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
	}
	if c.AMQPExchange == "" {
		errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errs
}

func appendPortErr(errs []string, label, value string) []string {
	if port, err := strconv.Atoi(value); err != nil {
		errs = append(errs, fmt.Sprintf("invalid %s '%s': must be a number", label, value))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid %s %d: must be between 1 and 65535", label, port))
	}
	return errs
}

func combine(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
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
