package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Data sources accepted by DATA_SOURCE.
const (
	SourceExcel  = "excel"
	SourceSheets = "sheets"
	SourceSQLite = "sqlite"
	SourceMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port      string
	LogLevel  string
	LogFormat string

	// Transactions
	DataSource       string
	TransactionsFile string
	SQLiteDBPath     string
	DatasetCacheTTL  time.Duration

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// User settings and reports
	UserSettingsFile string
	ReportsDir       string

	// Quotes
	APIKey            string
	APIURL            string
	StockAPIURL       string
	QuoteTimeout      time.Duration
	StockRequestDelay time.Duration
	QuoteCacheTTL     time.Duration
	QuoteCacheSize    int

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "5001"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		DataSource:       strings.ToLower(getEnv("DATA_SOURCE", SourceExcel)),
		TransactionsFile: getEnv("TRANSACTIONS_FILE", "data/operations.xlsx"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/finview.db"),
		DatasetCacheTTL:  getEnvDuration("DATASET_CACHE_TTL", 30*time.Second),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Operations"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		UserSettingsFile: getEnv("USER_SETTINGS_FILE", "user_settings.json"),
		ReportsDir:       getEnv("REPORTS_DIR", "reports"),

		APIKey:            getEnv("API_KEY", ""),
		APIURL:            getEnv("API_URL", "https://api.exchangerate-api.com/v4"),
		StockAPIURL:       getEnv("STOCK_API_URL", "https://www.alphavantage.co/query"),
		QuoteTimeout:      getEnvDuration("QUOTE_TIMEOUT", 10*time.Second),
		StockRequestDelay: getEnvDuration("STOCK_REQUEST_DELAY", 200*time.Millisecond),
		QuoteCacheTTL:     getEnvDuration("QUOTE_CACHE_TTL", 5*time.Minute),
		QuoteCacheSize:    getEnvInt("QUOTE_CACHE_SIZE", 64),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finview"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "reports"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	validSources := []string{SourceExcel, SourceSheets, SourceSQLite, SourceMemory}
	if !slices.Contains(validSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	switch c.DataSource {
	case SourceExcel:
		if c.TransactionsFile == "" {
			errors = append(errors, "transactions file cannot be empty when using excel source")
		}
	case SourceSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite source")
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
	case SourceSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets source")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets source")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ReportsDir == "" {
		errors = append(errors, "reports directory cannot be empty")
	}

	for key, raw := range map[string]string{"API_URL": c.APIURL, "STOCK_API_URL": c.StockAPIURL} {
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be an http(s) URL", key, raw))
		}
	}
	if c.QuoteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid quote timeout %v: must be positive", c.QuoteTimeout))
	}
	if c.StockRequestDelay < 0 {
		errors = append(errors, fmt.Sprintf("invalid stock request delay %v: must not be negative", c.StockRequestDelay))
	}
	if c.DatasetCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid dataset cache TTL %v: must not be negative", c.DatasetCacheTTL))
	}
	if c.QuoteCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid quote cache size %d: must be at least 1", c.QuoteCacheSize))
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

	if len(errors) > 0 {
		slices.Sort(errors)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Address is the listen address for the HTTP server.
func (c *Config) Address() string {
	return ":" + c.Port
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
