package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/detector"
	applog "expensetracker/internal/log"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Storage
	DataBackend  string
	SQLiteDBPath string
	PostgresURL  string

	// AMQP; an empty URL disables event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Detector
	DetectorEnabled     bool
	DetectorInterval    time.Duration
	DetectorProbability float64
	DetectorMode        string
	DetectorReportEvery int
	DetectorMaxBackdate time.Duration
	DetectorTablesFile  string

	NotificationsEnabled bool

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	LogLevel string
}

func Load() *Config {
	def := detector.DefaultConfig()
	return &Config{
		Port:               getEnv("PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expenses.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expenses"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		DetectorEnabled:     getEnvBool("DETECTOR_ENABLED", true),
		DetectorInterval:    getEnvDuration("DETECTOR_INTERVAL", def.Interval),
		DetectorProbability: getEnvFloat("DETECTOR_PROBABILITY", def.Probability),
		DetectorMode:        getEnv("DETECTOR_MODE", string(def.Mode)),
		DetectorReportEvery: getEnvInt("DETECTOR_REPORT_EVERY", def.ReportEvery),
		DetectorMaxBackdate: getEnvDuration("DETECTOR_MAX_BACKDATE", def.MaxBackdate),
		DetectorTablesFile:  getEnv("DETECTOR_TABLES_FILE", ""),

		NotificationsEnabled: getEnvBool("NOTIFICATIONS_ENABLED", true),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.SQLiteDBPath) == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.PostgresURL) == "" {
			errors = append(errors, "POSTGRES_URL is required when using postgres backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s %s]",
			c.DataBackend, BackendMemory, BackendSQLite, BackendPostgres))
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

	if c.DetectorEnabled {
		if c.DetectorInterval < time.Second {
			errors = append(errors, fmt.Sprintf("invalid detector interval %v: must be at least 1 second", c.DetectorInterval))
		}
		if c.DetectorProbability < 0 || c.DetectorProbability > 1 {
			errors = append(errors, fmt.Sprintf("invalid detector probability %v: must be between 0 and 1", c.DetectorProbability))
		}
		if !detector.Mode(c.DetectorMode).IsValid() {
			errors = append(errors, fmt.Sprintf("invalid detector mode '%s': must be one of [%s %s]", c.DetectorMode, detector.ModeSMS, detector.ModeSimple))
		}
		if c.DetectorReportEvery < 1 {
			errors = append(errors, fmt.Sprintf("invalid detector report interval %d: must be at least 1", c.DetectorReportEvery))
		}
		if c.DetectorMaxBackdate < 0 {
			errors = append(errors, fmt.Sprintf("invalid detector max backdate %v: cannot be negative", c.DetectorMaxBackdate))
		}
		if c.DetectorTablesFile != "" {
			if _, err := os.Stat(c.DetectorTablesFile); err != nil {
				errors = append(errors, fmt.Sprintf("detector tables file not readable: %s", c.DetectorTablesFile))
			}
		}
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateSheets checks the settings the sheets sync worker needs on top of Validate.
func (c *Config) ValidateSheets() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required by the sheets sync worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required by the sheets sync worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("sheets configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Detector builds the generator settings, loading the tables file when set.
func (c *Config) Detector() (detector.Config, error) {
	cfg := detector.DefaultConfig()
	cfg.Interval = c.DetectorInterval
	cfg.Probability = c.DetectorProbability
	cfg.Mode = detector.Mode(c.DetectorMode)
	cfg.ReportEvery = c.DetectorReportEvery
	cfg.MaxBackdate = c.DetectorMaxBackdate
	if c.DetectorTablesFile != "" {
		tables, err := detector.LoadTables(c.DetectorTablesFile)
		if err != nil {
			return detector.Config{}, fmt.Errorf("load detector tables: %w", err)
		}
		cfg.Tables = tables
	}
	return cfg, nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
