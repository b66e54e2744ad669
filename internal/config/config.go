package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const minSessionSecret = 16

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	// CIDRs whose X-Forwarded-For is believed; empty means private ranges.
	TrustedProxies []string

	// Storage
	DataBackend  string
	DataFile     string
	SQLiteDBPath string

	// AMQP (optional; empty URL disables events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// Snapshots
	SnapshotDir      string
	SnapshotSchedule string
	SnapshotRetain   int

	// Google Sheets export (optional)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		TrustedProxies:  getEnvList("TRUSTED_PROXIES"),

		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", BackendJSON)),
		DataFile:     getEnv("DATA_FILE", "./data/ecobank.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ecobank.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ecobank"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_export"),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),

		SnapshotDir:      getEnv("SNAPSHOT_DIR", "./data/snapshots"),
		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "@daily"),
		SnapshotRetain:   getEnvInt("SNAPSHOT_RETAIN", 7),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the settings shared by every process and returns all
// problems at once.
func (c *Config) Validate() error {
	return joinProblems(c.problems())
}

// ValidateServer adds the checks only the HTTP server needs.
func (c *Config) ValidateServer() error {
	problems := c.problems()

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if len(c.SessionSecret) < minSessionSecret {
		problems = append(problems, fmt.Sprintf("SESSION_SECRET must be at least %d characters", minSessionSecret))
	}
	if c.SessionTTL < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			problems = append(problems, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	return joinProblems(problems)
}

// ValidateSnapshots adds the checks for the snapshot job.
func (c *Config) ValidateSnapshots() error {
	problems := c.problems()

	if strings.TrimSpace(c.SnapshotDir) == "" {
		problems = append(problems, "snapshot directory cannot be empty")
	}
	if _, err := cron.ParseStandard(c.SnapshotSchedule); err != nil {
		problems = append(problems, fmt.Sprintf("invalid snapshot schedule '%s': %v", c.SnapshotSchedule, err))
	}
	if c.SnapshotRetain < 0 {
		problems = append(problems, fmt.Sprintf("invalid snapshot retention %d: must not be negative", c.SnapshotRetain))
	}

	return joinProblems(problems)
}

func (c *Config) problems() []string {
	var problems []string

	validBackends := []string{BackendJSON, BackendSQLite, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendJSON:
		if c.DataFile == "" {
			problems = append(problems, "data file path cannot be empty when using json backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	return problems
}

// EventsEnabled reports whether ledger events should be published.
func (c *Config) EventsEnabled() bool { return c.AMQPURL != "" }

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
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

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
