// Package config loads deployment settings from an optional YAML file and
// the environment. Environment variables always win over the file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"payoff/internal/core"
)

type Config struct {
	// HTTP server
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       int           `yaml:"rate_limit_per_minute"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Simulation limits
	DefaultHorizonMonths      int    `yaml:"default_horizon_months"`
	MaxHorizonMonths          int    `yaml:"max_horizon_months"`
	MaxAPR                    string `yaml:"max_apr"`
	RoundingPolicy            string `yaml:"rounding_policy"`
	AllowNegativeAmortization bool   `yaml:"allow_negative_amortization"`

	// Session store
	SessionDBPath string `yaml:"session_db_path"`

	// Result cache
	CacheBackend         string        `yaml:"cache_backend"`
	CacheSize            int           `yaml:"cache_size"`
	CacheTTL             time.Duration `yaml:"cache_ttl"`
	CacheCleanupSchedule string        `yaml:"cache_cleanup_schedule"`
	RedisAddr            string        `yaml:"redis_addr"`

	// AMQP
	AMQPURL          string `yaml:"amqp_url"`
	AMQPExchange     string `yaml:"amqp_exchange"`
	AMQPRequestQueue string `yaml:"amqp_request_queue"`
	AMQPResultQueue  string `yaml:"amqp_result_queue"`
	AMQPPrefetch     int    `yaml:"amqp_prefetch"`

	// Google Sheets export
	GoogleSpreadsheetID      string `yaml:"google_spreadsheet_id"`
	GoogleSheetName          string `yaml:"google_sheet_name"`
	GoogleServiceAccountFile string `yaml:"google_service_account_file"`
	GoogleServiceAccountJSON string `yaml:"google_service_account_json"`
}

// Defaults returns the configuration used when neither a file nor the
// environment says otherwise.
func Defaults() *Config {
	return &Config{
		Port:            "8081",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimit:       60,

		LogLevel:  "info",
		LogFormat: "text",

		DefaultHorizonMonths: 600,
		MaxHorizonMonths:     1200,
		MaxAPR:               "100",
		RoundingPolicy:       string(core.RoundHalfUp),

		SessionDBPath: "file:payoff?mode=memory&cache=shared",

		CacheBackend:         "memory",
		CacheSize:            256,
		CacheTTL:             15 * time.Minute,
		CacheCleanupSchedule: "@every 10m",
		RedisAddr:            "localhost:6379",

		AMQPExchange:     "payoff",
		AMQPRequestQueue: "simulation_requests",
		AMQPResultQueue:  "simulation_results",
		AMQPPrefetch:     4,

		GoogleSheetName: "Payoff",
	}
}

// Load applies CONFIG_FILE (when set) over the defaults, then the
// environment over both.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", c.WriteTimeout)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.RateLimit = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimit)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.DefaultHorizonMonths = getEnvInt("DEFAULT_HORIZON_MONTHS", c.DefaultHorizonMonths)
	c.MaxHorizonMonths = getEnvInt("MAX_HORIZON_MONTHS", c.MaxHorizonMonths)
	c.MaxAPR = getEnv("MAX_APR", c.MaxAPR)
	c.RoundingPolicy = getEnv("ROUNDING_POLICY", c.RoundingPolicy)
	c.AllowNegativeAmortization = getEnvBool("ALLOW_NEGATIVE_AMORTIZATION", c.AllowNegativeAmortization)

	c.SessionDBPath = getEnv("SESSION_DB_PATH", c.SessionDBPath)

	c.CacheBackend = getEnv("CACHE_BACKEND", c.CacheBackend)
	c.CacheSize = getEnvInt("CACHE_SIZE", c.CacheSize)
	c.CacheTTL = getEnvDuration("CACHE_TTL", c.CacheTTL)
	c.CacheCleanupSchedule = getEnv("CACHE_CLEANUP_SCHEDULE", c.CacheCleanupSchedule)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPRequestQueue = getEnv("AMQP_REQUEST_QUEUE", c.AMQPRequestQueue)
	c.AMQPResultQueue = getEnv("AMQP_RESULT_QUEUE", c.AMQPResultQueue)
	c.AMQPPrefetch = getEnvInt("AMQP_PREFETCH", c.AMQPPrefetch)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", c.GoogleSheetName)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimit))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.DefaultHorizonMonths < 1 {
		errors = append(errors, fmt.Sprintf("invalid default horizon %d: must be at least 1 month", c.DefaultHorizonMonths))
	}
	if c.MaxHorizonMonths < c.DefaultHorizonMonths {
		errors = append(errors, fmt.Sprintf("invalid max horizon %d: must not be below the default horizon %d",
			c.MaxHorizonMonths, c.DefaultHorizonMonths))
	}
	if apr, err := decimal.NewFromString(c.MaxAPR); err != nil || apr.Sign() <= 0 {
		errors = append(errors, fmt.Sprintf("invalid max APR '%s': must be a positive number", c.MaxAPR))
	}
	if _, err := core.ParseRoundingPolicy(c.RoundingPolicy); err != nil {
		errors = append(errors, fmt.Sprintf("invalid rounding policy '%s'", c.RoundingPolicy))
	}

	if c.SessionDBPath == "" {
		errors = append(errors, "session database path cannot be empty")
	}

	switch c.CacheBackend {
	case "memory":
		if c.CacheSize < 1 {
			errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
		}
	case "redis":
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address is required when using the redis cache backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid cache backend '%s': must be one of [memory redis]", c.CacheBackend))
	}
	if c.CacheCleanupSchedule != "" {
		if _, err := cron.ParseStandard(c.CacheCleanupSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid cache cleanup schedule '%s': %v", c.CacheCleanupSchedule, err))
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
		if c.AMQPRequestQueue == "" || c.AMQPResultQueue == "" {
			errors = append(errors, "AMQP request and result queue names cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// MaxAPRDecimal returns MaxAPR parsed, or zero when it is not a number.
func (c *Config) MaxAPRDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.MaxAPR)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Rounding returns the configured policy, falling back to half-up.
func (c *Config) Rounding() core.RoundingPolicy {
	p, err := core.ParseRoundingPolicy(c.RoundingPolicy)
	if err != nil {
		return core.RoundHalfUp
	}
	return p
}

// SheetsEnabled reports whether a spreadsheet export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
