package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Backend selection
	DataBackend    string
	StoreKeyPrefix string

	// SQLite
	SQLiteDBPath string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AMQP (optional, empty URL disables alerts)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Advisory tips
	APIKey      string
	TipModel    string
	TipBaseURL  string
	TipTimeout  time.Duration
	TipCacheTTL time.Duration

	// Bookkeeping
	LowStockThreshold int

	LogLevel string
}

var validBackends = []string{"memory", "sqlite", "redis"}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:    getEnv("DATA_BACKEND", "sqlite"),
		StoreKeyPrefix: getEnvAllowEmpty("STORE_KEY_PREFIX", "accounting_"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/contable.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "contable"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "stock_alerts"),

		APIKey:      getEnv("API_KEY", ""),
		TipModel:    getEnv("TIP_MODEL", "gemini-2.5-flash"),
		TipBaseURL:  getEnv("TIP_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		TipTimeout:  getEnvDuration("TIP_TIMEOUT", 15*time.Second),
		TipCacheTTL: getEnvDuration("TIP_CACHE_TTL", time.Hour),

		LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
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
		}
	case "redis":
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address cannot be empty when using redis backend")
		}
		if c.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("invalid redis db %d: must not be negative", c.RedisDB))
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

	if c.TipBaseURL != "" {
		if u, err := url.Parse(c.TipBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid tip base URL '%s': must be an http(s) URL", c.TipBaseURL))
		}
	}
	if c.TipTimeout < time.Second || c.TipTimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid tip timeout %v: must be between 1s and 2m", c.TipTimeout))
	}
	if c.TipCacheTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid tip cache TTL %v: must be at least 1 minute", c.TipCacheTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.LowStockThreshold < 1 {
		errors = append(errors, fmt.Sprintf("invalid low stock threshold %d: must be at least 1", c.LowStockThreshold))
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// TipsEnabled reports whether a tip credential is configured.
func (c *Config) TipsEnabled() bool {
	return c.APIKey != ""
}

// AMQPEnabled reports whether low-stock alerts are published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SlogLevel returns the configured level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty distinguishes an unset variable from one set to "".
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
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
