package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/benvon/smart-tasks/internal/remote"
)

// Config holds application configuration
type Config struct {
	DatabasePath     string        `toml:"database_path"`
	ServerPort       string        `toml:"server_port"`
	FrontendURL      string        `toml:"frontend_url"`
	EnableHSTS       bool          `toml:"enable_hsts"`
	RemoteBackend    string        `toml:"remote_backend"`
	RemoteURL        string        `toml:"remote_database_url"`
	RemoteTimeout    time.Duration `toml:"-"`
	RedisURL         string        `toml:"redis_url"`
	RabbitMQURL      string        `toml:"rabbitmq_url"`
	RabbitMQPrefetch int           `toml:"rabbitmq_prefetch"`
	ReminderInterval time.Duration `toml:"-"`
	RateLimit        string        `toml:"rate_limit"`
	TelegramToken    string        `toml:"telegram_bot_token"`
	TelegramChatID   int64         `toml:"telegram_chat_id"`
	WorkerDebugMode  bool          `toml:"worker_debug_mode"`
	ServerDebugMode  bool          `toml:"server_debug_mode"`
	OTELEnabled      bool          `toml:"otel_enabled"`
	OTELEndpoint     string        `toml:"otel_endpoint"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		DatabasePath:     "smart-tasks.db",
		ServerPort:       "8080",
		FrontendURL:      "http://localhost:3000",
		RemoteTimeout:    10 * time.Second,
		RabbitMQPrefetch: 1,
		ReminderInterval: 60 * time.Second,
		RateLimit:        "20-S",
	}
}

// Load loads configuration from an optional .env file, an optional TOML file
// named by CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)
	cfg.EnableHSTS = getEnvBool("ENABLE_HSTS", cfg.EnableHSTS)
	cfg.RemoteBackend = getEnv("REMOTE_BACKEND", cfg.RemoteBackend)
	cfg.RemoteURL = getEnv("REMOTE_DATABASE_URL", cfg.RemoteURL)
	cfg.RemoteTimeout = getEnvDuration("REMOTE_TIMEOUT", cfg.RemoteTimeout)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQPrefetch = getEnvInt("RABBITMQ_PREFETCH", cfg.RabbitMQPrefetch)
	cfg.ReminderInterval = getEnvDuration("REMINDER_INTERVAL", cfg.ReminderInterval)
	cfg.RateLimit = getEnv("RATE_LIMIT", cfg.RateLimit)
	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.TelegramToken)
	cfg.TelegramChatID = getEnvInt64("TELEGRAM_CHAT_ID", cfg.TelegramChatID)
	cfg.WorkerDebugMode = getEnvBool("WORKER_DEBUG_MODE", cfg.WorkerDebugMode)
	cfg.ServerDebugMode = getEnvBool("SERVER_DEBUG_MODE", cfg.ServerDebugMode)
	cfg.OTELEnabled = getEnvBool("OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTELEndpoint)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// durations are written as strings like "30s"
	var durations struct {
		RemoteTimeout    string `toml:"remote_timeout"`
		ReminderInterval string `toml:"reminder_interval"`
	}
	if err := toml.Unmarshal(data, &durations); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	for _, d := range []struct {
		raw  string
		dest *time.Duration
	}{
		{durations.RemoteTimeout, &c.RemoteTimeout},
		{durations.ReminderInterval, &c.ReminderInterval},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q in %s: %w", d.raw, path, err)
		}
		*d.dest = parsed
	}
	return nil
}

// Validate rejects inconsistent combinations
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	switch c.RemoteBackend {
	case remote.BackendNone:
	case remote.BackendPostgres, remote.BackendRedis:
		if c.RemoteURL == "" {
			return fmt.Errorf("REMOTE_DATABASE_URL is required when REMOTE_BACKEND=%s", c.RemoteBackend)
		}
	default:
		return fmt.Errorf("unknown REMOTE_BACKEND %q", c.RemoteBackend)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("REMOTE_TIMEOUT must be positive")
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

// RemoteConfigured reports whether a remote document store is set up
func (c *Config) RemoteConfigured() bool {
	return c.RemoteBackend != remote.BackendNone && c.RemoteURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
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
