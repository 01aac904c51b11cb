package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"finadvisor/internal/completion"
	"finadvisor/internal/log"
)

type Config struct {
	// HTTP Server
	Port            string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Completion API
	CompletionAPIKey  string
	CompletionModel   string
	CompletionBaseURL string
	CompletionTimeout time.Duration

	// AMQP advice events (disabled when URL is empty)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Rate limiting for POST endpoints
	RateLimitPerMinute int
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8000"),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		CompletionAPIKey:  getEnv("COMPLETION_API_KEY", os.Getenv("ANTHROPIC_API_KEY")),
		CompletionModel:   getEnv("COMPLETION_MODEL", completion.DefaultModel),
		CompletionBaseURL: getEnv("COMPLETION_BASE_URL", ""),
		CompletionTimeout: getEnvDuration("COMPLETION_TIMEOUT", 20*time.Second),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "finadvisor"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "advice_events"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}
}

// CompletionConfig returns the completion client settings.
func (c *Config) CompletionConfig() completion.Config {
	return completion.Config{
		APIKey:  c.CompletionAPIKey,
		Model:   c.CompletionModel,
		BaseURL: c.CompletionBaseURL,
		Timeout: c.CompletionTimeout,
	}
}

// EventsEnabled reports whether advice events should be published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.MaxBodyBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max body bytes %d: must be at least 1024", c.MaxBodyBytes))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if c.CompletionTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid completion timeout %v: must be at least 1 second", c.CompletionTimeout))
	} else if c.CompletionTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid completion timeout %v: must be at most 5 minutes", c.CompletionTimeout))
	}
	if c.CompletionAPIKey != "" && strings.TrimSpace(c.CompletionModel) == "" {
		errors = append(errors, "completion model cannot be empty when an API key is provided")
	}
	if c.CompletionBaseURL != "" {
		if u, err := url.Parse(c.CompletionBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid completion base URL '%s': %v", c.CompletionBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid completion base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
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
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	} else if c.RateLimitPerMinute > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at most 10000 requests per minute", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
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
