// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
	"unicode/utf8"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Source    SourceConfig
	Pipeline  PipelineConfig
	Indicator IndicatorConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Metrics   MetricsConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SourceConfig describes the statistics export to analyze.
type SourceConfig struct {
	// Path is the export file (CSV, XLSX or XLS). Required.
	// Supports both SOURCE_PATH and DATA_PATH env vars.
	Path string `env:"SOURCE_PATH" envAlt:"DATA_PATH" required:"true"`

	// Variant is the default schema variant key (default: population_single_age)
	Variant string `env:"SOURCE_VARIANT" default:"population_single_age"`

	// Encoding is auto, utf-8, shift_jis or euc-jp (default: auto)
	Encoding string `env:"SOURCE_ENCODING" default:"auto"`

	// Delimiter is a single character, or "tab" (default: ",")
	Delimiter string `env:"SOURCE_DELIMITER" default:","`

	// Quote is a single character (default: ")
	Quote string `env:"SOURCE_QUOTE" default:"\""`

	// TolerateBadLines drops malformed lines instead of failing (default: true)
	TolerateBadLines bool `env:"SOURCE_TOLERATE_BAD_LINES" default:"true"`

	// HeaderOffsets overrides the variant's candidate header offsets, e.g. "12,14"
	HeaderOffsets []int `env:"SOURCE_HEADER_OFFSETS"`

	// MaxSize is the maximum source size in bytes (default: 50MB)
	MaxSize int64 `env:"SOURCE_MAX_SIZE" default:"52428800"`
}

// PipelineConfig bounds concurrent pipeline runs.
type PipelineConfig struct {
	// MaxConcurrent is the maximum number of parallel runs (default: 4)
	MaxConcurrent int `env:"PIPELINE_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long a request waits for a run slot (default: 10s)
	MaxWait time.Duration `env:"PIPELINE_MAX_WAIT" default:"10s"`
}

// IndicatorConfig holds the remote indicator endpoint settings.
type IndicatorConfig struct {
	// BaseURL is the indicator data endpoint
	BaseURL string `env:"INDICATOR_BASE_URL" default:"https://dashboard.e-stat.go.jp/api/1.0/Json/getData"`

	// Timeout bounds one fetch (default: 10s)
	Timeout time.Duration `env:"INDICATOR_TIMEOUT" default:"10s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled exposes /metrics (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DelimiterRune returns the configured delimiter as a rune.
func (c *SourceConfig) DelimiterRune() rune {
	return singleRune(c.Delimiter)
}

// QuoteRune returns the configured quote character as a rune.
func (c *SourceConfig) QuoteRune() rune {
	return singleRune(c.Quote)
}

// singleRune returns the only rune of s, or 0 when s is not exactly one
// character. "tab" and "\t" mean a tab.
func singleRune(s string) rune {
	switch s {
	case "tab", `\t`:
		return '\t'
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
