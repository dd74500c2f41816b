package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else if field.Type().Elem().Kind() == reflect.Int {
			parts := strings.Split(value, ",")
			result := make([]int, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p == "" {
					continue
				}
				n, err := strconv.Atoi(p)
				if err != nil {
					return fmt.Errorf("invalid integer list: %w", err)
				}
				result = append(result, n)
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Source validation
	if c.Source.Path == "" {
		errs = append(errs, "SOURCE_PATH is required")
	}
	if c.Source.Variant == "" {
		errs = append(errs, "SOURCE_VARIANT must not be empty")
	}
	validEncodings := map[string]bool{"auto": true, "utf-8": true, "utf8": true, "shift_jis": true, "sjis": true, "euc-jp": true}
	if !validEncodings[strings.ToLower(c.Source.Encoding)] {
		errs = append(errs, fmt.Sprintf("SOURCE_ENCODING (%q) must be one of: auto, utf-8, shift_jis, euc-jp", c.Source.Encoding))
	}
	delim, quote := c.Source.DelimiterRune(), c.Source.QuoteRune()
	if delim == 0 || delim == '\r' || delim == '\n' {
		errs = append(errs, fmt.Sprintf("SOURCE_DELIMITER (%q) must be a single character", c.Source.Delimiter))
	}
	if quote == 0 || quote == '\r' || quote == '\n' {
		errs = append(errs, fmt.Sprintf("SOURCE_QUOTE (%q) must be a single character", c.Source.Quote))
	}
	if delim != 0 && delim == quote {
		errs = append(errs, "SOURCE_QUOTE must differ from SOURCE_DELIMITER")
	}
	for _, off := range c.Source.HeaderOffsets {
		if off < 0 {
			errs = append(errs, fmt.Sprintf("SOURCE_HEADER_OFFSETS contains negative offset %d", off))
			break
		}
	}
	if c.Source.MaxSize <= 0 {
		errs = append(errs, "SOURCE_MAX_SIZE must be positive")
	}

	// Pipeline validation
	if c.Pipeline.MaxConcurrent <= 0 {
		errs = append(errs, "PIPELINE_MAX_CONCURRENT must be positive")
	}
	if c.Pipeline.MaxWait <= 0 {
		errs = append(errs, "PIPELINE_MAX_WAIT must be positive")
	}

	// Indicator validation
	if c.Indicator.BaseURL == "" {
		errs = append(errs, "INDICATOR_BASE_URL must not be empty")
	} else if u, err := url.Parse(c.Indicator.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("INDICATOR_BASE_URL (%q) must be an absolute URL", c.Indicator.BaseURL))
	}
	if c.Indicator.Timeout <= 0 {
		errs = append(errs, "INDICATOR_TIMEOUT must be positive")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Source: {Path: %q, Variant: %q, Encoding: %q, HeaderOffsets: %v}, ",
		c.Source.Path, c.Source.Variant, c.Source.Encoding, c.Source.HeaderOffsets))
	b.WriteString(fmt.Sprintf("Pipeline: {MaxConcurrent: %d, MaxWait: %s}, ",
		c.Pipeline.MaxConcurrent, c.Pipeline.MaxWait))
	b.WriteString(fmt.Sprintf("Indicator: {BaseURL: %q, Timeout: %s}, ",
		c.Indicator.BaseURL, c.Indicator.Timeout))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
