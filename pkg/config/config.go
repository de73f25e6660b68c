package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Config holds application configuration
type Config struct {
	// Simulation backend
	APIURL         string
	APITimeout     time.Duration
	CaptureTimeout time.Duration // snapshot capture is long-running

	// Sorting
	AutoscalerPoolMarker string
	SortLocale           string

	// Prometheus usage overlay, disabled when empty
	PrometheusURL string

	// Storage
	StorageEnabled bool
	DatabaseURL    string

	// Server
	ListenAddr string

	// Output
	OutputFormat string // text, json
	Verbose      bool
}

// NewConfig creates a new configuration from the environment with defaults
func NewConfig() *Config {
	return &Config{
		APIURL:               getEnv("SIM_API_URL", "http://localhost:8000"),
		APITimeout:           getEnvDuration("SIM_API_TIMEOUT", 30*time.Second),
		CaptureTimeout:       getEnvDuration("SIM_CAPTURE_TIMEOUT", 10*time.Minute),
		AutoscalerPoolMarker: getEnv("AUTOSCALER_POOL_MARKER", "keda"),
		SortLocale:           getEnv("SORT_LOCALE", "en"),
		PrometheusURL:        getEnv("PROMETHEUS_URL", ""),
		StorageEnabled:       getEnvBool("STORAGE_ENABLED", false),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		OutputFormat:         getEnv("OUTPUT_FORMAT", "text"),
		Verbose:              false,
	}
}

// LoadDotEnv loads variables from an env file without overriding ones already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// Locale returns the parsed sort locale
func (c *Config) Locale() (language.Tag, error) {
	tag, err := language.Parse(c.SortLocale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid SORT_LOCALE %q: %w", c.SortLocale, err)
	}
	return tag, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SIM_API_URL must be an absolute URL, got %q", c.APIURL)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}
	if c.CaptureTimeout < c.APITimeout {
		return fmt.Errorf("capture timeout must be at least the API timeout")
	}
	if c.StorageEnabled && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when storage is enabled")
	}
	if _, err := c.Locale(); err != nil {
		return err
	}
	switch c.OutputFormat {
	case "text", "json":
	default:
		return fmt.Errorf("output format must be text or json, got %q", c.OutputFormat)
	}
	return nil
}
