package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"SIM_API_URL", "SIM_API_TIMEOUT", "SIM_CAPTURE_TIMEOUT", "AUTOSCALER_POOL_MARKER",
	"SORT_LOCALE", "PROMETHEUS_URL", "STORAGE_ENABLED", "DATABASE_URL",
	"LISTEN_ADDR", "OUTPUT_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg := NewConfig()

	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("Expected default API URL, got %s", cfg.APIURL)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Errorf("Expected 30s API timeout, got %v", cfg.APITimeout)
	}
	if cfg.CaptureTimeout != 10*time.Minute {
		t.Errorf("Expected 10m capture timeout, got %v", cfg.CaptureTimeout)
	}
	if cfg.AutoscalerPoolMarker != "keda" {
		t.Errorf("Expected keda marker, got %s", cfg.AutoscalerPoolMarker)
	}
	if cfg.PrometheusURL != "" {
		t.Errorf("Expected usage overlay disabled by default, got %s", cfg.PrometheusURL)
	}
	if cfg.StorageEnabled {
		t.Error("Expected storage disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIM_API_URL", "http://sim:9000")
	t.Setenv("SIM_API_TIMEOUT", "45")
	t.Setenv("SIM_CAPTURE_TIMEOUT", "20m")
	t.Setenv("STORAGE_ENABLED", "1")
	t.Setenv("DATABASE_URL", "postgres://localhost/console")
	t.Setenv("SORT_LOCALE", "de")

	cfg := NewConfig()

	if cfg.APIURL != "http://sim:9000" {
		t.Errorf("Expected custom API URL, got %s", cfg.APIURL)
	}
	if cfg.APITimeout != 45*time.Second {
		t.Errorf("Expected bare seconds to parse, got %v", cfg.APITimeout)
	}
	if cfg.CaptureTimeout != 20*time.Minute {
		t.Errorf("Expected 20m capture timeout, got %v", cfg.CaptureTimeout)
	}
	if !cfg.StorageEnabled {
		t.Error("Expected storage enabled from env")
	}
	tag, err := cfg.Locale()
	if err != nil || tag.String() != "de" {
		t.Errorf("Expected German locale, got %v (%v)", tag, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"relative api url", func(c *Config) { c.APIURL = "localhost:8000" }, true},
		{"zero timeout", func(c *Config) { c.APITimeout = 0 }, true},
		{"capture shorter than api", func(c *Config) { c.CaptureTimeout = time.Second }, true},
		{"storage without dsn", func(c *Config) { c.StorageEnabled = true }, true},
		{"bad locale", func(c *Config) { c.SortLocale = "not a locale" }, true},
		{"yaml output", func(c *Config) { c.OutputFormat = "yaml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("SIM_API_URL")
	os.Unsetenv("LISTEN_ADDR")
	t.Setenv("OUTPUT_FORMAT", "json")

	path := filepath.Join(t.TempDir(), ".env")
	content := "SIM_API_URL=http://from-file:8000\nOUTPUT_FORMAT=text\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("SIM_API_URL") })

	cfg := NewConfig()
	if cfg.APIURL != "http://from-file:8000" {
		t.Errorf("Expected API URL from file, got %s", cfg.APIURL)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("Expected existing env to win, got %s", cfg.OutputFormat)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Expected missing file to be ignored, got %v", err)
	}
}
