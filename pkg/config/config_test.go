package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")
	t.Setenv("PROJECT_ID", "brewery-project")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CredentialsFile != "/secrets/sa.json" || cfg.ProjectID != "brewery-project" {
		t.Errorf("required values = %q, %q", cfg.CredentialsFile, cfg.ProjectID)
	}
	if cfg.Dataset != "operations" || cfg.Table != "raw_breweries" || cfg.Location != "EU" {
		t.Errorf("warehouse defaults = %q, %q, %q", cfg.Dataset, cfg.Table, cfg.Location)
	}
	if cfg.BreweryHost != "https://api.openbrewerydb.org" {
		t.Errorf("BreweryHost = %q", cfg.BreweryHost)
	}
	if cfg.PerPage != 50 {
		t.Errorf("PerPage = %d, want 50", cfg.PerPage)
	}
	if cfg.HTTPTimeout != 30*time.Second || cfg.HTTPMaxRetries != 3 {
		t.Errorf("HTTP defaults = %v, %d", cfg.HTTPTimeout, cfg.HTTPMaxRetries)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.OutputFile != "" || cfg.RedisAddr != "" || cfg.MetricsAddr != "" {
		t.Errorf("optional outputs should be empty: %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.LogPretty {
		t.Errorf("logging defaults = %q, %v", cfg.LogLevel, cfg.LogPretty)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BQ_DATASET", "staging")
	t.Setenv("BREWERY_PER_PAGE", "200")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("PAGE_RATE_LIMIT", "2.5")
	t.Setenv("OUTPUT_FILE", "/tmp/raw_breweries.json")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dataset != "staging" || cfg.PerPage != 200 || cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.PageRateLimit != 2.5 || cfg.OutputFile != "/tmp/raw_breweries.json" || !cfg.LogPretty {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		missing string
	}{
		{"no credentials", map[string]string{"PROJECT_ID": "p"}, "GOOGLE_APPLICATION_CREDENTIALS"},
		{"no project", map[string]string{"GOOGLE_APPLICATION_CREDENTIALS": "/sa.json"}, "PROJECT_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
			t.Setenv("PROJECT_ID", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("Load() error = %v, want ErrConfig", err)
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("error %q does not name %s", err, tt.missing)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		CredentialsFile: "/sa.json",
		ProjectID:       "p",
		Dataset:         "operations",
		Table:           "raw_breweries",
		PerPage:         50,
		HTTPTimeout:     30 * time.Second,
		HTTPMaxRetries:  3,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"per page zero", func(c *Config) { c.PerPage = 0 }},
		{"per page too large", func(c *Config) { c.PerPage = 201 }},
		{"no retries", func(c *Config) { c.HTTPMaxRetries = 0 }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"negative rate", func(c *Config) { c.PageRateLimit = -1 }},
		{"negative max pages", func(c *Config) { c.MaxPages = -1 }},
		{"empty table", func(c *Config) { c.Table = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
				t.Errorf("Validate() error = %v, want ErrConfig", err)
			}
		})
	}
}
