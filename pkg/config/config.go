// Package config loads the ingestion configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// ErrConfig wraps every configuration failure. A configuration error is
// fatal and never retried.
var ErrConfig = errors.New("configuration error")

// Config is the process configuration. Every field is read from the
// environment variable named in its tag.
type Config struct {
	// Warehouse
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS,required"`
	ProjectID       string `env:"PROJECT_ID,required"`
	Dataset         string `env:"BQ_DATASET,default=operations"`
	Table           string `env:"BQ_TABLE,default=raw_breweries"`
	Location        string `env:"BQ_LOCATION,default=EU"`

	// Source API
	BreweryHost    string        `env:"BREWERY_HOST,default=https://api.openbrewerydb.org"`
	PerPage        int           `env:"BREWERY_PER_PAGE,default=50"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT,default=30s"`
	HTTPMaxRetries int           `env:"HTTP_MAX_RETRIES,default=3"`
	PageRateLimit  float64       `env:"PAGE_RATE_LIMIT,default=0"`
	MaxPages       int           `env:"MAX_PAGES,default=0"`

	// Optional outputs
	OutputFile  string        `env:"OUTPUT_FILE"`
	RedisAddr   string        `env:"REDIS_ADDR"`
	CacheTTL    time.Duration `env:"CACHE_TTL,default=5m"`
	MetricsAddr string        `env:"METRICS_ADDR"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogPretty bool   `env:"LOG_PRETTY,default=false"`
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that the environment tags cannot express.
func (c Config) Validate() error {
	switch {
	case c.CredentialsFile == "":
		return fmt.Errorf("%w: GOOGLE_APPLICATION_CREDENTIALS is not set", ErrConfig)
	case c.ProjectID == "":
		return fmt.Errorf("%w: PROJECT_ID is not set", ErrConfig)
	case c.Dataset == "" || c.Table == "":
		return fmt.Errorf("%w: BQ_DATASET and BQ_TABLE must be non-empty", ErrConfig)
	case c.PerPage < 1 || c.PerPage > 200:
		return fmt.Errorf("%w: BREWERY_PER_PAGE must be in [1, 200] (got %d)", ErrConfig, c.PerPage)
	case c.HTTPMaxRetries < 1:
		return fmt.Errorf("%w: HTTP_MAX_RETRIES must be >= 1 (got %d)", ErrConfig, c.HTTPMaxRetries)
	case c.HTTPTimeout <= 0:
		return fmt.Errorf("%w: HTTP_TIMEOUT must be positive (got %s)", ErrConfig, c.HTTPTimeout)
	case c.PageRateLimit < 0:
		return fmt.Errorf("%w: PAGE_RATE_LIMIT must be >= 0 (got %g)", ErrConfig, c.PageRateLimit)
	case c.MaxPages < 0:
		return fmt.Errorf("%w: MAX_PAGES must be >= 0 (got %d)", ErrConfig, c.MaxPages)
	}
	return nil
}
