// Package openbrewery is the Open Brewery DB source: a preset request
// client for the public API and an operator that fetches the whole
// brewery collection.
package openbrewery

import (
	"context"

	"github.com/Sternrassler/openbrewery-elt/pkg/client"
	"github.com/Sternrassler/openbrewery-elt/pkg/logging"
	"github.com/Sternrassler/openbrewery-elt/pkg/pagination"
	"github.com/rs/zerolog"
)

const (
	// DefaultHost is the public Open Brewery DB API.
	DefaultHost = "https://api.openbrewerydb.org"

	// BreweriesEndpoint lists breweries page by page.
	BreweriesEndpoint = "/v1/breweries"

	// DefaultPerPage is the page size used by the ingestion. The API
	// accepts up to 200.
	DefaultPerPage = 50
)

// NewClientConfig returns a request client configuration for the Open
// Brewery DB API. An empty host selects DefaultHost. The API is
// unauthenticated.
func NewClientConfig(host string) client.Config {
	if host == "" {
		host = DefaultHost
	}
	cfg := client.DefaultConfig(host)
	cfg.Headers = map[string]string{"Accept": "application/json"}
	return cfg
}

// Operator fetches breweries through a request client.
type Operator struct {
	client    *client.Client
	paginator pagination.Config
	endpoint  string
	logger    zerolog.Logger
}

// OperatorConfig holds operator configuration.
type OperatorConfig struct {
	// Pagination configures throttling and the page cap
	Pagination pagination.Config

	// Logger defaults to a "openbrewery" component logger
	Logger *zerolog.Logger
}

// NewOperator creates an operator over c.
func NewOperator(c *client.Client, cfg OperatorConfig) *Operator {
	logger := logging.NewLogger("openbrewery")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	if cfg.Pagination.Logger == nil {
		cfg.Pagination.Logger = &logger
	}

	return &Operator{
		client:    c,
		paginator: cfg.Pagination,
		endpoint:  BreweriesEndpoint,
		logger:    logger,
	}
}

// FetchBreweries returns every brewery, perPage records per request. A
// non-positive perPage selects DefaultPerPage. A failing page ends the
// fetch with the breweries gathered so far.
func (o *Operator) FetchBreweries(ctx context.Context, perPage int) []map[string]any {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	o.logger.Info().
		Str("endpoint", o.endpoint).
		Int("per_page", perPage).
		Msg("Starting paginated fetch for all breweries")

	source := pagination.NewClientSource(o.client, o.endpoint, nil, "")
	breweries := pagination.New(source, o.paginator).FetchAll(ctx, perPage)

	o.logger.Info().Int("breweries", len(breweries)).Msg("Fetched breweries")
	return breweries
}
