// Package warehouse loads records into BigQuery and runs the table and
// SQL helpers of the ingestion: merge of a delta table, create, clone
// empty, drop, schema lookup and ad-hoc queries.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/Sternrassler/openbrewery-elt/pkg/logging"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultLocation is the dataset location jobs run in.
const DefaultLocation = "EU"

var (
	// ErrMissingProject is returned when no project ID is configured.
	ErrMissingProject = errors.New("project id is required")

	// ErrLoad wraps every failure of a load job.
	ErrLoad = errors.New("bigquery load error")

	// ErrNoRecords is returned when a load is asked to write nothing.
	ErrNoRecords = errors.New("no records to load")
)

// Config holds connector configuration.
type Config struct {
	// ProjectID is the billing and default project (REQUIRED)
	ProjectID string

	// CredentialsFile is a service account or workload identity
	// credentials file (optional, falls back to application defaults)
	CredentialsFile string

	// Location defaults to EU
	Location string

	// Options are passed to the BigQuery client, e.g. an emulator endpoint
	Options []option.ClientOption

	// Logger defaults to a "warehouse" component logger
	Logger *zerolog.Logger
}

// Connector wraps a BigQuery client.
type Connector struct {
	client *bigquery.Client
	logger zerolog.Logger
}

// NewConnector creates a BigQuery connector.
func NewConnector(ctx context.Context, cfg Config) (*Connector, error) {
	if cfg.ProjectID == "" {
		return nil, ErrMissingProject
	}
	if cfg.Location == "" {
		cfg.Location = DefaultLocation
	}

	opts := append([]option.ClientOption(nil), cfg.Options...)
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	client.Location = cfg.Location

	logger := logging.NewLogger("warehouse")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Connector{client: client, logger: logger}, nil
}

// Close releases the underlying client.
func (c *Connector) Close() error {
	return c.client.Close()
}

// TableID returns the "dataset.table" form used in SQL and logs.
func TableID(dataset, table string) string {
	return dataset + "." + table
}

// hasStatus reports whether err is a BigQuery API error with code.
func hasStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func isNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

func isAlreadyExists(err error) bool { return hasStatus(err, http.StatusConflict) }
