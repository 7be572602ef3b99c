// Package pipeline runs one ingestion: fetch every brewery, stamp the
// records with the fetch time, optionally dump them to a local JSON file,
// and load them into the warehouse.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/openbrewery-elt/pkg/logging"
	"github.com/Sternrassler/openbrewery-elt/pkg/warehouse"
	"github.com/rs/zerolog"
)

// FetchedAtColumn is the column holding the fetch timestamp.
const FetchedAtColumn = "fetched_at"

// Fetcher returns the full source collection. A failing page ends the
// fetch early; it never reports an error.
type Fetcher interface {
	FetchBreweries(ctx context.Context, perPage int) []map[string]any
}

// Loader writes records to a warehouse table.
type Loader interface {
	LoadRecords(ctx context.Context, records []map[string]any, dataset, table string, opts warehouse.LoadOptions) (*warehouse.LoadResult, error)
}

// Config holds the parameters of a run.
type Config struct {
	Dataset string
	Table   string
	PerPage int

	// OutputFile receives the stamped records as JSON (empty = skip)
	OutputFile string

	// Load defaults to warehouse.DefaultLoadOptions (replace the table)
	Load *warehouse.LoadOptions

	// Now defaults to time.Now
	Now func() time.Time

	// Logger defaults to a "pipeline" component logger
	Logger *zerolog.Logger
}

// Result summarizes a run.
type Result struct {
	Records    int
	FetchedAt  time.Time
	OutputFile string
	Load       *warehouse.LoadResult
}

// Run executes one ingestion. A fetch that returns nothing ends the run
// without touching the file or the warehouse. File and load errors are
// returned unchanged in kind.
func Run(ctx context.Context, fetcher Fetcher, loader Loader, cfg Config) (*Result, error) {
	logger := logging.NewLogger("pipeline")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	loadOpts := warehouse.DefaultLoadOptions()
	if cfg.Load != nil {
		loadOpts = *cfg.Load
	}

	records := fetcher.FetchBreweries(ctx, cfg.PerPage)
	if len(records) == 0 {
		logger.Error().Msg("No data fetched or API returned an error")
		return &Result{}, nil
	}
	logger.Info().Int("records", len(records)).Msg("Fetched breweries")

	fetchedAt := now().UTC()
	Stamp(records, fetchedAt)
	result := &Result{Records: len(records), FetchedAt: fetchedAt}

	if cfg.OutputFile != "" {
		if err := WriteJSONFile(cfg.OutputFile, records); err != nil {
			return nil, err
		}
		result.OutputFile = cfg.OutputFile
		logger.Info().Str("path", cfg.OutputFile).Msg("Saved records locally")
	}

	load, err := loader.LoadRecords(ctx, records, cfg.Dataset, cfg.Table, loadOpts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", warehouse.TableID(cfg.Dataset, cfg.Table), err)
	}
	result.Load = load

	logger.Info().
		Str("table", warehouse.TableID(cfg.Dataset, cfg.Table)).
		Int("records", result.Records).
		Msg("Data successfully loaded")

	return result, nil
}

// Stamp sets FetchedAtColumn on every record in place.
func Stamp(records []map[string]any, at time.Time) {
	for _, record := range records {
		record[FetchedAtColumn] = at
	}
}
