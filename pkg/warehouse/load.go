package warehouse

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
)

// LoadOptions controls a load job.
type LoadOptions struct {
	// WriteDisposition defaults to WRITE_TRUNCATE
	WriteDisposition bigquery.TableWriteDisposition

	// CreateDisposition defaults to CREATE_IF_NEEDED
	CreateDisposition bigquery.TableCreateDisposition

	// NullMarker replaces null and missing values, default "NULL"
	NullMarker string

	// MaxBadRecords is the number of rows the job may reject
	MaxBadRecords int

	// Columns fixes the column order; nil derives it with Columns
	Columns []string
}

// DefaultLoadOptions returns a replace-the-table load.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		WriteDisposition:  bigquery.WriteTruncate,
		CreateDisposition: bigquery.CreateIfNeeded,
		NullMarker:        DefaultNullMarker,
	}
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.WriteDisposition == "" {
		o.WriteDisposition = bigquery.WriteTruncate
	}
	if o.CreateDisposition == "" {
		o.CreateDisposition = bigquery.CreateIfNeeded
	}
	if o.NullMarker == "" {
		o.NullMarker = DefaultNullMarker
	}
	return o
}

// LoadResult describes a finished load job.
type LoadResult struct {
	JobID   string
	Rows    uint64
	Columns int
}

// LoadRecords loads records into dataset.table with every column typed
// STRING. Any failure is returned wrapped in ErrLoad.
func (c *Connector) LoadRecords(ctx context.Context, records []map[string]any, dataset, table string, opts LoadOptions) (*LoadResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrLoad, ErrNoRecords)
	}
	opts = opts.withDefaults()
	tableID := TableID(dataset, table)
	start := time.Now()

	columns := opts.Columns
	if columns == nil {
		columns = Columns(records)
	}

	body, err := encodeNDJSON(StringRows(records, columns, opts.NullMarker))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	src := bigquery.NewReaderSource(body)
	src.SourceFormat = bigquery.JSON
	src.Schema = StringSchema(columns)
	src.MaxBadRecords = int64(opts.MaxBadRecords)
	src.IgnoreUnknownValues = true

	ref := c.client.Dataset(dataset).Table(table)
	loader := ref.LoaderFrom(src)
	loader.WriteDisposition = opts.WriteDisposition
	loader.CreateDisposition = opts.CreateDisposition

	c.logger.Info().
		Str("table", tableID).
		Int("records", len(records)).
		Str("write_disposition", string(opts.WriteDisposition)).
		Msg("Loading records")

	job, err := loader.Run(ctx)
	if err != nil {
		jobsTotal.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	status, err := job.Wait(ctx)
	if err == nil {
		err = status.Err()
	}
	if err != nil {
		jobsTotal.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("%w: job %s: %w", ErrLoad, job.ID(), err)
	}
	jobsTotal.WithLabelValues("load", "ok").Inc()

	meta, err := ref.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read metadata of %s: %w", ErrLoad, tableID, err)
	}
	rowsLoadedTotal.Add(float64(len(records)))

	result := &LoadResult{JobID: job.ID(), Rows: meta.NumRows, Columns: len(meta.Schema)}
	c.logger.Info().
		Str("table", tableID).
		Uint64("rows", result.Rows).
		Int("columns", result.Columns).
		Dur("duration", time.Since(start)).
		Msg("Load complete")

	return result, nil
}
