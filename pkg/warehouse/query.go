package warehouse

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// ExecuteQuery runs a statement and waits for it to finish.
func (c *Connector) ExecuteQuery(ctx context.Context, query string) (*bigquery.Job, error) {
	c.logger.Info().Str("query", query).Msg("Executing query")

	job, err := c.client.Query(query).Run(ctx)
	if err != nil {
		jobsTotal.WithLabelValues("query", "error").Inc()
		return nil, fmt.Errorf("run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err == nil {
		err = status.Err()
	}
	if err != nil {
		jobsTotal.WithLabelValues("query", "error").Inc()
		c.logger.Error().Err(err).Str("job_id", job.ID()).Msg("Query failed")
		return nil, fmt.Errorf("query job %s: %w", job.ID(), err)
	}
	jobsTotal.WithLabelValues("query", "ok").Inc()
	return job, nil
}

// QueryRows runs a query and returns every result row keyed by column.
func (c *Connector) QueryRows(ctx context.Context, query string) ([]map[string]bigquery.Value, error) {
	it, err := c.client.Query(query).Read(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error executing query")
		return nil, fmt.Errorf("read query: %w", err)
	}

	var rows []map[string]bigquery.Value
	for {
		row := make(map[string]bigquery.Value)
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MergeDelta merges dataset.table_delta into dataset.table on joinKeys,
// updating every main-table column. A non-empty updatedCol only lets newer
// delta rows overwrite matched rows.
func (c *Connector) MergeDelta(ctx context.Context, dataset, table string, joinKeys []string, updatedCol string) (*bigquery.Job, error) {
	fields, err := c.TableSchema(ctx, dataset, table)
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	query, err := MergeSQL(dataset, table, columns, joinKeys, updatedCol)
	if err != nil {
		return nil, err
	}
	return c.ExecuteQuery(ctx, query)
}
