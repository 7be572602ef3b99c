package warehouse

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// Column is a column definition for CreateTable.
type Column struct {
	Name string
	Type bigquery.FieldType
}

// FieldInfo describes one column of an existing table.
type FieldInfo struct {
	Name        string
	FieldType   string
	Mode        string
	Description string
}

// CreateTable creates dataset.table with columns in order. With existOK an
// existing table is not an error.
func (c *Connector) CreateTable(ctx context.Context, dataset, table string, columns []Column, existOK bool) error {
	schema := make(bigquery.Schema, len(columns))
	for i, col := range columns {
		schema[i] = &bigquery.FieldSchema{Name: col.Name, Type: col.Type}
	}

	err := c.client.Dataset(dataset).Table(table).Create(ctx, &bigquery.TableMetadata{Schema: schema})
	switch {
	case err == nil:
		c.logger.Info().Str("table", TableID(dataset, table)).Msg("Table created")
		return nil
	case existOK && isAlreadyExists(err):
		c.logger.Debug().Str("table", TableID(dataset, table)).Msg("Table already exists")
		return nil
	default:
		return fmt.Errorf("create table %s: %w", TableID(dataset, table), err)
	}
}

// CreateTableFromExisting creates dataset.target with the schema of
// dataset.source and no rows. With replace an existing target is replaced;
// otherwise it is left as is.
func (c *Connector) CreateTableFromExisting(ctx context.Context, dataset, source, target string, replace bool) (*bigquery.Job, error) {
	query, err := CreateFromExistingSQL(dataset, source, target, replace)
	if err != nil {
		return nil, err
	}
	return c.ExecuteQuery(ctx, query)
}

// DropTable deletes dataset.table. A missing table is not an error.
func (c *Connector) DropTable(ctx context.Context, dataset, table string) error {
	err := c.client.Dataset(dataset).Table(table).Delete(ctx)
	if err != nil && !isNotFound(err) {
		c.logger.Error().Err(err).Str("table", TableID(dataset, table)).Msg("Failed to drop table")
		return fmt.Errorf("drop table %s: %w", TableID(dataset, table), err)
	}
	c.logger.Info().Str("table", TableID(dataset, table)).Msg("Table dropped")
	return nil
}

// TableSchema returns the columns of dataset.table.
func (c *Connector) TableSchema(ctx context.Context, dataset, table string) ([]FieldInfo, error) {
	meta, err := c.client.Dataset(dataset).Table(table).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("get table %s: %w", TableID(dataset, table), err)
	}
	return fieldInfos(meta.Schema), nil
}

func fieldInfos(schema bigquery.Schema) []FieldInfo {
	fields := make([]FieldInfo, len(schema))
	for i, f := range schema {
		fields[i] = FieldInfo{
			Name:        f.Name,
			FieldType:   string(f.Type),
			Mode:        fieldMode(f),
			Description: f.Description,
		}
	}
	return fields
}

func fieldMode(f *bigquery.FieldSchema) string {
	switch {
	case f.Repeated:
		return "REPEATED"
	case f.Required:
		return "REQUIRED"
	default:
		return "NULLABLE"
	}
}
