package warehouse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
)

// DefaultNullMarker replaces missing and null values before loading.
const DefaultNullMarker = "NULL"

// Columns returns the union of the record keys in first-seen order. Keys
// new in a record are taken in sorted order.
func Columns(records []map[string]any) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, record := range records {
		keys := make([]string, 0, len(record))
		for key := range record {
			if !seen[key] {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			seen[key] = true
			columns = append(columns, key)
		}
	}
	return columns
}

// StringSchema returns an all-STRING schema over columns.
func StringSchema(columns []string) bigquery.Schema {
	schema := make(bigquery.Schema, len(columns))
	for i, name := range columns {
		schema[i] = &bigquery.FieldSchema{Name: name, Type: bigquery.StringFieldType}
	}
	return schema
}

// Stringify converts one value to its load representation. nil becomes
// nullMarker; nested objects and arrays are JSON-encoded.
func Stringify(v any, nullMarker string) string {
	switch val := v.(type) {
	case nil:
		return nullMarker
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}

// StringRows coerces every column of every record to a string. Columns a
// record lacks are filled with nullMarker.
func StringRows(records []map[string]any, columns []string, nullMarker string) []map[string]string {
	rows := make([]map[string]string, len(records))
	for i, record := range records {
		row := make(map[string]string, len(columns))
		for _, column := range columns {
			row[column] = Stringify(record[column], nullMarker)
		}
		rows[i] = row
	}
	return rows
}

// encodeNDJSON writes rows as newline-delimited JSON.
func encodeNDJSON(rows []map[string]string) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	return &buf, nil
}
