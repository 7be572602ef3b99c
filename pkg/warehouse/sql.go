package warehouse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DeltaSuffix names the staging table merged into a main table.
const DeltaSuffix = "_delta"

var (
	// ErrInvalidIdentifier is returned for names that cannot be spliced
	// into SQL.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrNoJoinKeys is returned when a merge has nothing to join on.
	ErrNoJoinKeys = errors.New("at least one join key is required")

	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	tablePattern      = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func checkColumns(names ...string) error {
	for _, name := range names {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, name)
		}
	}
	return nil
}

func checkTables(names ...string) error {
	for _, name := range names {
		if !tablePattern.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	return nil
}

// MergeSQL builds a MERGE of dataset.table_delta into dataset.table on
// joinKeys. Matched rows are updated only when updatedCol is empty or
// main.updatedCol < delta.updatedCol; unmatched rows are inserted. Every
// column in columns is updated and inserted.
func MergeSQL(dataset, table string, columns, joinKeys []string, updatedCol string) (string, error) {
	if len(joinKeys) == 0 {
		return "", ErrNoJoinKeys
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("%w: table %s has no columns", ErrInvalidIdentifier, table)
	}
	if err := checkTables(dataset, table); err != nil {
		return "", err
	}
	if err := checkColumns(append(append([]string{}, columns...), joinKeys...)...); err != nil {
		return "", err
	}

	on := make([]string, len(joinKeys))
	for i, key := range joinKeys {
		on[i] = fmt.Sprintf("main.%s = delta.%s", key, key)
	}

	gate := "true"
	if updatedCol != "" {
		if err := checkColumns(updatedCol); err != nil {
			return "", err
		}
		gate = fmt.Sprintf("main.%s < delta.%s", updatedCol, updatedCol)
	}

	set := make([]string, len(columns))
	values := make([]string, len(columns))
	for i, col := range columns {
		set[i] = fmt.Sprintf("%s = delta.%s", col, col)
		values[i] = "delta." + col
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE `%s` main\n", TableID(dataset, table))
	fmt.Fprintf(&b, "USING `%s` delta\n", TableID(dataset, table+DeltaSuffix))
	fmt.Fprintf(&b, "ON %s\n", strings.Join(on, " AND "))
	fmt.Fprintf(&b, "WHEN MATCHED AND %s THEN\n", gate)
	fmt.Fprintf(&b, "  UPDATE SET %s\n", strings.Join(set, ", "))
	b.WriteString("WHEN NOT MATCHED THEN\n")
	fmt.Fprintf(&b, "  INSERT (%s)\n", strings.Join(columns, ", "))
	fmt.Fprintf(&b, "  VALUES (%s)", strings.Join(values, ", "))
	return b.String(), nil
}

// CreateFromExistingSQL builds a statement creating an empty copy of
// dataset.source named dataset.target.
func CreateFromExistingSQL(dataset, source, target string, replace bool) (string, error) {
	if err := checkTables(dataset, source, target); err != nil {
		return "", err
	}

	verb := "CREATE TABLE IF NOT EXISTS"
	if replace {
		verb = "CREATE OR REPLACE TABLE"
	}
	return fmt.Sprintf("%s `%s` AS\nSELECT * FROM `%s`\nWHERE FALSE",
		verb, TableID(dataset, target), TableID(dataset, source)), nil
}
