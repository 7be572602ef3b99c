package warehouse

import (
	"errors"
	"testing"
)

func TestMergeSQL(t *testing.T) {
	got, err := MergeSQL("operations", "breweries", []string{"id", "name", "updated_at"}, []string{"id"}, "updated_at")
	if err != nil {
		t.Fatalf("MergeSQL() error = %v", err)
	}

	want := "MERGE `operations.breweries` main\n" +
		"USING `operations.breweries_delta` delta\n" +
		"ON main.id = delta.id\n" +
		"WHEN MATCHED AND main.updated_at < delta.updated_at THEN\n" +
		"  UPDATE SET id = delta.id, name = delta.name, updated_at = delta.updated_at\n" +
		"WHEN NOT MATCHED THEN\n" +
		"  INSERT (id, name, updated_at)\n" +
		"  VALUES (delta.id, delta.name, delta.updated_at)"
	if got != want {
		t.Errorf("MergeSQL() =\n%s\nwant\n%s", got, want)
	}
}

func TestMergeSQL_CompositeKeyWithoutGate(t *testing.T) {
	got, err := MergeSQL("ops", "t", []string{"a", "b", "v"}, []string{"a", "b"}, "")
	if err != nil {
		t.Fatalf("MergeSQL() error = %v", err)
	}

	want := "MERGE `ops.t` main\n" +
		"USING `ops.t_delta` delta\n" +
		"ON main.a = delta.a AND main.b = delta.b\n" +
		"WHEN MATCHED AND true THEN\n" +
		"  UPDATE SET a = delta.a, b = delta.b, v = delta.v\n" +
		"WHEN NOT MATCHED THEN\n" +
		"  INSERT (a, b, v)\n" +
		"  VALUES (delta.a, delta.b, delta.v)"
	if got != want {
		t.Errorf("MergeSQL() =\n%s\nwant\n%s", got, want)
	}
}

func TestMergeSQL_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		dataset    string
		table      string
		columns    []string
		joinKeys   []string
		updatedCol string
		wantErr    error
	}{
		{"no join keys", "ops", "t", []string{"id"}, nil, "", ErrNoJoinKeys},
		{"no columns", "ops", "t", nil, []string{"id"}, "", ErrInvalidIdentifier},
		{"bad column", "ops", "t", []string{"id; drop"}, []string{"id"}, "", ErrInvalidIdentifier},
		{"bad key", "ops", "t", []string{"id"}, []string{"1id"}, "", ErrInvalidIdentifier},
		{"bad gate", "ops", "t", []string{"id"}, []string{"id"}, "x`y", ErrInvalidIdentifier},
		{"bad table", "ops", "t`", []string{"id"}, []string{"id"}, "", ErrInvalidIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MergeSQL(tt.dataset, tt.table, tt.columns, tt.joinKeys, tt.updatedCol)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("MergeSQL() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateFromExistingSQL(t *testing.T) {
	tests := []struct {
		name    string
		replace bool
		want    string
	}{
		{
			name: "if not exists",
			want: "CREATE TABLE IF NOT EXISTS `ops.breweries_delta` AS\nSELECT * FROM `ops.breweries`\nWHERE FALSE",
		},
		{
			name:    "replace",
			replace: true,
			want:    "CREATE OR REPLACE TABLE `ops.breweries_delta` AS\nSELECT * FROM `ops.breweries`\nWHERE FALSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateFromExistingSQL("ops", "breweries", "breweries_delta", tt.replace)
			if err != nil {
				t.Fatalf("CreateFromExistingSQL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CreateFromExistingSQL() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := CreateFromExistingSQL("ops", "a b", "c", false); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("expected ErrInvalidIdentifier, got %v", err)
	}
}
