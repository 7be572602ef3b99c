package warehouse

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func TestNewConnector(t *testing.T) {
	nop := zerolog.Nop()

	if _, err := NewConnector(context.Background(), Config{Logger: &nop}); !errors.Is(err, ErrMissingProject) {
		t.Errorf("NewConnector() error = %v, want ErrMissingProject", err)
	}

	c, err := NewConnector(context.Background(), Config{
		ProjectID: "test-project",
		Options:   []option.ClientOption{option.WithoutAuthentication(), option.WithEndpoint("http://127.0.0.1:1")},
		Logger:    &nop,
	})
	if err != nil {
		t.Fatalf("NewConnector() error = %v", err)
	}
	defer c.Close()

	if c.client.Location != DefaultLocation {
		t.Errorf("Location = %q, want %q", c.client.Location, DefaultLocation)
	}
	if c.client.Project() != "test-project" {
		t.Errorf("Project = %q", c.client.Project())
	}
}

func TestLoadOptions_Defaults(t *testing.T) {
	got := LoadOptions{MaxBadRecords: 3}.withDefaults()

	if got.WriteDisposition != bigquery.WriteTruncate {
		t.Errorf("WriteDisposition = %q", got.WriteDisposition)
	}
	if got.CreateDisposition != bigquery.CreateIfNeeded {
		t.Errorf("CreateDisposition = %q", got.CreateDisposition)
	}
	if got.NullMarker != "NULL" {
		t.Errorf("NullMarker = %q", got.NullMarker)
	}
	if got.MaxBadRecords != 3 {
		t.Errorf("MaxBadRecords = %d", got.MaxBadRecords)
	}

	kept := LoadOptions{WriteDisposition: bigquery.WriteAppend, CreateDisposition: bigquery.CreateNever}.withDefaults()
	if kept.WriteDisposition != bigquery.WriteAppend || kept.CreateDisposition != bigquery.CreateNever {
		t.Errorf("explicit dispositions overridden: %+v", kept)
	}

	defaults, zero := DefaultLoadOptions(), (LoadOptions{}).withDefaults()
	if defaults.WriteDisposition != zero.WriteDisposition || defaults.CreateDisposition != zero.CreateDisposition || defaults.NullMarker != zero.NullMarker {
		t.Errorf("DefaultLoadOptions() = %+v, zero-value defaults = %+v", defaults, zero)
	}
}

func TestLoadRecords_NoRecords(t *testing.T) {
	nop := zerolog.Nop()
	c := &Connector{logger: nop}

	_, err := c.LoadRecords(context.Background(), nil, "ops", "t", DefaultLoadOptions())
	if !errors.Is(err, ErrLoad) || !errors.Is(err, ErrNoRecords) {
		t.Errorf("LoadRecords() error = %v, want ErrLoad and ErrNoRecords", err)
	}
}

func TestAPIErrorStatus(t *testing.T) {
	notFound := fmt.Errorf("delete: %w", &googleapi.Error{Code: 404})
	conflict := &googleapi.Error{Code: 409}

	if !isNotFound(notFound) || isAlreadyExists(notFound) {
		t.Error("404 misclassified")
	}
	if !isAlreadyExists(conflict) || isNotFound(conflict) {
		t.Error("409 misclassified")
	}
	if isNotFound(errors.New("plain")) {
		t.Error("plain error classified as not found")
	}
}

func TestFieldInfos(t *testing.T) {
	schema := bigquery.Schema{
		{Name: "id", Type: bigquery.StringFieldType, Required: true, Description: "brewery id"},
		{Name: "tags", Type: bigquery.StringFieldType, Repeated: true},
		{Name: "name", Type: bigquery.StringFieldType},
	}

	got := fieldInfos(schema)
	want := []FieldInfo{
		{Name: "id", FieldType: "STRING", Mode: "REQUIRED", Description: "brewery id"},
		{Name: "tags", FieldType: "STRING", Mode: "REPEATED"},
		{Name: "name", FieldType: "STRING", Mode: "NULLABLE"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fieldInfos()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTableID(t *testing.T) {
	if got := TableID("operations", "raw_breweries"); got != "operations.raw_breweries" {
		t.Errorf("TableID() = %q", got)
	}
}
