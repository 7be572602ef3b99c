//go:build integration

package warehouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"google.golang.org/api/option"
)

const (
	emulatorProject = "test-project"
	emulatorDataset = "operations"
)

// setupEmulator starts a BigQuery emulator container and returns a
// connector pointed at it.
func setupEmulator(t *testing.T) *Connector {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "ghcr.io/goccy/bigquery-emulator:latest",
		ExposedPorts: []string{"9050/tcp"},
		Cmd:          []string{"--project=" + emulatorProject, "--dataset=" + emulatorDataset},
		WaitingFor:   wait.ForListeningPort("9050/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start BigQuery emulator: %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "9050")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	nop := zerolog.Nop()
	c, err := NewConnector(ctx, Config{
		ProjectID: emulatorProject,
		Options: []option.ClientOption{
			option.WithEndpoint(fmt.Sprintf("http://%s:%s", host, port.Port())),
			option.WithoutAuthentication(),
		},
		Logger: &nop,
	})
	if err != nil {
		t.Fatalf("NewConnector() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestIntegration_TableLifecycle(t *testing.T) {
	c := setupEmulator(t)
	ctx := context.Background()

	columns := []Column{
		{Name: "id", Type: bigquery.StringFieldType},
		{Name: "name", Type: bigquery.StringFieldType},
	}
	if err := c.CreateTable(ctx, emulatorDataset, "breweries", columns, true); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if err := c.CreateTable(ctx, emulatorDataset, "breweries", columns, true); err != nil {
		t.Errorf("CreateTable(existOK) on existing table error = %v", err)
	}

	fields, err := c.TableSchema(ctx, emulatorDataset, "breweries")
	if err != nil {
		t.Fatalf("TableSchema() error = %v", err)
	}
	if len(fields) != 2 || fields[0].Name != "id" || fields[1].Name != "name" {
		t.Errorf("TableSchema() = %+v", fields)
	}

	if _, err := c.ExecuteQuery(ctx, "INSERT INTO `operations.breweries` (id, name) VALUES ('1', 'Hoppy')"); err != nil {
		t.Fatalf("ExecuteQuery() error = %v", err)
	}

	rows, err := c.QueryRows(ctx, "SELECT id, name FROM `operations.breweries`")
	if err != nil {
		t.Fatalf("QueryRows() error = %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Hoppy" {
		t.Errorf("QueryRows() = %v", rows)
	}

	if err := c.DropTable(ctx, emulatorDataset, "breweries"); err != nil {
		t.Errorf("DropTable() error = %v", err)
	}
	if err := c.DropTable(ctx, emulatorDataset, "breweries"); err != nil {
		t.Errorf("DropTable() on missing table error = %v", err)
	}
}
