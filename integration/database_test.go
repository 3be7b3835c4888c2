//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestFindWithMySQL tests the acfperiod CLI with a MySQL backend.
func TestFindWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "acfperiod",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/acfperiod?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestFindWithPostgres tests the acfperiod CLI with a PostgreSQL backend.
func TestFindWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario drives the CLI through clear, find, status and migrate
// with both stores on the given backend, configured through the environment.
func runBackendScenario(t *testing.T, backend, connStr string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("ACFPERIOD_CACHE_BACKEND", backend)
	t.Setenv("ACFPERIOD_CACHE_DB_CONNECT", connStr)
	t.Setenv("ACFPERIOD_ANALYSIS_BACKEND", backend)
	t.Setenv("ACFPERIOD_ANALYSIS_DB_CONNECT", connStr)

	_, err := runCommand(t, dir, "cache", "clear")
	require.NoError(t, err)
	_, err = runCommand(t, dir, "analysis", "clear")
	require.NoError(t, err)

	paths := synthCurves(t, dir, 2, 6.0)
	first := findJSON(t, dir, nil, paths...)
	require.Len(t, first, 2)
	for _, o := range first {
		assert.Empty(t, o.Error, o.Path)
		assert.False(t, o.Cached, o.Path)
	}

	second := findJSON(t, dir, nil, paths...)
	for _, o := range second {
		assert.True(t, o.Cached, o.Path)
	}

	out, err := runCommand(t, dir, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Entries: 2")

	out, err = runCommand(t, dir, "analysis", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")

	out, err = runCommand(t, dir, "analysis", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "version 1")
}
