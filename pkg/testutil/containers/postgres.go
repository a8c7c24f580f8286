//go:build integration

package containers

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers Postgres instance with both
// database/sql and pgx handles, matching the two driver stacks the stores
// use.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
	Pool      *pgxpool.Pool
}

// NewPostgresContainer starts a Postgres container and applies the repo
// schema. The container is terminated on test cleanup.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("bloodline"),
		tcpostgres.WithUsername("bloodline"),
		tcpostgres.WithPassword("bloodline"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(ctx, loadSchema(t)); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("failed to open pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return &PostgresContainer{
		Container: container,
		URL:       url,
		DB:        db,
		Pool:      pool,
	}
}

// loadSchema resolves schema.sql relative to this file so tests pass
// regardless of the package they run from.
func loadSchema(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to resolve schema path")
	}
	path := filepath.Join(filepath.Dir(file), "..", "..", "..", "schema.sql")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	return string(raw)
}

// TruncateTables empties the given tables so suites can share one container
// across tests.
func (c *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := c.DB.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			return err
		}
	}
	return nil
}
