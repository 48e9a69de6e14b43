// Package dbtest provides a shared Postgres testcontainers helper, mirroring
// the teacher's test/database package: spin up a real Postgres (or reuse an
// external CI instance via CI_DATABASE_URL), run migrations, and hand back a
// ready client with automatic teardown.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shacharon/pizzasearch/internal/dbmigrate"
)

// NewTestClient returns a migrated *dbmigrate.Client backed either by an
// external CI database (CI_DATABASE_URL) or a disposable testcontainer.
func NewTestClient(t *testing.T) *dbmigrate.Client {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv("CI_DATABASE_URL")
	if dsn == "" {
		t.Log("using testcontainers for postgres")
		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := testcontainers.TerminateContainer(container); err != nil {
				t.Logf("failed to terminate container: %v", err)
			}
		})

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
		dsn = connStr
	} else {
		t.Log("using external postgres from CI_DATABASE_URL")
	}

	client, err := dbmigrate.NewClient(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	require.NoError(t, client.Migrate())
	return client
}
