// Package dbmigrate wires pgx/v5 connection pooling and golang-migrate
// schema migrations together, mirroring the teacher's pkg/database/client.go
// (pgx-stdlib driver registration + //go:embed migrations + golang-migrate),
// minus the ent.Client it used to wrap — see DESIGN.md for why ent itself
// was dropped.
package dbmigrate

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client wraps a pgx connection pool and exposes migration control,
// analogous to the teacher's database.Client wrapping *ent.Client + *sql.DB.
type Client struct {
	Pool *pgxpool.Pool
	dsn  string
}

// NewClient connects to Postgres and returns a ready Client. Callers should
// call Migrate before using Pool for the job/session stores.
func NewClient(ctx context.Context, dsn string) (*Client, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return &Client{Pool: pool, dsn: dsn}, nil
}

// Migrate applies all pending embedded migrations.
func (c *Client) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, c.dsn)
	if err != nil {
		return fmt.Errorf("failed to construct migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() { c.Pool.Close() }

// Health reports whether the database is reachable, mirroring the teacher's
// database.Health helper used by the /health endpoint.
func Health(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	if err := pool.Ping(ctx); err != nil {
		return "unreachable", err
	}
	return "healthy", nil
}
