// Package postgres implements the relational-store side of the pipeline:
// the publisher account and quota registry.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Manager owns the connection pool and exposes the publisher store.
type Manager struct {
	pool      *pgxpool.Pool
	logger    *common.Logger
	publisher *PublisherStore
}

// NewManager connects to Postgres, applies pending migrations, and wires the
// publisher store.
func NewManager(ctx context.Context, logger *common.Logger, config *common.Config) (*Manager, error) {
	pool, err := pgxpool.New(ctx, config.Storage.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	if err := runMigrations(config.Storage.Postgres.URL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	m := &Manager{
		pool:      pool,
		logger:    logger,
		publisher: NewPublisherStore(pool, logger),
	}

	logger.Info().Msg("Postgres publisher registry initialized")
	return m, nil
}

func runMigrations(databaseURL string) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, pgx5URL(databaseURL))
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// pgx5URL rewrites a postgres:// DSN to the pgx5:// scheme the pgx/v5
// migrate driver registers itself under.
func pgx5URL(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return databaseURL
	}
	u.Scheme = "pgx5"
	return u.String()
}

// Publisher returns the publisher store.
func (m *Manager) Publisher() interfaces.PublisherStore {
	return m.publisher
}

// Pool exposes the underlying pool for health checks.
func (m *Manager) Pool() *pgxpool.Pool {
	return m.pool
}

// Close closes the connection pool.
func (m *Manager) Close() error {
	m.pool.Close()
	return nil
}
