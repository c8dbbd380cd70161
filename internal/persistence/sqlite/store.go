package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/ticket-queue/internal/persistence"
	"github.com/example/ticket-queue/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store implements persistence.QueueStore on a single SQLite file.
type Store struct {
	pool *ConnectionPool
}

var _ persistence.QueueStore = (*Store)(nil)

// Open connects to the database described by cfg. Call Migrate before use.
func Open(cfg Config) (*Store, error) {
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.pool.DB()),
		logger,
	)
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// WithinTx runs fn inside an IMMEDIATE transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx persistence.QueueTx) error) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&queries{q: tx})
	})
}

// ReadTx runs fn inside a read-only transaction so every read sees one snapshot.
func (s *Store) ReadTx(ctx context.Context, fn func(r persistence.QueueReader) error) error {
	return s.pool.WithReadOnlyTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&queries{q: tx})
	})
}
