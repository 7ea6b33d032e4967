// Package postgres implements service.Storage on PostgreSQL through pgxpool,
// with the schema managed by golang-migrate from embedded SQL files.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/service"
	"github.com/Veraticus/concierge/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ service.Storage = (*Storage)(nil)

// Storage is the PostgreSQL backend.
type Storage struct {
	pool *pgxpool.Pool
	dsn  string
}

// Connect opens a connection pool for dsn and pings it.
func Connect(ctx context.Context, dsn string) (*Storage, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: database DSN", common.ErrMissingConfig)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	slog.Info("Connected to PostgreSQL",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database)

	return &Storage{pool: pool, dsn: dsn}, nil
}

// Migrate applies the embedded migrations.
func (s *Storage) Migrate(_ context.Context) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(s.dsn))
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("Applied migrations",
		"version", version,
		"dirty", dirty)
	return nil
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// runInTx runs fn inside a transaction, committing when it returns nil.
func (s *Storage) runInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// migrateURL rewrites a postgres:// DSN into the pgx5:// scheme golang-migrate expects.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func notFound(what, key string) error {
	return fmt.Errorf("%s %q: %w", what, key, common.ErrNotFound)
}

// jsonArg passes raw JSON to a JSONB column, mapping empty payloads to NULL.
func jsonArg(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// CountRows returns the number of rows in one of the managed tables.
func (s *Storage) CountRows(ctx context.Context, table string) (int, error) {
	if !storage.IsKnownTable(table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
