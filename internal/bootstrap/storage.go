// Package bootstrap opens the configured storage backend for the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"

	"github.com/samirrijal/geodrop/internal/adapters/postgres"
	"github.com/samirrijal/geodrop/internal/adapters/sqlite"
	"github.com/samirrijal/geodrop/internal/core/ports"
	"github.com/samirrijal/geodrop/internal/pkg/config"
	"github.com/samirrijal/geodrop/internal/pkg/metrics"
)

// Store bundles the repositories of one backend.
type Store struct {
	Driver string
	Offers ports.OfferRepository
	Notes  ports.NoteRepository

	ping     func(ctx context.Context) error
	migrator func() (*migrate.Migrate, error)
	close    func()
	pg       *postgres.DB
}

// Ping checks the backend is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

// Migrator returns a golang-migrate instance for the backend's embedded schema.
func (s *Store) Migrator() (*migrate.Migrate, error) { return s.migrator() }

// Close releases the backend.
func (s *Store) Close() { s.close() }

// OpenStore connects to the backend named by cfg.Driver. SQLite databases are
// migrated on open; Postgres is migrated only when migrateUp is set.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, migrateUp bool) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DSN(), cfg.MaxConns, cfg.QueryTimeoutDuration())
		if err != nil {
			return nil, err
		}
		if migrateUp {
			if err := postgres.Migrate(db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &Store{
			Driver:   cfg.Driver,
			Offers:   postgres.NewOfferRepo(db),
			Notes:    postgres.NewNoteRepo(db),
			ping:     db.Ping,
			migrator: func() (*migrate.Migrate, error) { return postgres.NewMigrator(db) },
			close:    db.Close,
			pg:       db,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath, cfg.QueryTimeoutDuration())
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver:   cfg.Driver,
			Offers:   sqlite.NewOfferRepo(db),
			Notes:    sqlite.NewNoteRepo(db),
			ping:     db.Ping,
			migrator: func() (*migrate.Migrate, error) { return sqlite.NewMigrator(db) },
			close: func() {
				if err := db.Close(); err != nil {
					slog.Warn("close sqlite", "error", err)
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// ReportPoolStats copies connection pool stats into the Prometheus gauges
// every interval until ctx is done. It is a no-op for SQLite.
func (s *Store) ReportPoolStats(ctx context.Context, interval time.Duration) {
	if s.pg == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(s.pg.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()
}
