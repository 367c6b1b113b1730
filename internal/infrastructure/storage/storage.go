// Package storage abre el almacenamiento configurado (PostgreSQL o SQLite) para la API y las migraciones.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/jhoicas/jugueria-api/internal/domain/repository"
	"github.com/jhoicas/jugueria-api/internal/infrastructure/migrations"
	"github.com/jhoicas/jugueria-api/internal/infrastructure/postgres"
	"github.com/jhoicas/jugueria-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/jugueria-api/pkg/config"
)

// Handle store de registros más el *sql.DB que usa goose.
type Handle struct {
	Driver string
	Store  repository.RecordStore
	DB     *sql.DB
	close  func()
}

// Open conecta según cfg.Driver. Con PostgreSQL el *sql.DB comparte el pool de pgx.
func Open(ctx context.Context, cfg config.DBConfig) (*Handle, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		db := stdlib.OpenDBFromPool(pool)
		return &Handle{
			Driver: config.DriverPostgres,
			Store:  postgres.NewStore(pool),
			DB:     db,
			close: func() {
				_ = db.Close()
				pool.Close()
			},
		}, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Handle{
			Driver: config.DriverSQLite,
			Store:  store,
			DB:     store.DB(),
			close:  func() { _ = store.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("driver no soportado: %s", cfg.Driver)
	}
}

// Migrator construye el migrador goose para el dialecto del handle.
func (h *Handle) Migrator(log zerolog.Logger) (*migrations.Migrator, error) {
	return migrations.New(h.DB, h.Driver, log)
}

// Close libera las conexiones.
func (h *Handle) Close() {
	if h.close != nil {
		h.close()
	}
}
