package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Status estado de una migración para el comando status.
type Status struct {
	Version int64
	Path    string
	Applied bool
}

// Migrator envuelve un goose.Provider sobre el esquema del dialecto indicado.
type Migrator struct {
	provider *goose.Provider
	log      zerolog.Logger
}

// New construye el migrador. driver: "postgres" o "sqlite".
func New(db *sql.DB, driver string, log zerolog.Logger) (*Migrator, error) {
	dialect, dir, err := gooseDialect(driver)
	if err != nil {
		return nil, err
	}
	fsys, err := fs.Sub(files, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: p, log: log}, nil
}

// Up aplica todas las migraciones pendientes.
func (m *Migrator) Up(ctx context.Context) error {
	res, err := m.provider.Up(ctx)
	if err != nil {
		if isNoMigrationErr(err) {
			m.log.Info().Msg("no hay migraciones pendientes")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	m.log.Info().Int("applied", len(res)).Msg("migraciones aplicadas")
	return nil
}

// Down revierte migraciones. steps <= 0 equivale a 1; all=true revierte todo.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		res, err := m.provider.DownTo(ctx, 0)
		if err != nil {
			if isNoMigrationErr(err) {
				m.log.Info().Msg("no hay migraciones para revertir")
				return nil
			}
			return fmt.Errorf("migrate down: %w", err)
		}
		m.log.Info().Int("reverted", len(res)).Str("mode", "all").Msg("migraciones revertidas")
		return nil
	}

	if steps <= 0 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		if _, err := m.provider.Down(ctx); err != nil {
			if isNoMigrationErr(err) {
				m.log.Info().Msg("no hay migraciones para revertir")
				return nil
			}
			return fmt.Errorf("migrate down: %w", err)
		}
	}
	m.log.Info().Int("steps", steps).Msg("migraciones revertidas")
	return nil
}

// Status lista las migraciones conocidas y si están aplicadas.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	st, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate status: %w", err)
	}
	out := make([]Status, 0, len(st))
	for _, s := range st {
		out = append(out, Status{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

func gooseDialect(driver string) (goose.Dialect, string, error) {
	switch driver {
	case "postgres", "pg":
		return goose.DialectPostgres, "postgres", nil
	case "sqlite", "sqlite3":
		return goose.DialectSQLite3, "sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}
	return strings.Contains(err.Error(), "no migrations")
}
