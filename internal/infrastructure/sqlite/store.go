package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
	"github.com/mattn/go-sqlite3"
)

var (
	_ repository.RecordStore = (*Store)(nil)
	_ repository.Tx          = (*txStore)(nil)
)

// Store implementa repository.RecordStore sobre SQLite (desarrollo, embebido y tests).
// Usa una sola conexión: SQLite admite un único escritor a la vez.
type Store struct {
	db *sql.DB
}

// Open crea o abre la base SQLite en path con claves foráneas activas.
// Los DATETIME se leen en la zona horaria local (_loc=auto).
func Open(path string) (*Store, error) {
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000&_loc=auto"
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Store{db: db}, nil
}

// DB expone el *sql.DB subyacente (migraciones).
func (s *Store) DB() *sql.DB { return s.db }

// Close cierra la conexión.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Dialect() repository.Dialect { return repository.SQLite{} }

func (s *Store) Select(ctx context.Context, query string, args ...any) ([]entity.Record, error) {
	return selectRecords(ctx, s.db, query, args...)
}

func (s *Store) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, s.db, "insert", query, args...)
}

func (s *Store) Update(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, s.db, "update", query, args...)
}

func (s *Store) Delete(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, s.db, "delete", query, args...)
}

func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("begin", err)
	}
	return &txStore{tx: tx}, nil
}

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Dialect() repository.Dialect { return repository.SQLite{} }

func (t *txStore) Select(ctx context.Context, query string, args ...any) ([]entity.Record, error) {
	return selectRecords(ctx, t.tx, query, args...)
}

func (t *txStore) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, t.tx, "insert", query, args...)
}

func (t *txStore) Update(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, t.tx, "update", query, args...)
}

func (t *txStore) Delete(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, t.tx, "delete", query, args...)
}

func (t *txStore) Begin(context.Context) (repository.Tx, error) {
	return repository.Joined(t), nil
}

func (t *txStore) Commit(context.Context) error {
	return wrapErr("commit", t.tx.Commit())
}

func (t *txStore) Rollback(context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return wrapErr("rollback", err)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func selectRecords(ctx context.Context, q querier, query string, args ...any) ([]entity.Record, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("select", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrapErr("select", err)
	}
	out := make([]entity.Record, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrapErr("select", err)
		}
		rec := make(entity.Record, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = values[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("select", err)
	}
	return out, nil
}

func exec(ctx context.Context, q querier, op, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}

// wrapErr traduce errores de go-sqlite3 a la taxonomía de dominio.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return &domain.ConflictError{Message: "registro duplicado", Err: err}
	}
	return &domain.StoreError{Op: op, Err: err}
}
