package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
)

// Querier es la parte común de *pgxpool.Pool y pgx.Tx que usa el store.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var (
	_ Querier                = (*pgxpool.Pool)(nil)
	_ Querier                = (pgx.Tx)(nil)
	_ repository.RecordStore = (*Store)(nil)
	_ repository.Tx          = (*txStore)(nil)
)

// Store implementa repository.RecordStore sobre un pool de PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore construye el store con el pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Dialect() repository.Dialect { return repository.Postgres{} }

func (s *Store) Select(ctx context.Context, query string, args ...any) ([]entity.Record, error) {
	return selectRecords(ctx, s.pool, query, args...)
}

func (s *Store) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, s.pool, "insert", query, args...)
}

func (s *Store) Update(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, s.pool, "update", query, args...)
}

func (s *Store) Delete(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(ctx, s.pool, "delete", query, args...)
}

// Begin abre una transacción; el llamador decide Commit o Rollback.
func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin", err)
	}
	return &txStore{tx: tx}, nil
}

// txStore es el store atado a una pgx.Tx.
type txStore struct {
	tx pgx.Tx
}

func (t *txStore) Dialect() repository.Dialect { return repository.Postgres{} }

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

// Begin dentro de una transacción se une a ella.
func (t *txStore) Begin(context.Context) (repository.Tx, error) {
	return repository.Joined(t), nil
}

func (t *txStore) Commit(ctx context.Context) error {
	return wrapErr("commit", t.tx.Commit(ctx))
}

func (t *txStore) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err == pgx.ErrTxClosed {
		return nil
	}
	return wrapErr("rollback", err)
}

func selectRecords(ctx context.Context, q Querier, query string, args ...any) ([]entity.Record, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("select", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]entity.Record, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, wrapErr("select", err)
		}
		rec := make(entity.Record, len(fields))
		for i, fd := range fields {
			rec[fd.Name] = values[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("select", err)
	}
	return out, nil
}

func exec(ctx context.Context, q Querier, op, query string, args ...any) (int64, error) {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return tag.RowsAffected(), nil
}
