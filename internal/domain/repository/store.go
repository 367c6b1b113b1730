package repository

import (
	"context"
	"fmt"

	"github.com/jhoicas/jugueria-api/internal/domain/entity"
)

// RecordStore define el puerto de persistencia genérico (DIP).
// Todo valor viaja como parámetro enlazado; los identificadores los arma el llamador
// desde listas fijas, nunca desde la petición.
type RecordStore interface {
	Select(ctx context.Context, query string, args ...any) ([]entity.Record, error)
	// Insert, Update y Delete devuelven el número de filas afectadas.
	Insert(ctx context.Context, query string, args ...any) (int64, error)
	Update(ctx context.Context, query string, args ...any) (int64, error)
	Delete(ctx context.Context, query string, args ...any) (int64, error)
	Begin(ctx context.Context) (Tx, error)
	Dialect() Dialect
}

// Tx es un RecordStore atado a una transacción abierta.
type Tx interface {
	RecordStore
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// WithinTx inicia una transacción, ejecuta fn con el store atado a la tx y hace Commit o Rollback.
// Un panic dentro de fn también revierte la transacción.
func WithinTx(ctx context.Context, store RecordStore, fn func(tx RecordStore) error) (err error) {
	tx, err := store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// Joined envuelve una Tx abierta para que un Begin anidado se una a ella:
// Commit y Rollback quedan a cargo de quien abrió la transacción externa.
func Joined(tx Tx) Tx {
	return joinedTx{Tx: tx}
}

type joinedTx struct {
	Tx
}

func (j joinedTx) Begin(context.Context) (Tx, error) { return j, nil }
func (joinedTx) Commit(context.Context) error        { return nil }
func (joinedTx) Rollback(context.Context) error      { return nil }
