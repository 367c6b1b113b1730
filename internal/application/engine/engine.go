package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/application/dto"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
	"github.com/jhoicas/jugueria-api/pkg/security"
)

// MsgDeleted mensaje de confirmación de Delete.
const MsgDeleted = "Registro eliminado exitosamente"

// Option configura el motor.
type Option func(*Engine)

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger inyecta el logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Engine CRUD genérico parametrizado por una Spec. Cada operación ejecuta sentencias
// sueltas; para componer varias en una transacción usar Atomic o WithStore.
type Engine struct {
	spec  *Spec
	store repository.RecordStore
	now   func() time.Time
	log   zerolog.Logger
}

// New construye el motor validando los identificadores de la Spec.
func New(spec *Spec, store repository.RecordStore, opts ...Option) (*Engine, error) {
	if err := spec.Check(); err != nil {
		return nil, err
	}
	e := &Engine{spec: spec, store: store, now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// WithStore devuelve una copia del motor atada a otro store (normalmente una Tx).
func (e *Engine) WithStore(store repository.RecordStore) *Engine {
	cp := *e
	cp.store = store
	return &cp
}

// Store devuelve el store actual.
func (e *Engine) Store() repository.RecordStore { return e.store }

// Spec devuelve la especificación de la entidad.
func (e *Engine) Spec() *Spec { return e.spec }

// Now hora actual según el reloj del motor.
func (e *Engine) Now() time.Time { return e.now() }

// NewWhere builder para el dialecto del store actual.
func (e *Engine) NewWhere() *Where { return NewWhere(e.store.Dialect()) }

// Atomic ejecuta fn con una copia del motor atada a una transacción.
func (e *Engine) Atomic(ctx context.Context, fn func(tx *Engine) error) error {
	return repository.WithinTx(ctx, e.store, func(tx repository.RecordStore) error {
		return fn(e.WithStore(tx))
	})
}

// List devuelve una página de registros filtrada por búsqueda y filtros propios de la entidad.
func (e *Engine) List(ctx context.Context, f Filters) (*dto.ListResult, error) {
	page, limit := dto.ClampPage(f.Int("page", dto.DefaultPage), f.Int("limit", dto.DefaultLimit))

	w := e.NewWhere()
	if term, ok := f.Get("search"); ok {
		w.AnyLike(e.spec.Searchable, security.SanitizeString(term))
	}
	if e.spec.CustomFilters != nil {
		if err := e.spec.CustomFilters(f, w); err != nil {
			return nil, fmt.Errorf("error listing records: %w", err)
		}
	}
	orderBy, err := e.orderBy(f)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}

	countRows, err := e.store.Select(ctx, "SELECT COUNT(*) AS total FROM "+e.spec.Table+w.SQL(), w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}
	total := 0
	if len(countRows) > 0 {
		total, _ = entity.ToInt(countRows[0]["total"])
	}

	query := "SELECT * FROM " + e.spec.Table + w.SQL() +
		" ORDER BY " + orderBy +
		" LIMIT " + w.Next(1) + " OFFSET " + w.Next(2)
	args := append(w.Args(), limit, (page-1)*limit)
	rows, err := e.store.Select(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}

	return &dto.ListResult{
		Data:   e.afterGetAll(rows),
		Total:  total,
		Page:   page,
		Limit:  limit,
		Pages:  dto.Pages(total, limit),
		Table:  e.spec.Table,
		Schema: append([]string(nil), e.spec.Columns...),
	}, nil
}

// orderBy resuelve la cláusula ORDER BY; el campo debe estar en la lista blanca.
func (e *Engine) orderBy(f Filters) (string, error) {
	pk := e.spec.PrimaryKey
	sort, ok := f.Get("sort")
	if !ok {
		return pk + " DESC", nil
	}
	if !e.spec.HasColumn(sort) {
		return "", domain.NewValidationError("Campo de ordenamiento inválido: " + sort)
	}
	dir := "ASC"
	if order, _ := f.Get("order"); strings.EqualFold(order, "desc") {
		dir = "DESC"
	}
	if sort == pk {
		return pk + " " + dir, nil
	}
	return sort + " " + dir + ", " + pk + " DESC", nil
}

// GetByID devuelve el registro o un NotFoundError.
func (e *Engine) GetByID(ctx context.Context, id string) (entity.Record, error) {
	rec, err := e.fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting record: %w", err)
	}
	return e.afterGet(rec), nil
}

// Find ejecuta un SELECT * con el WHERE dado; orderBy debe venir del código, nunca de la petición.
func (e *Engine) Find(ctx context.Context, w *Where, orderBy string) ([]entity.Record, error) {
	query := "SELECT * FROM " + e.spec.Table + w.SQL()
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}
	rows, err := e.store.Select(ctx, query, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("error finding records: %w", err)
	}
	return e.afterGetAll(rows), nil
}

// Create valida, aplica hooks, asigna id y timestamps, inserta y relee el registro.
func (e *Engine) Create(ctx context.Context, data entity.Record) (entity.Record, error) {
	rec, err := e.create(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("error creating record: %w", err)
	}
	return rec, nil
}

func (e *Engine) create(ctx context.Context, data entity.Record) (entity.Record, error) {
	in := &Input{Op: OpCreate, Data: data.Clone(), Store: e.store, Now: e.now()}
	if err := e.validate(ctx, in); err != nil {
		return nil, err
	}
	in.Data = e.sanitize(in.Data)
	if e.spec.BeforeCreate != nil {
		if err := e.spec.BeforeCreate(ctx, in); err != nil {
			return nil, err
		}
	}

	pk := e.spec.PrimaryKey
	id := in.Data.String(pk)
	if id == "" {
		id = security.NewID()
	}
	in.ID = id
	in.Data[pk] = id
	if e.spec.CreatedAt != "" {
		in.Data[e.spec.CreatedAt] = in.Now
	}
	if e.spec.UpdatedAt != "" {
		in.Data[e.spec.UpdatedAt] = in.Now
	}

	cols, args := e.persistable(in.Data)
	d := e.store.Dialect()
	query := "INSERT INTO " + e.spec.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		repository.Placeholders(d, 1, len(cols)) + ")"
	if _, err := e.store.Insert(ctx, query, args...); err != nil {
		return nil, err
	}

	rec, err := e.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	rec = e.afterGet(rec)
	if e.spec.AfterCreate != nil {
		if rec, err = e.spec.AfterCreate(ctx, in, rec); err != nil {
			return nil, err
		}
	}
	e.log.Debug().Str("entity", e.spec.Entity).Str("id", id).Msg("registro creado")
	return rec, nil
}

// Update reemplaza el registro: valida el cuerpo completo.
func (e *Engine) Update(ctx context.Context, id string, data entity.Record) (entity.Record, error) {
	rec, err := e.update(ctx, OpUpdate, id, data)
	if err != nil {
		return nil, fmt.Errorf("error updating record: %w", err)
	}
	return rec, nil
}

// Patch actualiza solo los campos presentes; valida el registro resultante.
func (e *Engine) Patch(ctx context.Context, id string, data entity.Record) (entity.Record, error) {
	rec, err := e.update(ctx, OpPatch, id, data)
	if err != nil {
		return nil, fmt.Errorf("error updating record: %w", err)
	}
	return rec, nil
}

func (e *Engine) update(ctx context.Context, op Op, id string, data entity.Record) (entity.Record, error) {
	existing, err := e.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	pk := e.spec.PrimaryKey
	body := data.Clone()
	delete(body, pk)
	if op == OpPatch {
		for k := range body {
			if !e.spec.HasColumn(k) && !e.spec.isVirtual(k) {
				delete(body, k)
			}
		}
		if len(body) == 0 {
			return nil, domain.NewValidationError("No hay campos válidos para actualizar")
		}
	}

	in := &Input{Op: op, ID: id, Data: body, Existing: existing, Store: e.store, Now: e.now()}
	if op == OpPatch {
		merged := existing.Clone()
		for k, v := range body {
			merged[k] = v
		}
		check := *in
		check.Data = merged
		if err := e.validate(ctx, &check); err != nil {
			return nil, err
		}
	} else if err := e.validate(ctx, in); err != nil {
		return nil, err
	}

	in.Data = e.sanitize(in.Data)
	if e.spec.BeforeUpdate != nil {
		if err := e.spec.BeforeUpdate(ctx, in); err != nil {
			return nil, err
		}
	}
	delete(in.Data, pk)
	if e.spec.CreatedAt != "" {
		delete(in.Data, e.spec.CreatedAt)
	}
	if e.spec.UpdatedAt != "" {
		in.Data[e.spec.UpdatedAt] = in.Now
	}

	cols, args := e.persistable(in.Data)
	if len(cols) > 0 {
		d := e.store.Dialect()
		sets := make([]string, len(cols))
		for i, c := range cols {
			sets[i] = c + " = " + d.Placeholder(i+1)
		}
		query := "UPDATE " + e.spec.Table + " SET " + strings.Join(sets, ", ") +
			" WHERE " + pk + " = " + d.Placeholder(len(cols)+1)
		if _, err := e.store.Update(ctx, query, append(args, id)...); err != nil {
			return nil, err
		}
	}

	rec, err := e.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	rec = e.afterGet(rec)
	if e.spec.AfterUpdate != nil {
		if rec, err = e.spec.AfterUpdate(ctx, in, rec); err != nil {
			return nil, err
		}
	}
	e.log.Debug().Str("entity", e.spec.Entity).Str("id", id).Str("op", string(op)).Msg("registro actualizado")
	return rec, nil
}

// Delete aplica la política de borrado de la entidad y devuelve el registro previo.
func (e *Engine) Delete(ctx context.Context, id string) (*dto.DeleteResult, error) {
	res, err := e.delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error deleting record: %w", err)
	}
	return res, nil
}

func (e *Engine) delete(ctx context.Context, id string) (*dto.DeleteResult, error) {
	existing, err := e.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	in := &Input{ID: id, Existing: existing, Store: e.store, Now: e.now()}
	if e.spec.BeforeDelete != nil {
		if err := e.spec.BeforeDelete(ctx, in); err != nil {
			return nil, err
		}
	}

	d := e.store.Dialect()
	pk := e.spec.PrimaryKey
	del := e.spec.Deletion
	switch del.Kind {
	case DeleteSoftActive:
		sets := []string{del.Field + " = " + d.Placeholder(1)}
		args := []any{false}
		if e.spec.UpdatedAt != "" {
			sets = append(sets, e.spec.UpdatedAt+" = "+d.Placeholder(2))
			args = append(args, in.Now)
		}
		query := "UPDATE " + e.spec.Table + " SET " + strings.Join(sets, ", ") +
			" WHERE " + pk + " = " + d.Placeholder(len(args)+1)
		_, err = e.store.Update(ctx, query, append(args, id)...)
	case DeleteSoftDeleted:
		query := "UPDATE " + e.spec.Table + " SET " + del.Field + " = " + d.Placeholder(1) +
			", " + del.Stamp + " = " + d.Placeholder(2) + " WHERE " + pk + " = " + d.Placeholder(3)
		_, err = e.store.Update(ctx, query, true, in.Now, id)
	default:
		_, err = e.store.Delete(ctx, "DELETE FROM "+e.spec.Table+" WHERE "+pk+" = "+d.Placeholder(1), id)
	}
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("entity", e.spec.Entity).Str("id", id).Msg("registro eliminado")
	return &dto.DeleteResult{Message: MsgDeleted, DeletedRecord: e.afterGet(existing)}, nil
}

// fetch lee la fila cruda (sin AfterGet).
func (e *Engine) fetch(ctx context.Context, id string) (entity.Record, error) {
	d := e.store.Dialect()
	rows, err := e.store.Select(ctx,
		"SELECT * FROM "+e.spec.Table+" WHERE "+e.spec.PrimaryKey+" = "+d.Placeholder(1), id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.NotFoundError{Entity: e.spec.Entity, ID: id}
	}
	return rows[0], nil
}

func (e *Engine) validate(ctx context.Context, in *Input) error {
	if e.spec.Validate == nil {
		return nil
	}
	if errs := e.spec.Validate(ctx, in); len(errs) > 0 {
		return domain.NewValidationError(errs...)
	}
	return nil
}

func (e *Engine) sanitize(data entity.Record) entity.Record {
	out := make(entity.Record, len(data))
	for k, v := range data {
		if e.spec.isRaw(k) {
			out[k] = v
			continue
		}
		out[k] = security.Sanitize(v)
	}
	return out
}

// persistable devuelve columnas (en el orden de la lista blanca) y valores coercionados.
func (e *Engine) persistable(data entity.Record) ([]string, []any) {
	var cols []string
	var args []any
	for _, c := range e.spec.Columns {
		v, ok := data[c]
		if !ok {
			continue
		}
		cols = append(cols, c)
		args = append(args, e.coerce(c, v))
	}
	return cols, args
}

func (e *Engine) coerce(column string, v any) any {
	if v == nil {
		return nil
	}
	switch e.spec.Types[column] {
	case TypeBool:
		if b, ok := entity.ToBool(v); ok {
			return b
		}
	case TypeDecimal:
		if d, ok := entity.ToDecimal(v); ok {
			return d
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return nil
		}
	case TypeInt:
		if n, ok := entity.ToInt(v); ok {
			return n
		}
	case TypeTime, TypeDate:
		if t, ok := entity.ToTime(v); ok {
			return t
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return nil
		}
	}
	if n, ok := v.(json.Number); ok {
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d
		}
	}
	return v
}

func (e *Engine) afterGet(rec entity.Record) entity.Record {
	if e.spec.AfterGet == nil || rec == nil {
		return rec
	}
	return e.spec.AfterGet(rec)
}

func (e *Engine) afterGetAll(rows []entity.Record) []entity.Record {
	for i := range rows {
		rows[i] = e.afterGet(rows[i])
	}
	return rows
}
