package engine_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/infrastructure/sqlite"
)

const articulosDDL = `CREATE TABLE articulos (
    id          VARCHAR(36) PRIMARY KEY,
    nombre      VARCHAR(255) NOT NULL,
    descripcion TEXT,
    categoria   VARCHAR(20),
    precio      NUMERIC(10,2),
    activo      BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  DATETIME,
    updated_at  DATETIME
)`

// articulosSpec entidad mínima para probar el motor sin reglas de negocio.
func articulosSpec(del engine.Deletion) *engine.Spec {
	return &engine.Spec{
		Entity:     "articulos",
		Table:      "articulos",
		PrimaryKey: "id",
		CreatedAt:  "created_at",
		UpdatedAt:  "updated_at",
		Columns:    []string{"id", "nombre", "descripcion", "categoria", "precio", "activo", "created_at", "updated_at"},
		Searchable: []string{"nombre", "descripcion"},
		Types: map[string]engine.FieldType{
			"precio":     engine.TypeDecimal,
			"activo":     engine.TypeBool,
			"created_at": engine.TypeTime,
			"updated_at": engine.TypeTime,
		},
		Deletion: del,
		CustomFilters: func(f engine.Filters, w *engine.Where) error {
			if v, ok := f.Get("categoria"); ok {
				w.Eq("categoria", v)
			}
			if v, ok := f.Get("precio_min"); ok {
				d, err := decimal.NewFromString(v)
				if err != nil {
					return domain.NewValidationError("precio_min inválido")
				}
				w.Cmp("precio", ">=", d)
			}
			return nil
		},
	}
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, err = store.Insert(context.Background(), articulosDDL)
	require.NoError(t, err)
	return store
}

func newEngine(t *testing.T, spec *engine.Spec) (*engine.Engine, *sqlite.Store) {
	t.Helper()
	store := openStore(t)
	e, err := engine.New(spec, store)
	require.NoError(t, err)
	return e, store
}

func seed(t *testing.T, e *engine.Engine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := e.Create(context.Background(), entity.Record{
			"nombre": fmt.Sprintf("Articulo %02d", i),
			"precio": fmt.Sprintf("%d.50", i+1),
		})
		require.NoError(t, err)
	}
}

func TestCreate_ThenGetByID(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.SoftActive("activo")))
	ctx := context.Background()

	created, err := e.Create(ctx, entity.Record{
		"nombre":      "Jugo de Fresa",
		"descripcion": "Fresa con leche",
		"categoria":   "jugos",
		"precio":      "8.50",
		"desconocido": "se ignora",
	})
	require.NoError(t, err)

	id := created.String("id")
	require.NotEmpty(t, id)

	got, err := e.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jugo de Fresa", got.String("nombre"))
	assert.Equal(t, "Fresa con leche", got.String("descripcion"))
	assert.Equal(t, "jugos", got.String("categoria"))
	assert.True(t, got.Decimal("precio").Equal(decimal.RequireFromString("8.50")))
	assert.True(t, got.Bool("activo"), "default de la columna")
	assert.NotContains(t, got, "desconocido")
	_, ok := got.Time("created_at")
	assert.True(t, ok)
}

func TestCreate_KeepsGivenIDAndStampsClock(t *testing.T) {
	fixed := time.Date(2026, 1, 15, 10, 30, 0, 0, time.Local)
	store := openStore(t)
	e, err := engine.New(articulosSpec(engine.HardDelete()), store, engine.WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	rec, err := e.Create(context.Background(), entity.Record{"id": "art-1", "nombre": "Agua"})
	require.NoError(t, err)
	assert.Equal(t, "art-1", rec.String("id"))
	created, ok := rec.Time("created_at")
	require.True(t, ok)
	assert.True(t, fixed.Equal(created))
}

func TestCreate_SanitizesExceptRawFields(t *testing.T) {
	spec := articulosSpec(engine.HardDelete())
	spec.RawFields = []string{"descripcion"}
	e, _ := newEngine(t, spec)

	rec, err := e.Create(context.Background(), entity.Record{
		"nombre":      "  <b>Jugo</b> & más ",
		"descripcion": "<i>crudo</i>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jugo &amp; más", rec.String("nombre"))
	assert.Equal(t, "<i>crudo</i>", rec.String("descripcion"))
}

func TestCreate_ValidationAggregatesAllViolations(t *testing.T) {
	spec := articulosSpec(engine.HardDelete())
	spec.Validate = func(_ context.Context, in *engine.Input) []string {
		var errs []string
		if in.Data.String("nombre") == "" {
			errs = append(errs, "El nombre es requerido")
		}
		if !in.Data.Has("precio") {
			errs = append(errs, "El precio es requerido")
		}
		return errs
	}
	e, _ := newEngine(t, spec)
	ctx := context.Background()

	_, err := e.Create(ctx, entity.Record{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, []string{"El nombre es requerido", "El precio es requerido"}, domain.Violations(err))
	assert.Contains(t, err.Error(), "error creating record")

	list, err := e.List(ctx, engine.Filters{})
	require.NoError(t, err)
	assert.Zero(t, list.Total, "nada se insertó")
}

func TestList_PaginationClamp(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.HardDelete()))
	seed(t, e, 25)
	ctx := context.Background()

	tests := []struct {
		name      string
		filters   engine.Filters
		wantPage  int
		wantLimit int
		wantPages int
		wantRows  int
	}{
		{"defaults", engine.Filters{}, 1, 20, 2, 20},
		{"segunda página", engine.Filters{"page": "2", "limit": "20"}, 2, 20, 2, 5},
		{"limit cero", engine.Filters{"limit": "0"}, 1, 1, 25, 1},
		{"limit negativo y page negativo", engine.Filters{"limit": "-4", "page": "-2"}, 1, 1, 25, 1},
		{"limit excesivo", engine.Filters{"limit": "1000"}, 1, 100, 1, 25},
		{"limit no numérico", engine.Filters{"limit": "abc"}, 1, 20, 2, 20},
		{"página fuera de rango", engine.Filters{"page": "9", "limit": "10"}, 9, 10, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.List(ctx, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, 25, res.Total)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Equal(t, tt.wantLimit, res.Limit)
			assert.Equal(t, tt.wantPages, res.Pages)
			assert.Len(t, res.Data, tt.wantRows)
			assert.Equal(t, "articulos", res.Table)
			assert.Contains(t, res.Schema, "precio")
		})
	}
}

func TestList_SearchIsCaseInsensitiveAcrossSearchableFields(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.HardDelete()))
	ctx := context.Background()
	for _, r := range []entity.Record{
		{"nombre": "Jugo de fresa"},
		{"nombre": "Batido", "descripcion": "Con FRESAS frescas"},
		{"nombre": "Café"},
	} {
		_, err := e.Create(ctx, r)
		require.NoError(t, err)
	}

	res, err := e.List(ctx, engine.Filters{"search": "Fresa"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = e.List(ctx, engine.Filters{"search": "   "})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total, "búsqueda vacía no filtra")
}

func TestList_SearchMatchesWildcardsLiterally(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.HardDelete()))
	ctx := context.Background()
	for _, r := range []entity.Record{
		{"nombre": "Jugo de fresa"},
		{"nombre": "Pan con pollo"},
		{"nombre": "Combo 2x1 al 50%", "descripcion": "precio_especial"},
		{"nombre": `Ruta C:\caja`},
	} {
		_, err := e.Create(ctx, r)
		require.NoError(t, err)
	}

	tests := []struct {
		search string
		want   int
	}{
		{"_", 1},
		{"%", 1},
		{"50%", 1},
		{"n_p", 0},
		{`\`, 1},
		{"xyz", 0},
	}
	for _, tt := range tests {
		res, err := e.List(ctx, engine.Filters{"search": tt.search})
		require.NoError(t, err, tt.search)
		assert.Equal(t, tt.want, res.Total, "search %q", tt.search)
	}
}

func TestList_SearchFoldsNonASCIICase(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.HardDelete()))
	ctx := context.Background()
	for _, r := range []entity.Record{
		{"nombre": "Jugo de PIÑA"},
		{"nombre": "Ensalada", "descripcion": "Con piña y ÑAME"},
		{"nombre": "Café"},
	} {
		_, err := e.Create(ctx, r)
		require.NoError(t, err)
	}

	res, err := e.List(ctx, engine.Filters{"search": "piña"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = e.List(ctx, engine.Filters{"search": "CAFÉ"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestList_CustomFiltersAndSort(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.HardDelete()))
	ctx := context.Background()
	for _, r := range []entity.Record{
		{"nombre": "B", "categoria": "jugos", "precio": "5.00"},
		{"nombre": "A", "categoria": "jugos", "precio": "9.00"},
		{"nombre": "C", "categoria": "bebidas", "precio": "9.00"},
	} {
		_, err := e.Create(ctx, r)
		require.NoError(t, err)
	}

	res, err := e.List(ctx, engine.Filters{"categoria": "jugos", "sort": "nombre", "order": "asc"})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "A", res.Data[0].String("nombre"))
	assert.Equal(t, "B", res.Data[1].String("nombre"))

	res, err = e.List(ctx, engine.Filters{"precio_min": "6", "sort": "nombre", "order": "DESC"})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "C", res.Data[0].String("nombre"))

	res, err = e.List(ctx, engine.Filters{"categoria": ""})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total, "filtro vacío se omite")
}

func TestList_RejectsSortOutsideAllowList(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.HardDelete()))
	_, err := e.List(context.Background(), engine.Filters{"sort": "nombre; DROP TABLE articulos"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestUpdateAndPatch_NeverChangePrimaryKey(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.HardDelete()))
	ctx := context.Background()
	rec, err := e.Create(ctx, entity.Record{"nombre": "Original"})
	require.NoError(t, err)
	id := rec.String("id")

	patched, err := e.Patch(ctx, id, entity.Record{"id": "otro-id", "nombre": "Parcial"})
	require.NoError(t, err)
	assert.Equal(t, id, patched.String("id"))
	assert.Equal(t, "Parcial", patched.String("nombre"))

	updated, err := e.Update(ctx, id, entity.Record{"id": "otro-id", "nombre": "Completo", "precio": "3"})
	require.NoError(t, err)
	assert.Equal(t, id, updated.String("id"))
	assert.Equal(t, "Completo", updated.String("nombre"))

	_, err = e.GetByID(ctx, "otro-id")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPatch_NoValidFields(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.HardDelete()))
	ctx := context.Background()
	rec, err := e.Create(ctx, entity.Record{"nombre": "X"})
	require.NoError(t, err)

	_, err = e.Patch(ctx, rec.String("id"), entity.Record{"id": "y", "no_existe": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, []string{"No hay campos válidos para actualizar"}, domain.Violations(err))
}

func TestPatch_ValidatesMergedRecord(t *testing.T) {
	spec := articulosSpec(engine.HardDelete())
	spec.Validate = func(_ context.Context, in *engine.Input) []string {
		if in.Data.String("nombre") == "" {
			return []string{"El nombre es requerido"}
		}
		return nil
	}
	e, _ := newEngine(t, spec)
	ctx := context.Background()
	rec, err := e.Create(ctx, entity.Record{"nombre": "X"})
	require.NoError(t, err)

	_, err = e.Patch(ctx, rec.String("id"), entity.Record{"precio": "2"})
	require.NoError(t, err, "nombre viene del registro existente")

	_, err = e.Update(ctx, rec.String("id"), entity.Record{"precio": "2"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "update valida el cuerpo completo")
}

func TestUpdate_MissingRecord(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.HardDelete()))
	_, err := e.Update(context.Background(), "nope", entity.Record{"nombre": "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 404, domain.StatusCode(err))
}

func TestDelete_SoftActiveKeepsRow(t *testing.T) {
	e, store := newEngine(t, articulosSpec(engine.SoftActive("activo")))
	ctx := context.Background()
	rec, err := e.Create(ctx, entity.Record{"nombre": "Temporal"})
	require.NoError(t, err)
	id := rec.String("id")

	res, err := e.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, engine.MsgDeleted, res.Message)
	assert.Equal(t, id, res.DeletedRecord.String("id"))
	assert.True(t, res.DeletedRecord.Bool("activo"), "registro previo al borrado")

	rows, err := store.Select(ctx, "SELECT * FROM articulos WHERE id = ?", id)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Bool("activo"))
}

func TestDelete_HardRemovesRow(t *testing.T) {
	e, store := newEngine(t, articulosSpec(engine.HardDelete()))
	ctx := context.Background()
	rec, err := e.Create(ctx, entity.Record{"nombre": "Borrar"})
	require.NoError(t, err)

	_, err = e.Delete(ctx, rec.String("id"))
	require.NoError(t, err)

	rows, err := store.Select(ctx, "SELECT * FROM articulos WHERE id = ?", rec.String("id"))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = e.Delete(ctx, rec.String("id"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDelete_BeforeDeleteCanVeto(t *testing.T) {
	spec := articulosSpec(engine.HardDelete())
	spec.BeforeDelete = func(_ context.Context, in *engine.Input) error {
		return &domain.ConflictError{Message: "en uso: " + in.Existing.String("nombre")}
	}
	e, store := newEngine(t, spec)
	ctx := context.Background()
	rec, err := e.Create(ctx, entity.Record{"nombre": "Fijo"})
	require.NoError(t, err)

	_, err = e.Delete(ctx, rec.String("id"))
	assert.True(t, errors.Is(err, domain.ErrConflict))

	rows, err := store.Select(ctx, "SELECT id FROM articulos")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestAtomic_RollsBackOnError(t *testing.T) {
	e, _ := newEngine(t, articulosSpec(engine.HardDelete()))
	ctx := context.Background()
	boom := errors.New("boom")

	err := e.Atomic(ctx, func(tx *engine.Engine) error {
		if _, err := tx.Create(ctx, entity.Record{"nombre": "Huérfano"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	res, err := e.List(ctx, engine.Filters{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestHooks_AfterGetAppliesToEveryReadPath(t *testing.T) {
	spec := articulosSpec(engine.HardDelete())
	spec.AfterGet = func(rec entity.Record) entity.Record {
		delete(rec, "descripcion")
		rec["leido"] = true
		return rec
	}
	e, _ := newEngine(t, spec)
	ctx := context.Background()

	rec, err := e.Create(ctx, entity.Record{"nombre": "X", "descripcion": "secreta"})
	require.NoError(t, err)
	assert.NotContains(t, rec, "descripcion")

	got, err := e.GetByID(ctx, rec.String("id"))
	require.NoError(t, err)
	assert.Equal(t, true, got["leido"])

	list, err := e.List(ctx, engine.Filters{})
	require.NoError(t, err)
	assert.NotContains(t, list.Data[0], "descripcion")
}

func TestNew_RejectsUnsafeIdentifiers(t *testing.T) {
	spec := articulosSpec(engine.HardDelete())
	spec.Columns = append(spec.Columns, "nombre; --")
	_, err := engine.New(spec, openStore(t))
	assert.Error(t, err)

	spec = articulosSpec(engine.SoftActive("borrado"))
	_, err = engine.New(spec, openStore(t))
	assert.Error(t, err, "el campo de borrado debe ser columna")
}
