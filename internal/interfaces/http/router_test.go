package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/jugueria-api/docs"
	"github.com/jhoicas/jugueria-api/internal/application/entities"
	"github.com/jhoicas/jugueria-api/internal/application/orders"
	"github.com/jhoicas/jugueria-api/internal/application/promotions"
	"github.com/jhoicas/jugueria-api/internal/application/users"
	"github.com/jhoicas/jugueria-api/internal/infrastructure/sqlite/sqlitetest"
	apphttp "github.com/jhoicas/jugueria-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var fixedNow = time.Date(2026, 1, 15, 10, 30, 0, 0, time.Local)

// buildTestApp arma la API completa sobre una base SQLite temporal.
func buildTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := sqlitetest.New(t)
	reg := entities.NewRegistry(entities.Options{Clock: func() time.Time { return fixedNow }})
	log := zerolog.Nop()

	app := apphttp.NewApp("jugueria-test", log)
	apphttp.Router(app, apphttp.RouterDeps{
		Registry:   reg,
		Store:      store,
		Orders:     orders.NewService(reg, store, log),
		Promotions: promotions.NewService(reg, store, log),
		Users:      users.NewService(reg, store, log),
	})
	return app
}

// doJSON lanza la petición con body (string crudo o valor a serializar) y devuelve estado y cuerpo.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeMap(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func assertMoney(t *testing.T, want string, got any) {
	t.Helper()
	d, err := decimal.NewFromString(fmt.Sprint(got))
	require.NoError(t, err, "monto no numérico: %v", got)
	assert.True(t, decimal.RequireFromString(want).Equal(d), "esperado %s, obtenido %v", want, got)
}

func create(t *testing.T, app *fiber.App, entity string, body map[string]any) map[string]any {
	t.Helper()
	status, raw := doJSON(t, app, http.MethodPost, "/api/tables/"+entity, body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decodeMap(t, raw)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	app := buildTestApp(t)
	status, raw := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", decodeMap(t, raw)["status"])
}

func TestDocs_ServesSpec(t *testing.T) {
	app := buildTestApp(t)
	apphttp.Docs(app, "Juguería API", docs.SwaggerJSON)

	status, raw := doJSON(t, app, http.MethodGet, "/docs/swagger.json", nil)
	require.Equal(t, http.StatusOK, status)
	spec := decodeMap(t, raw)
	assert.Equal(t, "2.0", spec["swagger"])
	paths, _ := spec["paths"].(map[string]any)
	assert.Contains(t, paths, "/api/tables/{entity}")
	assert.Contains(t, paths, "/api/promociones/{id}/descuento")
}

func TestTables_ProductCRUD(t *testing.T) {
	app := buildTestApp(t)

	product := create(t, app, "productos", map[string]any{
		"nombre": "Jugo de Papaya", "categoria": "jugos", "precio": 6.5,
	})
	id, _ := product["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, true, product["disponible"])
	create(t, app, "productos", map[string]any{"nombre": "Tamal", "categoria": "desayunos", "precio": "4.00"})

	status, raw := doJSON(t, app, http.MethodGet, "/api/tables/productos?categoria=jugos", nil)
	require.Equal(t, http.StatusOK, status)
	list := decodeMap(t, raw)
	assert.Equal(t, float64(1), list["total"])
	assert.Equal(t, "productos", list["table"])
	data, _ := list["data"].([]any)
	require.Len(t, data, 1)

	status, raw = doJSON(t, app, http.MethodPatch, "/api/tables/productos/"+id, map[string]any{"precio": 7})
	require.Equal(t, http.StatusOK, status, string(raw))
	assertMoney(t, "7", decodeMap(t, raw)["precio"])

	status, raw = doJSON(t, app, http.MethodGet, "/api/tables/productos/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Jugo de Papaya", decodeMap(t, raw)["nombre"])

	status, raw = doJSON(t, app, http.MethodDelete, "/api/tables/productos/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	deleted := decodeMap(t, raw)
	assert.NotEmpty(t, deleted["message"])
	record, _ := deleted["deleted_record"].(map[string]any)
	assert.Equal(t, id, record["id"])

	status, raw = doJSON(t, app, http.MethodGet, "/api/tables/productos/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decodeMap(t, raw)["code"])
}

func TestTables_Errors(t *testing.T) {
	app := buildTestApp(t)

	status, raw := doJSON(t, app, http.MethodGet, "/api/tables/clientes", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decodeMap(t, raw)["code"])

	status, raw = doJSON(t, app, http.MethodPost, "/api/tables/productos", map[string]any{
		"nombre": "", "categoria": "jugos", "precio": 5,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	body := decodeMap(t, raw)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.Equal(t, []any{"El nombre del producto es requerido"}, body["details"])

	status, raw = doJSON(t, app, http.MethodPost, "/api/tables/productos", "[1, 2]")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_BODY", decodeMap(t, raw)["code"])

	status, raw = doJSON(t, app, http.MethodGet, "/api/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decodeMap(t, raw)["code"])
}

func TestUsers_ConflictAndAuthenticate(t *testing.T) {
	app := buildTestApp(t)

	user := create(t, app, "usuarios", map[string]any{
		"nombre": "Carla", "email": "carla@jugueria.pe", "password": "secreto1", "tipo": "trabajador",
	})
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "password")

	status, raw := doJSON(t, app, http.MethodPost, "/api/tables/usuarios", map[string]any{
		"nombre": "Otra", "email": "carla@jugueria.pe",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", decodeMap(t, raw)["code"])

	status, raw = doJSON(t, app, http.MethodPost, "/api/usuarios/autenticar", map[string]any{
		"email": "carla@jugueria.pe", "password": "secreto1",
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, user["id"], decodeMap(t, raw)["id"])

	status, raw = doJSON(t, app, http.MethodPost, "/api/usuarios/autenticar", map[string]any{
		"email": "carla@jugueria.pe", "password": "otra",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", decodeMap(t, raw)["code"])
}

func TestOrders_CompleteFlow(t *testing.T) {
	app := buildTestApp(t)

	status, raw := doJSON(t, app, http.MethodPost, "/api/pedidos/completo", `{
		"pedido": {"cliente_nombre": "Luis", "descuento": 1.50},
		"productos": [
			{"producto_id": "p-fresa", "producto_nombre": "Jugo de Fresa", "producto_categoria": "jugos", "precio_unitario": 5.00, "cantidad": 2},
			{"producto_id": "p-cafe", "producto_nombre": "Café pasado", "producto_categoria": "bebidas", "precio_unitario": "3.50", "cantidad": 1}
		]
	}`)
	require.Equal(t, http.StatusCreated, status, string(raw))
	order := decodeMap(t, raw)
	assertMoney(t, "13.50", order["subtotal"])
	assertMoney(t, "12.00", order["total"])
	items, _ := order["productos"].([]any)
	assert.Len(t, items, 2)
	id := order["id"].(string)

	status, raw = doJSON(t, app, http.MethodPost, "/api/pedidos/"+id+"/venta", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "PRECONDITION_FAILED", decodeMap(t, raw)["code"])

	status, raw = doJSON(t, app, http.MethodPatch, "/api/pedidos/"+id+"/estado", map[string]any{"estado": "volando"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = doJSON(t, app, http.MethodPatch, "/api/pedidos/"+id+"/estado", map[string]any{"estado": "entregado"})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "entregado", decodeMap(t, raw)["estado"])

	status, raw = doJSON(t, app, http.MethodPost, "/api/pedidos/"+id+"/venta", map[string]any{"vendedor_nombre": "Rosa"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	sale := decodeMap(t, raw)
	assert.Equal(t, "Rosa", sale["vendedor_nombre"])
	assertMoney(t, "12.00", sale["total"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/pedidos/"+id+"/venta", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, raw = doJSON(t, app, http.MethodPost, "/api/tables/pedidos", map[string]any{
		"cliente_nombre": "Ana", "subtotal": "10", "descuento": "15",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	body := decodeMap(t, raw)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.Equal(t, []any{"El descuento no puede ser mayor al subtotal"}, body["details"])

	status, raw = doJSON(t, app, http.MethodGet, "/api/ventas/top-productos", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var top []map[string]any
	require.NoError(t, json.Unmarshal(raw, &top))
	require.Len(t, top, 2)

	status, _ = doJSON(t, app, http.MethodGet, "/api/ventas/estadisticas?fecha_desde=2026-01&fecha_hasta=2026-01-31", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPromotions_Discount(t *testing.T) {
	app := buildTestApp(t)

	promo := create(t, app, "promociones", map[string]any{
		"titulo": "Martes de jugos", "tipo": "descuento_porcentaje", "valor_descuento": 20,
		"fecha_inicio": "2026-01-01 00:00:00", "fecha_fin": "2026-03-01 00:00:00",
	})
	id := promo["id"].(string)
	assert.Equal(t, true, promo["vigente"])

	status, raw := doJSON(t, app, http.MethodPost, "/api/promociones/"+id+"/descuento", map[string]any{"subtotal": 50})
	require.Equal(t, http.StatusOK, status, string(raw))
	res := decodeMap(t, raw)
	assertMoney(t, "10", res["descuento"])
	assertMoney(t, "40", res["total"])

	status, raw = doJSON(t, app, http.MethodPost, "/api/promociones/"+id+"/descuento", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []any{"El subtotal es requerido"}, decodeMap(t, raw)["details"])

	status, raw = doJSON(t, app, http.MethodPatch, "/api/promociones/"+id+"/toggle", nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = doJSON(t, app, http.MethodPost, "/api/promociones/"+id+"/descuento", map[string]any{"subtotal": 50})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "PRECONDITION_FAILED", decodeMap(t, raw)["code"])

	status, raw = doJSON(t, app, http.MethodGet, "/api/promociones/estadisticas", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), decodeMap(t, raw)["total"])
}

func TestPromotions_CreateAndReplaceWithProducts(t *testing.T) {
	app := buildTestApp(t)
	mango := create(t, app, "productos", map[string]any{"nombre": "Jugo de Mango", "categoria": "jugos", "precio": "9.50"})
	mangoID := mango["id"].(string)

	status, raw := doJSON(t, app, http.MethodPost, "/api/promociones", map[string]any{
		"titulo": "Mango feliz", "tipo": "descuento_porcentaje", "valor_descuento": 15,
		"fecha_inicio": "2026-01-01 00:00:00", "fecha_fin": "2026-01-31 23:59:59",
		"productos_aplicables": mangoID,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	promo := decodeMap(t, raw)
	assert.Len(t, promo["productos"], 1)
	id := promo["id"].(string)

	status, raw = doJSON(t, app, http.MethodPut, "/api/promociones/"+id, map[string]any{
		"titulo": "Mango feliz", "tipo": "descuento_porcentaje", "valor_descuento": 30,
		"fecha_inicio": "2026-01-01 00:00:00", "fecha_fin": "2026-01-31 23:59:59",
		"productos_aplicables": []any{},
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	promo = decodeMap(t, raw)
	assert.Empty(t, promo["productos"])
	assertMoney(t, "30", promo["valor_descuento"])

	status, _ = doJSON(t, app, http.MethodPut, "/api/promociones/no-existe", map[string]any{"titulo": "X"})
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = doJSON(t, app, http.MethodPost, "/api/promociones", map[string]any{
		"titulo": "Fantasma", "tipo": "combo",
		"fecha_inicio": "2026-01-01 00:00:00", "fecha_fin": "2026-01-31 23:59:59",
		"productos_aplicables": mangoID + ",no-existe",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []any{"Producto no encontrado: no-existe"}, decodeMap(t, raw)["details"])

	status, raw = doJSON(t, app, http.MethodGet, "/api/promociones/estadisticas", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), decodeMap(t, raw)["total"])
}
