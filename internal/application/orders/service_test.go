package orders_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/jugueria-api/internal/application/entities"
	"github.com/jhoicas/jugueria-api/internal/application/orders"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
	"github.com/jhoicas/jugueria-api/internal/infrastructure/sqlite/sqlitetest"
)

var fixedNow = time.Date(2026, 1, 15, 10, 30, 0, 0, time.Local)

func newRegistry() *entities.Registry {
	return entities.NewRegistry(entities.Options{Clock: func() time.Time { return fixedNow }})
}

func newService(t *testing.T) (*orders.Service, repository.RecordStore) {
	t.Helper()
	store := sqlitetest.New(t)
	return orders.NewService(newRegistry(), store, zerolog.Nop()), store
}

func assertMoney(t *testing.T, want string, got any) {
	t.Helper()
	d, ok := entity.ToDecimal(got)
	require.True(t, ok, "valor no numérico: %v", got)
	assert.True(t, d.Equal(decimal.RequireFromString(want)), "esperado %s, obtenido %s", want, d)
}

func countRows(t *testing.T, store repository.RecordStore, table string) int {
	t.Helper()
	rows, err := store.Select(context.Background(), "SELECT COUNT(*) AS n FROM "+table)
	require.NoError(t, err)
	return rows[0].Int("n")
}

func sampleItems() []orders.LineItem {
	return []orders.LineItem{
		{ProductID: "p-fresa", ProductName: "Jugo de Fresa", Category: "jugos", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 2},
		{ProductID: "p-cafe", ProductName: "Café pasado", Category: "bebidas", UnitPrice: decimal.RequireFromString("3.50"), Quantity: 1},
	}
}

func TestCreateWithProducts_ComputesTotals(t *testing.T) {
	svc, _ := newService(t)

	order, err := svc.CreateWithProducts(context.Background(),
		entity.Record{"cliente_nombre": "Ana", "descuento": "1.50", "tipo_pedido": "local"}, sampleItems())
	require.NoError(t, err)

	assertMoney(t, "13.50", order["subtotal"])
	assertMoney(t, "1.50", order["descuento"])
	assertMoney(t, "12.00", order["total"])

	items, ok := order[orders.FieldLineItems].([]entity.Record)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "Jugo de Fresa", items[0].String("producto_nombre"))
	assert.Equal(t, 2, items[0]["cantidad"])
	assertMoney(t, "10.00", items[0]["subtotal"])
	assertMoney(t, "3.50", items[1]["subtotal"])
}

func TestCreateWithProducts_DiscountSurvivesStatusChanges(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	order, err := svc.CreateWithProducts(ctx,
		entity.Record{"cliente_nombre": "Ana", "descuento": "1.50", "total": "0.01"},
		[]orders.LineItem{{ProductID: "p-fresa", ProductName: "Jugo de Fresa", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 2}})
	require.NoError(t, err)
	assertMoney(t, "10.00", order["subtotal"])
	assertMoney(t, "8.50", order["total"])

	for _, estado := range []string{"en_preparacion", "listo", "entregado"} {
		rec, err := svc.UpdateStatus(ctx, order.String("id"), estado)
		require.NoError(t, err, estado)
		assertMoney(t, "8.50", rec["total"])
	}

	// el descuento no puede superar el subtotal de las líneas
	_, err = svc.CreateWithProducts(ctx, entity.Record{"cliente_nombre": "Ana", "descuento": "20"}, sampleItems())
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, []string{"El descuento no puede ser mayor al subtotal"}, domain.Violations(err))
	assert.Equal(t, 1, countRows(t, store, entity.TableOrders))
	assert.Equal(t, 1, countRows(t, store, entity.TableLineItems))
}

func TestCreateWithProducts_SnapshotsCatalogProduct(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	product, err := newRegistry().MustEngine(entity.TableProducts, store).Create(ctx, entity.Record{
		"nombre": "Surtido", "categoria": "jugos", "precio": "8.00",
	})
	require.NoError(t, err)

	order, err := svc.CreateWithProducts(ctx, entity.Record{"cliente_nombre": "Luis"}, []orders.LineItem{
		{ProductID: product.String("id"), UnitPrice: decimal.RequireFromString("8.00"), Quantity: 3},
	})
	require.NoError(t, err)
	items := order[orders.FieldLineItems].([]entity.Record)
	require.Len(t, items, 1)
	assert.Equal(t, "Surtido", items[0].String("producto_nombre"))
	assert.Equal(t, "jugos", items[0].String("producto_categoria"))
	assertMoney(t, "24", order["total"])

	_, err = svc.CreateWithProducts(ctx, entity.Record{"cliente_nombre": "Luis"}, []orders.LineItem{
		{ProductID: "no-existe", UnitPrice: decimal.NewFromInt(1), Quantity: 1},
	})
	assert.Equal(t, []string{"Producto no encontrado: no-existe"}, domain.Violations(err))
	assert.Equal(t, 1, countRows(t, store, entity.TableOrders))
}

func TestCreateWithProducts_InvalidItems(t *testing.T) {
	svc, store := newService(t)

	_, err := svc.CreateWithProducts(context.Background(), entity.Record{"cliente_nombre": "Ana"}, []orders.LineItem{
		{ProductID: "", ProductName: "X", UnitPrice: decimal.NewFromInt(1), Quantity: 0},
	})
	require.Error(t, err)
	assert.Equal(t, []string{
		"Producto 1: el ID del producto es requerido",
		"Producto 1: la cantidad debe ser mayor a 0",
	}, domain.Violations(err))
	assert.Zero(t, countRows(t, store, entity.TableOrders))
}

// failingStore hace fallar el insert de la línea cuyo producto es failOn.
type failingStore struct {
	repository.RecordStore
	failOn string
}

func (f failingStore) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := f.RecordStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failingTx{Tx: tx, failOn: f.failOn}, nil
}

type failingTx struct {
	repository.Tx
	failOn string
}

func (f failingTx) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	for _, a := range args {
		if a == f.failOn {
			return 0, &domain.StoreError{Op: "insert", Err: errors.New("disk I/O error")}
		}
	}
	return f.Tx.Insert(ctx, query, args...)
}

func TestCreateWithProducts_RollsBackOnLineItemFailure(t *testing.T) {
	base := sqlitetest.New(t)
	svc := orders.NewService(newRegistry(), failingStore{RecordStore: base, failOn: "p-cafe"}, zerolog.Nop())

	_, err := svc.CreateWithProducts(context.Background(),
		entity.Record{"cliente_nombre": "Ana", "descuento": "1.50"}, sampleItems())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStore))
	assert.Contains(t, err.Error(), "error creating order with products")

	assert.Zero(t, countRows(t, base, entity.TableOrders), "el pedido no debe persistir")
	assert.Zero(t, countRows(t, base, entity.TableLineItems))
}

func TestUpdateStatus(t *testing.T) {
	var logs bytes.Buffer
	store := sqlitetest.New(t)
	svc := orders.NewService(newRegistry(), store, zerolog.New(&logs))
	ctx := context.Background()

	order, err := svc.CreateWithProducts(ctx, entity.Record{"cliente_nombre": "Ana"}, sampleItems())
	require.NoError(t, err)
	id := order.String("id")
	assert.Nil(t, order["fecha_entrega"])
	logs.Reset()

	_, err = svc.UpdateStatus(ctx, id, "perdido")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	rec, err := svc.UpdateStatus(ctx, id, "en_preparacion")
	require.NoError(t, err)
	assert.Equal(t, "en_preparacion", rec.String("estado"))
	assert.Nil(t, rec["fecha_entrega"])
	assert.Empty(t, logs.String())

	// saltar listo no está en el flujo nominal pero se acepta
	rec, err = svc.UpdateStatus(ctx, id, "entregado")
	require.NoError(t, err)
	assert.Equal(t, "entregado", rec.String("estado"))
	delivered, ok := rec.Time("fecha_entrega")
	require.True(t, ok)
	assert.True(t, delivered.Equal(fixedNow))
	assert.Contains(t, logs.String(), "fuera del flujo nominal")
	assertMoney(t, "13.50", rec["total"])

	_, err = svc.UpdateStatus(ctx, "no-existe", "listo")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateSaleFromOrder(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	order, err := svc.CreateWithProducts(ctx,
		entity.Record{"cliente_nombre": "Rosa", "descuento": "1.50", "metodo_pago": "yape"}, sampleItems())
	require.NoError(t, err)
	id := order.String("id")

	_, err = svc.CreateSaleFromOrder(ctx, id, orders.Seller{})
	assert.True(t, errors.Is(err, domain.ErrOrderNotDelivered))
	assert.Equal(t, 422, domain.StatusCode(err))

	_, err = svc.UpdateStatus(ctx, id, "entregado")
	require.NoError(t, err)

	sale, err := svc.CreateSaleFromOrder(ctx, id, orders.Seller{})
	require.NoError(t, err)
	assert.Equal(t, id, sale.String("pedido_id"))
	assert.Equal(t, entity.DefaultSeller, sale.String("vendedor_nombre"))
	assert.Nil(t, sale["vendedor_id"])
	assert.Equal(t, "Rosa", sale.String("cliente_nombre"))
	assert.Equal(t, "yape", sale.String("metodo_pago"))
	assert.Equal(t, entity.ShiftManana, sale.String("turno"))
	assertMoney(t, "13.50", sale["subtotal"])
	assertMoney(t, "12.00", sale["total"])

	_, err = svc.CreateSaleFromOrder(ctx, id, orders.Seller{ID: "u-1", Name: "Caja 2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSaleExists))
	assert.Equal(t, 409, domain.StatusCode(err))
	assert.Equal(t, 1, countRows(t, store, entity.TableSales))

	_, err = svc.CreateSaleFromOrder(ctx, "no-existe", orders.Seller{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateSaleFromOrder_Seller(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	order, err := svc.CreateWithProducts(ctx, entity.Record{"cliente_nombre": "Rosa", "estado": "entregado"}, nil)
	require.NoError(t, err)

	sale, err := svc.CreateSaleFromOrder(ctx, order.String("id"), orders.Seller{ID: "u-7", Name: "Caja 2"})
	require.NoError(t, err)
	assert.Equal(t, "u-7", sale.String("vendedor_id"))
	assert.Equal(t, "Caja 2", sale.String("vendedor_nombre"))
	assertMoney(t, "0", sale["total"])
}

func TestStats(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	e := newRegistry().MustEngine(entity.TableOrders, store)
	for _, data := range []entity.Record{
		{"cliente_nombre": "A", "subtotal": "10", "fecha_pedido": "2026-01-10 09:00:00"},
		{"cliente_nombre": "B", "subtotal": "20", "estado": "entregado", "fecha_pedido": "2026-01-12 11:00:00"},
		{"cliente_nombre": "C", "subtotal": "30.50", "estado": "cancelado", "fecha_pedido": "2026-01-20 15:00:00"},
	} {
		_, err := e.Create(ctx, data)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalPedidos)
	assert.Equal(t, 1, stats.Pendientes)
	assert.Equal(t, 1, stats.Entregados)
	assert.Equal(t, 1, stats.Cancelados)
	assert.Zero(t, stats.EnPreparacion)
	assertMoney(t, "60.50", stats.IngresosTotales)
	assertMoney(t, "20.17", stats.TicketPromedio)

	stats, err = svc.Stats(ctx, "2026-01-10", "2026-01-12")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalPedidos)
	assertMoney(t, "30", stats.IngresosTotales)

	_, err = svc.Stats(ctx, "2026-01-10", "ayer")
	assert.Equal(t, []string{"fecha_hasta debe tener formato YYYY-MM-DD"}, domain.Violations(err))
}

func TestSalesReports(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, metodo := range []string{"efectivo", "yape"} {
		order, err := svc.CreateWithProducts(ctx,
			entity.Record{"cliente_nombre": "Cliente " + metodo, "metodo_pago": metodo, "estado": "entregado"},
			sampleItems())
		require.NoError(t, err)
		_, err = svc.CreateSaleFromOrder(ctx, order.String("id"), orders.Seller{Name: "Caja 1"})
		require.NoError(t, err)
	}

	stats, err := svc.SalesStats(ctx, "2026-01-01", "2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, orders.Period{Desde: "2026-01-01", Hasta: "2026-01-31"}, stats.Periodo)
	assert.Equal(t, 2, stats.Totales.Ventas)
	assert.Equal(t, 2, stats.Totales.ClientesUnicos)
	assertMoney(t, "27", stats.Totales.Ingresos)
	assertMoney(t, "13.50", stats.Totales.TicketPromedio)
	require.Len(t, stats.MetodosPago, 2)
	assert.Equal(t, 1, stats.MetodosPago["yape"].Ventas)

	_, err = svc.SalesStats(ctx, "", "2026-01-31")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	report, err := svc.DailyReport(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", report.Fecha)
	assert.Equal(t, 2, report.Turnos[entity.ShiftManana].Ventas)
	assert.Zero(t, report.Turnos[entity.ShiftNoche].Ventas)
	assert.Equal(t, 2, report.Totales.Ventas)
	assertMoney(t, "27", report.Totales.Ingresos)

	report, err = svc.DailyReport(ctx, "2026-01-16")
	require.NoError(t, err)
	assert.Zero(t, report.Totales.Ventas)

	top, err := svc.TopProducts(ctx, "", "", 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Jugo de Fresa", top[0].Nombre)
	assert.Equal(t, 4, top[0].TotalVendido)
	assert.Equal(t, 2, top[0].VentasIncluido)
	assertMoney(t, "20", top[0].Ingresos)
	assertMoney(t, "5", top[0].PrecioPromedio)
}
