package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
)

// OrderStats resumen de pedidos por estado.
type OrderStats struct {
	TotalPedidos    int             `json:"total_pedidos"`
	Pendientes      int             `json:"pendientes"`
	EnPreparacion   int             `json:"en_preparacion"`
	Listos          int             `json:"listos"`
	Entregados      int             `json:"entregados"`
	Cancelados      int             `json:"cancelados"`
	IngresosTotales decimal.Decimal `json:"ingresos_totales"`
	TicketPromedio  decimal.Decimal `json:"ticket_promedio"`
}

// Period rango de fechas YYYY-MM-DD, ambos extremos incluidos.
type Period struct {
	Desde string `json:"desde"`
	Hasta string `json:"hasta"`
}

// MethodTotals ventas e ingresos de un método de pago o turno.
type MethodTotals struct {
	Ventas   int             `json:"ventas"`
	Ingresos decimal.Decimal `json:"ingresos"`
}

// SalesTotals totales de ventas del periodo.
type SalesTotals struct {
	Ventas         int             `json:"ventas"`
	Ingresos       decimal.Decimal `json:"ingresos"`
	TicketPromedio decimal.Decimal `json:"ticket_promedio"`
	ClientesUnicos int             `json:"clientes_unicos"`
}

// SalesStats ventas del periodo con desglose por método de pago.
type SalesStats struct {
	Periodo     Period                  `json:"periodo"`
	Totales     SalesTotals             `json:"totales"`
	MetodosPago map[string]MethodTotals `json:"metodos_pago"`
}

// ShiftReport ventas de un turno con desglose por método de pago.
type ShiftReport struct {
	Ventas      int                     `json:"ventas"`
	Ingresos    decimal.Decimal         `json:"ingresos"`
	MetodosPago map[string]MethodTotals `json:"metodos_pago"`
}

// DailyReport cierre de caja de un día por turno.
type DailyReport struct {
	Fecha   string                  `json:"fecha"`
	Turnos  map[string]*ShiftReport `json:"turnos"`
	Totales MethodTotals            `json:"totales"`
}

// TopProduct producto más vendido en ventas registradas.
type TopProduct struct {
	Nombre         string          `json:"producto_nombre"`
	Categoria      string          `json:"producto_categoria"`
	TotalVendido   int             `json:"total_vendido"`
	Ingresos       decimal.Decimal `json:"ingresos_generados"`
	VentasIncluido int             `json:"ventas_incluido"`
	PrecioPromedio decimal.Decimal `json:"precio_promedio"`
}

// Stats cuenta pedidos por estado e ingresos. Si from y to vienen, filtra por la fecha del pedido.
func (s *Service) Stats(ctx context.Context, from, to string) (*OrderStats, error) {
	store := s.orders.Store()
	d := store.Dialect()

	var args []any
	var cols []string
	for _, st := range []entity.OrderStatus{
		entity.StatusPendiente, entity.StatusEnPreparacion, entity.StatusListo,
		entity.StatusEntregado, entity.StatusCancelado,
	} {
		args = append(args, string(st))
		cols = append(cols, fmt.Sprintf("COUNT(CASE WHEN estado = %s THEN 1 END) AS c%d", d.Placeholder(len(args)), len(args)))
	}
	query := "SELECT COUNT(*) AS total_pedidos, " + strings.Join(cols, ", ") +
		", SUM(total) AS ingresos, AVG(total) AS ticket FROM " + entity.TableOrders
	if from != "" && to != "" {
		if err := checkPeriod(from, to); err != nil {
			return nil, err
		}
		query += " WHERE " + d.DateOf("fecha_pedido") + " BETWEEN " + d.Placeholder(len(args)+1) +
			" AND " + d.Placeholder(len(args)+2)
		args = append(args, from, to)
	}

	rows, err := store.Select(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error getting order stats: %w", err)
	}
	out := &OrderStats{IngresosTotales: decimal.Zero, TicketPromedio: decimal.Zero}
	if len(rows) == 0 {
		return out, nil
	}
	r := rows[0]
	out.TotalPedidos = r.Int("total_pedidos")
	out.Pendientes = r.Int("c1")
	out.EnPreparacion = r.Int("c2")
	out.Listos = r.Int("c3")
	out.Entregados = r.Int("c4")
	out.Cancelados = r.Int("c5")
	out.IngresosTotales = r.Decimal("ingresos").Round(2)
	out.TicketPromedio = r.Decimal("ticket").Round(2)
	return out, nil
}

// SalesStats totales de ventas entre from y to (incluidos) y desglose por método de pago.
func (s *Service) SalesStats(ctx context.Context, from, to string) (*SalesStats, error) {
	if err := checkPeriod(from, to); err != nil {
		return nil, err
	}
	store := s.sales.Store()
	d := store.Dialect()
	where := " WHERE " + d.DateOf("fecha_venta") + " BETWEEN " + d.Placeholder(1) + " AND " + d.Placeholder(2)

	totals, err := store.Select(ctx,
		"SELECT COUNT(*) AS ventas, SUM(total) AS ingresos, AVG(total) AS ticket, "+
			"COUNT(DISTINCT cliente_nombre) AS clientes FROM "+entity.TableSales+where, from, to)
	if err != nil {
		return nil, fmt.Errorf("error getting sales stats: %w", err)
	}
	byMethod, err := store.Select(ctx,
		"SELECT metodo_pago, COUNT(*) AS ventas, SUM(total) AS ingresos FROM "+entity.TableSales+where+
			" GROUP BY metodo_pago", from, to)
	if err != nil {
		return nil, fmt.Errorf("error getting sales stats: %w", err)
	}

	out := &SalesStats{
		Periodo:     Period{Desde: from, Hasta: to},
		MetodosPago: make(map[string]MethodTotals, len(byMethod)),
	}
	if len(totals) > 0 {
		t := totals[0]
		out.Totales = SalesTotals{
			Ventas:         t.Int("ventas"),
			Ingresos:       t.Decimal("ingresos").Round(2),
			TicketPromedio: t.Decimal("ticket").Round(2),
			ClientesUnicos: t.Int("clientes"),
		}
	}
	for _, r := range byMethod {
		out.MetodosPago[r.String("metodo_pago")] = MethodTotals{
			Ventas:   r.Int("ventas"),
			Ingresos: r.Decimal("ingresos").Round(2),
		}
	}
	return out, nil
}

// DailyReport ventas del día agrupadas por turno y método de pago. Fecha vacía es hoy.
func (s *Service) DailyReport(ctx context.Context, fecha string) (*DailyReport, error) {
	if fecha == "" {
		fecha = s.sales.Now().Format(entity.DateLayout)
	}
	if !isDate(fecha) {
		return nil, domain.NewValidationError("La fecha debe tener formato YYYY-MM-DD")
	}
	store := s.sales.Store()
	d := store.Dialect()
	rows, err := store.Select(ctx,
		"SELECT turno, metodo_pago, COUNT(*) AS ventas, SUM(total) AS ingresos FROM "+entity.TableSales+
			" WHERE "+d.DateOf("fecha_venta")+" = "+d.Placeholder(1)+
			" GROUP BY turno, metodo_pago ORDER BY turno, metodo_pago", fecha)
	if err != nil {
		return nil, fmt.Errorf("error getting daily report: %w", err)
	}

	report := &DailyReport{
		Fecha:   fecha,
		Turnos:  make(map[string]*ShiftReport, len(entity.Shifts)),
		Totales: MethodTotals{Ingresos: decimal.Zero},
	}
	for _, shift := range entity.Shifts {
		report.Turnos[shift] = &ShiftReport{Ingresos: decimal.Zero, MetodosPago: map[string]MethodTotals{}}
	}
	for _, r := range rows {
		shift, ok := report.Turnos[r.String("turno")]
		if !ok {
			continue
		}
		m := MethodTotals{Ventas: r.Int("ventas"), Ingresos: r.Decimal("ingresos").Round(2)}
		shift.MetodosPago[r.String("metodo_pago")] = m
		shift.Ventas += m.Ventas
		shift.Ingresos = shift.Ingresos.Add(m.Ingresos)
		report.Totales.Ventas += m.Ventas
		report.Totales.Ingresos = report.Totales.Ingresos.Add(m.Ingresos)
	}
	return report, nil
}

// TopProducts productos más vendidos en ventas registradas, opcionalmente dentro de un periodo.
func (s *Service) TopProducts(ctx context.Context, from, to string, limit int) ([]TopProduct, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	store := s.sales.Store()
	d := store.Dialect()

	var args []any
	where := ""
	if from != "" && to != "" {
		if err := checkPeriod(from, to); err != nil {
			return nil, err
		}
		where = " WHERE " + d.DateOf("v.fecha_venta") + " BETWEEN " + d.Placeholder(1) + " AND " + d.Placeholder(2)
		args = append(args, from, to)
	}
	args = append(args, limit)
	query := "SELECT pp.producto_nombre, pp.producto_categoria, SUM(pp.cantidad) AS total_vendido, " +
		"SUM(pp.subtotal) AS ingresos, COUNT(DISTINCT v.id) AS ventas, AVG(pp.precio_unitario) AS precio " +
		"FROM " + entity.TableSales + " v " +
		"JOIN " + entity.TableOrders + " p ON v.pedido_id = p.id " +
		"JOIN " + entity.TableLineItems + " pp ON p.id = pp.pedido_id" + where +
		" GROUP BY pp.producto_nombre, pp.producto_categoria ORDER BY total_vendido DESC, pp.producto_nombre ASC" +
		" LIMIT " + d.Placeholder(len(args))

	rows, err := store.Select(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error getting top products: %w", err)
	}
	out := make([]TopProduct, 0, len(rows))
	for _, r := range rows {
		out = append(out, TopProduct{
			Nombre:         r.String("producto_nombre"),
			Categoria:      r.String("producto_categoria"),
			TotalVendido:   r.Int("total_vendido"),
			Ingresos:       r.Decimal("ingresos").Round(2),
			VentasIncluido: r.Int("ventas"),
			PrecioPromedio: r.Decimal("precio").Round(2),
		})
	}
	return out, nil
}

func checkPeriod(from, to string) error {
	var v []string
	if !isDate(from) {
		v = append(v, "fecha_desde debe tener formato YYYY-MM-DD")
	}
	if !isDate(to) {
		v = append(v, "fecha_hasta debe tener formato YYYY-MM-DD")
	}
	if len(v) > 0 {
		return domain.NewValidationError(v...)
	}
	return nil
}

func isDate(s string) bool {
	_, err := time.Parse(entity.DateLayout, s)
	return err == nil
}
