// Package orders implementa el flujo de pedidos: creación transaccional con líneas,
// cambios de estado y registro de la venta una vez entregado el pedido.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/application/entities"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
)

// FieldLineItems clave con la que se adjuntan las líneas al pedido.
const FieldLineItems = "productos"

// LineItem línea de pedido. Nombre y categoría son la foto del producto al momento del pedido;
// si vienen vacíos se toman del catálogo.
type LineItem struct {
	ProductID   string          `json:"producto_id"`
	ProductName string          `json:"producto_nombre"`
	Category    string          `json:"producto_categoria"`
	UnitPrice   decimal.Decimal `json:"precio_unitario"`
	Quantity    int             `json:"cantidad"`
}

// Subtotal precio unitario por cantidad.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Seller quien registra la venta; Name vacío equivale a "Sistema".
type Seller struct {
	ID   string `json:"vendedor_id"`
	Name string `json:"vendedor_nombre"`
}

// Service casos de uso de pedidos y ventas.
type Service struct {
	orders *engine.Engine
	sales  *engine.Engine
	log    zerolog.Logger
}

// NewService construye el servicio sobre store con las Specs del registro.
func NewService(reg *entities.Registry, store repository.RecordStore, log zerolog.Logger) *Service {
	return &Service{
		orders: reg.MustEngine(entity.TableOrders, store),
		sales:  reg.MustEngine(entity.TableSales, store),
		log:    log,
	}
}

// CreateWithProducts inserta el pedido con el subtotal de sus líneas y luego las líneas,
// todo en una transacción. Si cualquier paso falla no queda nada persistido.
func (s *Service) CreateWithProducts(ctx context.Context, header entity.Record, items []LineItem) (entity.Record, error) {
	if err := validateItems(items); err != nil {
		return nil, fmt.Errorf("error creating order with products: %w", err)
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
	}
	header = header.Clone()
	// total sale de subtotal - descuento en el hook de pedidos
	header["subtotal"] = subtotal
	delete(header, "total")

	var orderID string
	err := s.orders.Atomic(ctx, func(tx *engine.Engine) error {
		order, err := tx.Create(ctx, header)
		if err != nil {
			return err
		}
		orderID = order.String("id")

		for _, item := range items {
			if err := addLineItem(ctx, tx.Store(), orderID, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error creating order with products: %w", err)
	}

	s.log.Info().Str("order_id", orderID).Int("items", len(items)).Msg("pedido creado con productos")
	return s.GetWithProducts(ctx, orderID)
}

func validateItems(items []LineItem) error {
	var v []string
	for i, item := range items {
		n := i + 1
		if strings.TrimSpace(item.ProductID) == "" {
			v = append(v, fmt.Sprintf("Producto %d: el ID del producto es requerido", n))
		}
		if item.Quantity <= 0 {
			v = append(v, fmt.Sprintf("Producto %d: la cantidad debe ser mayor a 0", n))
		}
		if item.UnitPrice.IsNegative() {
			v = append(v, fmt.Sprintf("Producto %d: el precio unitario debe ser un número positivo o cero", n))
		}
	}
	if len(v) > 0 {
		return domain.NewValidationError(v...)
	}
	return nil
}

func addLineItem(ctx context.Context, store repository.RecordStore, orderID string, item LineItem) error {
	if strings.TrimSpace(item.ProductName) == "" {
		if err := snapshotProduct(ctx, store, &item); err != nil {
			return err
		}
	}
	var category any
	if item.Category != "" {
		category = item.Category
	}

	d := store.Dialect()
	query := "INSERT INTO " + entity.TableLineItems +
		" (pedido_id, producto_id, producto_nombre, producto_categoria, precio_unitario, cantidad, subtotal) VALUES (" +
		repository.Placeholders(d, 1, 7) + ")"
	if _, err := store.Insert(ctx, query,
		orderID, item.ProductID, item.ProductName, category, item.UnitPrice, item.Quantity, item.Subtotal(),
	); err != nil {
		return fmt.Errorf("error adding line item %s: %w", item.ProductID, err)
	}
	return nil
}

// snapshotProduct completa nombre y categoría desde el catálogo.
func snapshotProduct(ctx context.Context, store repository.RecordStore, item *LineItem) error {
	d := store.Dialect()
	rows, err := store.Select(ctx,
		"SELECT nombre, categoria FROM "+entity.TableProducts+" WHERE id = "+d.Placeholder(1), item.ProductID)
	if err != nil {
		return fmt.Errorf("error reading product %s: %w", item.ProductID, err)
	}
	if len(rows) == 0 {
		return domain.NewValidationError("Producto no encontrado: " + item.ProductID)
	}
	item.ProductName = rows[0].String("nombre")
	if item.Category == "" {
		item.Category = rows[0].String("categoria")
	}
	return nil
}

// GetWithProducts devuelve el pedido con sus líneas en orden de inserción.
func (s *Service) GetWithProducts(ctx context.Context, id string) (entity.Record, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := lineItems(ctx, s.orders.Store(), id)
	if err != nil {
		return nil, err
	}
	order[FieldLineItems] = items
	return order, nil
}

func lineItems(ctx context.Context, store repository.RecordStore, orderID string) ([]entity.Record, error) {
	d := store.Dialect()
	rows, err := store.Select(ctx,
		"SELECT * FROM "+entity.TableLineItems+" WHERE pedido_id = "+d.Placeholder(1)+" ORDER BY id ASC", orderID)
	if err != nil {
		return nil, fmt.Errorf("error getting line items: %w", err)
	}
	for _, r := range rows {
		r["precio_unitario"] = r.Decimal("precio_unitario")
		r["cantidad"] = r.Int("cantidad")
		r["subtotal"] = r.Decimal("subtotal")
	}
	return rows, nil
}

// UpdateStatus cambia el estado del pedido. Acepta cualquier estado del enum; un salto fuera
// del flujo nominal solo se registra. Al pasar a entregado se fija fecha_entrega.
func (s *Service) UpdateStatus(ctx context.Context, id, estado string) (entity.Record, error) {
	to := entity.OrderStatus(strings.TrimSpace(estado))
	if !to.Valid() {
		return nil, fmt.Errorf("error updating order status: %w", domain.NewValidationError(
			"Estado inválido. Debe ser: "+strings.Join(entity.OrderStatusNames(), ", ")))
	}

	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error updating order status: %w", err)
	}
	from := entity.OrderStatus(current.String("estado"))
	if !entity.CanTransition(from, to) {
		s.log.Warn().Str("order_id", id).Str("from", string(from)).Str("to", string(to)).
			Msg("cambio de estado fuera del flujo nominal")
	}

	data := entity.Record{"estado": string(to)}
	if to == entity.StatusEntregado {
		data["fecha_entrega"] = s.orders.Now()
	}
	rec, err := s.orders.Patch(ctx, id, data)
	if err != nil {
		return nil, fmt.Errorf("error updating order status: %w", err)
	}
	return rec, nil
}

// CreateSaleFromOrder registra la venta de un pedido entregado copiando cliente, montos y
// método de pago. Falla si el pedido no está entregado o si ya tiene venta.
func (s *Service) CreateSaleFromOrder(ctx context.Context, orderID string, seller Seller) (entity.Record, error) {
	var sale entity.Record
	err := s.orders.Atomic(ctx, func(tx *engine.Engine) error {
		order, err := tx.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if entity.OrderStatus(order.String("estado")) != entity.StatusEntregado {
			return domain.ErrOrderNotDelivered
		}

		store := tx.Store()
		rows, err := store.Select(ctx,
			"SELECT id FROM "+entity.TableSales+" WHERE pedido_id = "+store.Dialect().Placeholder(1), orderID)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			return &domain.ConflictError{Err: domain.ErrSaleExists}
		}

		data := entity.Record{
			"pedido_id":       orderID,
			"vendedor_nombre": entity.DefaultSeller,
			"cliente_nombre":  order["cliente_nombre"],
			"subtotal":        order["subtotal"],
			"descuento":       order["descuento"],
			"total":           order["total"],
			"metodo_pago":     order["metodo_pago"],
		}
		if strings.TrimSpace(seller.Name) != "" {
			data["vendedor_nombre"] = seller.Name
		}
		if seller.ID != "" {
			data["vendedor_id"] = seller.ID
		}
		sale, err = s.sales.WithStore(store).Create(ctx, data)
		if errors.Is(err, domain.ErrConflict) {
			// el índice único de ventas.pedido_id ganó la carrera
			return &domain.ConflictError{Err: domain.ErrSaleExists}
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating sale from order: %w", err)
	}
	s.log.Info().Str("order_id", orderID).Str("sale_id", sale.String("id")).Msg("venta registrada")
	return sale, nil
}
