package entities

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
)

func orderSpec() *engine.Spec {
	return &engine.Spec{
		Entity:     entity.TableOrders,
		Table:      entity.TableOrders,
		PrimaryKey: "id",
		CreatedAt:  "created_at",
		UpdatedAt:  "updated_at",
		Columns: []string{
			"id", "cliente_nombre", "cliente_id", "tipo_pedido", "estado", "subtotal", "descuento", "total",
			"metodo_pago", "pagado", "observaciones", "fecha_pedido", "fecha_entrega", "created_at", "updated_at",
		},
		Searchable: []string{"cliente_nombre", "observaciones"},
		Types: map[string]engine.FieldType{
			"subtotal":      engine.TypeDecimal,
			"descuento":     engine.TypeDecimal,
			"total":         engine.TypeDecimal,
			"pagado":        engine.TypeBool,
			"fecha_pedido":  engine.TypeTime,
			"fecha_entrega": engine.TypeTime,
			"created_at":    engine.TypeTime,
			"updated_at":    engine.TypeTime,
		},
		Deletion: engine.HardDelete(),

		Validate:      validateOrder,
		BeforeCreate:  beforeCreateOrder,
		BeforeUpdate:  beforeUpdateOrder,
		CustomFilters: orderFilters,
	}
}

func validateOrder(_ context.Context, in *engine.Input) []string {
	var v violations
	d := in.Data

	switch {
	case blank(d, "cliente_nombre"):
		v.add("El nombre del cliente es requerido")
	case tooLong(d, "cliente_nombre", 255):
		v.add("El nombre del cliente no puede exceder 255 caracteres")
	}
	v.addIf(d.Has("tipo_pedido") && !oneOf(d.String("tipo_pedido"), entity.OrderTypes),
		enumMsg("Tipo de pedido inválido", entity.OrderTypes))
	v.addIf(d.Has("estado") && !entity.OrderStatus(d.String("estado")).Valid(),
		enumMsg("Estado inválido", entity.OrderStatusNames()))
	nonNegative(&v, d, "subtotal", "El subtotal debe ser un número positivo")
	nonNegative(&v, d, "descuento", "El descuento debe ser un número positivo o cero")
	v.addIf(d.Has("metodo_pago") && !oneOf(d.String("metodo_pago"), entity.PaymentMethods),
		enumMsg("Método de pago inválido", entity.PaymentMethods))
	return v
}

// beforeCreateOrder aplica defaults y fija total = subtotal - descuento.
func beforeCreateOrder(_ context.Context, in *engine.Input) error {
	d := in.Data
	setDefault(d, "tipo_pedido", entity.OrderOnline)
	setDefault(d, "estado", string(entity.StatusPendiente))
	setDefault(d, "subtotal", decimal.Zero)
	setDefault(d, "descuento", decimal.Zero)
	setDefault(d, "pagado", false)
	setDefault(d, "metodo_pago", "efectivo")
	setDefault(d, "fecha_pedido", in.Now)
	return deriveTotal(d, d.Decimal("subtotal"), d.Decimal("descuento"))
}

// beforeUpdateOrder recalcula total en cada escritura; el operando ausente sale del registro actual.
// Un total enviado por el cliente se descarta.
func beforeUpdateOrder(_ context.Context, in *engine.Input) error {
	d := in.Data
	subtotal := in.Existing.Decimal("subtotal")
	if d.Has("subtotal") {
		subtotal = d.Decimal("subtotal")
	}
	descuento := in.Existing.Decimal("descuento")
	if d.Has("descuento") {
		descuento = d.Decimal("descuento")
	}
	return deriveTotal(d, subtotal, descuento)
}

func deriveTotal(d entity.Record, subtotal, descuento decimal.Decimal) error {
	total := subtotal.Sub(descuento)
	if total.IsNegative() {
		return domain.NewValidationError("El descuento no puede ser mayor al subtotal")
	}
	d["total"] = total
	return nil
}

func orderFilters(f engine.Filters, w *engine.Where) error {
	eqFilter(f, w, "estado", "estado")
	eqFilter(f, w, "tipo_pedido", "tipo_pedido")
	eqFilter(f, w, "metodo_pago", "metodo_pago")
	eqFilter(f, w, "cliente_id", "cliente_id")
	if err := boolFilter(f, w, "pagado", "pagado"); err != nil {
		return err
	}
	return dateRange(f, w, "fecha_pedido")
}
