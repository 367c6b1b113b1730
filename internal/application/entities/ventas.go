package entities

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
)

func saleSpec() *engine.Spec {
	return &engine.Spec{
		Entity:     entity.TableSales,
		Table:      entity.TableSales,
		PrimaryKey: "id",
		CreatedAt:  "created_at",
		UpdatedAt:  "updated_at",
		Columns: []string{
			"id", "pedido_id", "vendedor_id", "vendedor_nombre", "cliente_nombre", "subtotal", "descuento",
			"total", "metodo_pago", "turno", "fecha_venta", "created_at", "updated_at",
		},
		Searchable: []string{"vendedor_nombre", "cliente_nombre"},
		Types: map[string]engine.FieldType{
			"subtotal":    engine.TypeDecimal,
			"descuento":   engine.TypeDecimal,
			"total":       engine.TypeDecimal,
			"fecha_venta": engine.TypeTime,
			"created_at":  engine.TypeTime,
			"updated_at":  engine.TypeTime,
		},
		Deletion: engine.HardDelete(),

		Validate:      validateSale,
		BeforeCreate:  beforeCreateSale,
		CustomFilters: saleFilters,
	}
}

func validateSale(_ context.Context, in *engine.Input) []string {
	var v violations
	d := in.Data

	v.addIf(in.Op == engine.OpCreate && blank(d, "pedido_id"), "El ID del pedido es requerido")
	v.addIf(blank(d, "vendedor_nombre"), "El nombre del vendedor es requerido")
	v.addIf(blank(d, "cliente_nombre"), "El nombre del cliente es requerido")
	nonNegative(&v, d, "subtotal", "El subtotal debe ser un número positivo")
	nonNegative(&v, d, "total", "El total debe ser un número positivo")
	nonNegative(&v, d, "descuento", "El descuento debe ser un número positivo o cero")
	v.addIf(d.Has("metodo_pago") && !oneOf(d.String("metodo_pago"), entity.PaymentMethods),
		enumMsg("Método de pago inválido", entity.PaymentMethods))
	v.addIf(d.Has("turno") && !oneOf(d.String("turno"), entity.Shifts),
		enumMsg("Turno inválido", entity.Shifts))
	return v
}

// beforeCreateSale deriva turno de la hora y total de subtotal - descuento cuando faltan.
func beforeCreateSale(_ context.Context, in *engine.Input) error {
	d := in.Data
	setDefault(d, "descuento", decimal.Zero)
	setDefault(d, "metodo_pago", "efectivo")
	setDefault(d, "fecha_venta", in.Now)
	if blank(d, "turno") {
		d["turno"] = entity.ShiftAt(in.Now)
	}
	if !d.Has("total") && d.Has("subtotal") {
		d["total"] = d.Decimal("subtotal").Sub(d.Decimal("descuento"))
	}
	return nil
}

func saleFilters(f engine.Filters, w *engine.Where) error {
	eqFilter(f, w, "metodo_pago", "metodo_pago")
	eqFilter(f, w, "turno", "turno")
	eqFilter(f, w, "vendedor_id", "vendedor_id")
	if err := dateRange(f, w, "fecha_venta"); err != nil {
		return err
	}
	return amountRange(f, w, "total", "total_min", "total_max")
}
