package entities

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
)

var maxProductPrice = decimal.RequireFromString(entity.MaxProductPrice)

func productSpec() *engine.Spec {
	return &engine.Spec{
		Entity:     entity.TableProducts,
		Table:      entity.TableProducts,
		PrimaryKey: "id",
		CreatedAt:  "created_at",
		UpdatedAt:  "updated_at",
		Columns: []string{
			"id", "nombre", "descripcion", "ingredientes", "categoria", "precio", "precio_promocion",
			"imagen_url", "disponible", "promocion", "created_at", "updated_at",
		},
		Searchable: []string{"nombre", "descripcion", "ingredientes"},
		Types: map[string]engine.FieldType{
			"precio":           engine.TypeDecimal,
			"precio_promocion": engine.TypeDecimal,
			"disponible":       engine.TypeBool,
			"promocion":        engine.TypeBool,
			"created_at":       engine.TypeTime,
			"updated_at":       engine.TypeTime,
		},
		RawFields: []string{"imagen_url"},
		Deletion:  engine.HardDelete(),

		Validate:      validateProduct,
		BeforeCreate:  beforeCreateProduct,
		BeforeUpdate:  beforeUpdateProduct,
		CustomFilters: productFilters,
	}
}

func validateProduct(_ context.Context, in *engine.Input) []string {
	var v violations
	d := in.Data

	switch {
	case blank(d, "nombre"):
		v.add("El nombre del producto es requerido")
	case tooLong(d, "nombre", 255):
		v.add("El nombre del producto no puede exceder 255 caracteres")
	}

	switch {
	case blank(d, "categoria"):
		v.add("La categoría es requerida")
	case !oneOf(d.String("categoria"), entity.ProductCategories):
		v.add(enumMsg("Categoría inválida", entity.ProductCategories))
	}

	precio, hasPrecio, okPrecio := number(d, "precio")
	switch {
	case !hasPrecio:
		v.add("El precio es requerido")
	case !okPrecio || !precio.IsPositive():
		v.add("El precio debe ser un número positivo")
	case precio.GreaterThan(maxProductPrice):
		v.add("El precio no puede exceder 9999.99")
	}

	if promo, present, ok := number(d, "precio_promocion"); present {
		switch {
		case !ok || promo.IsNegative():
			v.add("El precio de promoción debe ser un número positivo o cero")
		case promo.GreaterThan(maxProductPrice):
			v.add("El precio de promoción no puede exceder 9999.99")
		}
		v.addIf(ok && okPrecio && promo.GreaterThanOrEqual(precio),
			"El precio de promoción debe ser menor al precio normal")
	}

	v.addIf(!validURL(d, "imagen_url"), "La URL de la imagen no es válida")
	return v
}

func beforeCreateProduct(_ context.Context, in *engine.Input) error {
	d := in.Data
	setDefault(d, "disponible", true)
	setDefault(d, "promocion", false)
	if !d.Bool("promocion") {
		d["precio_promocion"] = nil
	}
	return nil
}

// beforeUpdateProduct limpia el precio de promoción cuando se desactiva la promoción.
func beforeUpdateProduct(_ context.Context, in *engine.Input) error {
	if in.Data.Has("promocion") && !in.Data.Bool("promocion") {
		in.Data["precio_promocion"] = nil
	}
	return nil
}

func productFilters(f engine.Filters, w *engine.Where) error {
	eqFilter(f, w, "categoria", "categoria")
	if err := boolFilter(f, w, "disponible", "disponible"); err != nil {
		return err
	}
	if err := boolFilter(f, w, "promocion", "promocion"); err != nil {
		return err
	}
	return amountRange(f, w, "precio", "precio_min", "precio_max")
}
