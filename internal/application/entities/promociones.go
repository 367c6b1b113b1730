package entities

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
)

// FieldProductIDs campo virtual con los productos a los que aplica la promoción.
const FieldProductIDs = "productos_aplicables"

var (
	hundred          = decimal.NewFromInt(100)
	maxFixedDiscount = decimal.RequireFromString(entity.MaxFixedDiscount)
)

func promotionSpec(now func() time.Time) *engine.Spec {
	return &engine.Spec{
		Entity:     entity.TablePromotions,
		Table:      entity.TablePromotions,
		PrimaryKey: "id",
		CreatedAt:  "created_at",
		UpdatedAt:  "updated_at",
		Columns: []string{
			"id", "titulo", "descripcion", "tipo", "valor_descuento", "fecha_inicio", "fecha_fin",
			"imagen_url", "activa", "created_at", "updated_at",
		},
		Searchable: []string{"titulo", "descripcion"},
		Types: map[string]engine.FieldType{
			"valor_descuento": engine.TypeDecimal,
			"fecha_inicio":    engine.TypeTime,
			"fecha_fin":       engine.TypeTime,
			"activa":          engine.TypeBool,
			"created_at":      engine.TypeTime,
			"updated_at":      engine.TypeTime,
		},
		RawFields: []string{"imagen_url", FieldProductIDs},
		Virtual:   []string{FieldProductIDs},
		Deletion:  engine.HardDelete(),

		Validate:     validatePromotion,
		BeforeCreate: beforeCreatePromotion,
		AfterCreate:  attachPromotionProducts,
		BeforeUpdate: normalizeProductIDs,
		AfterUpdate:  attachPromotionProducts,
		AfterGet: func(rec entity.Record) entity.Record {
			return WithPromotionFlags(rec, now())
		},
		CustomFilters: func(f engine.Filters, w *engine.Where) error {
			return promotionFilters(f, w, now())
		},
	}
}

// PromotionWindowOf arma la ventana de vigencia a partir de un registro de promociones.
func PromotionWindowOf(rec entity.Record) entity.PromotionWindow {
	start, _ := rec.Time("fecha_inicio")
	end, _ := rec.Time("fecha_fin")
	return entity.PromotionWindow{Active: rec.Bool("activa"), Start: start, End: end}
}

// WithPromotionFlags agrega vigente, proximamente y expirada calculados contra now.
func WithPromotionFlags(rec entity.Record, now time.Time) entity.Record {
	w := PromotionWindowOf(rec)
	rec["activa"] = w.Active
	rec["vigente"] = w.Vigente(now)
	rec["proximamente"] = w.Proximamente(now)
	rec["expirada"] = w.Expirada(now)
	return rec
}

func validatePromotion(_ context.Context, in *engine.Input) []string {
	var v violations
	d := in.Data

	switch {
	case blank(d, "titulo"):
		v.add("El título de la promoción es requerido")
	case tooLong(d, "titulo", 255):
		v.add("El título no puede exceder 255 caracteres")
	}

	tipo := entity.PromotionType(d.String("tipo"))
	switch {
	case blank(d, "tipo"):
		v.add("El tipo de promoción es requerido")
	case !oneOf(string(tipo), entity.PromotionTypes):
		v.add(enumMsg("Tipo de promoción inválido", entity.PromotionTypes))
	}

	if value, present, ok := number(d, "valor_descuento"); present {
		switch {
		case !ok || value.IsNegative():
			v.add("El valor de descuento debe ser un número positivo o cero")
		case tipo == entity.PromoPercentage && value.GreaterThan(hundred):
			v.add("El descuento porcentual no puede ser mayor a 100%")
		case tipo == entity.PromoFixed && value.GreaterThan(maxFixedDiscount):
			v.add("El descuento fijo no puede exceder 9999.99")
		}
	}

	start, okStart := d.Time("fecha_inicio")
	switch {
	case blank(d, "fecha_inicio"):
		v.add("La fecha de inicio es requerida")
	case !okStart:
		v.add("La fecha de inicio debe tener formato YYYY-MM-DD HH:MM:SS")
	}
	end, okEnd := d.Time("fecha_fin")
	switch {
	case blank(d, "fecha_fin"):
		v.add("La fecha de fin es requerida")
	case !okEnd:
		v.add("La fecha de fin debe tener formato YYYY-MM-DD HH:MM:SS")
	case okStart && !end.After(start):
		v.add("La fecha de fin debe ser posterior a la fecha de inicio")
	}

	v.addIf(!validURL(d, "imagen_url"), "La URL de la imagen no es válida")

	if d.Has(FieldProductIDs) {
		if _, err := ParseProductIDs(d[FieldProductIDs]); err != nil {
			v.add(msgProductIDs)
		}
	}
	return v
}

func beforeCreatePromotion(ctx context.Context, in *engine.Input) error {
	setDefault(in.Data, "activa", true)
	setDefault(in.Data, "valor_descuento", decimal.Zero)
	return normalizeProductIDs(ctx, in)
}

// normalizeProductIDs deja productos_aplicables como []string antes de la escritura principal.
func normalizeProductIDs(_ context.Context, in *engine.Input) error {
	raw, ok := in.Data[FieldProductIDs]
	if !ok {
		return nil
	}
	ids, err := ParseProductIDs(raw)
	if err != nil {
		return err
	}
	in.Data[FieldProductIDs] = ids
	return nil
}

// attachPromotionProducts reemplaza las asociaciones si el cuerpo traía productos_aplicables
// y devuelve la promoción con sus productos.
func attachPromotionProducts(ctx context.Context, in *engine.Input, rec entity.Record) (entity.Record, error) {
	ids, ok := in.Data[FieldProductIDs].([]string)
	if !ok {
		return rec, nil
	}
	if err := ReplacePromotionProducts(ctx, in.Store, in.ID, ids); err != nil {
		return nil, err
	}
	products, err := PromotionProducts(ctx, in.Store, in.ID)
	if err != nil {
		return nil, err
	}
	rec["productos"] = products
	return rec, nil
}

func promotionFilters(f engine.Filters, w *engine.Where, now time.Time) error {
	eqFilter(f, w, "tipo", "tipo")
	if err := boolFilter(f, w, "activa", "activa"); err != nil {
		return err
	}
	vigentes, ok, err := f.Bool("vigentes")
	if err != nil {
		return err
	}
	if ok && vigentes {
		w.Eq("activa", true).Cmp("fecha_inicio", "<=", now).Cmp("fecha_fin", ">=", now)
	}
	d := w.Dialect()
	if v, ok := f.Get("fecha_desde"); ok {
		if !isDate(v) {
			return invalidDateFilter("fecha_desde")
		}
		w.Cmp(d.DateOf("fecha_inicio"), ">=", v)
	}
	if v, ok := f.Get("fecha_hasta"); ok {
		if !isDate(v) {
			return invalidDateFilter("fecha_hasta")
		}
		w.Cmp(d.DateOf("fecha_fin"), "<=", v)
	}
	return nil
}
