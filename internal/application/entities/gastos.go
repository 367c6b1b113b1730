package entities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
)

var maxExpenseAmount = decimal.RequireFromString(entity.MaxExpenseAmount)

func expenseSpec() *engine.Spec {
	return &engine.Spec{
		Entity:     entity.TableExpenses,
		Table:      entity.TableExpenses,
		PrimaryKey: "id",
		CreatedAt:  "created_at",
		UpdatedAt:  "updated_at",
		Columns: []string{
			"id", "concepto", "categoria", "monto", "fecha_gasto", "responsable", "comprobante",
			"observaciones", "created_at", "updated_at",
		},
		Searchable: []string{"concepto", "responsable", "comprobante", "observaciones"},
		Types: map[string]engine.FieldType{
			"monto":      engine.TypeDecimal,
			"created_at": engine.TypeTime,
			"updated_at": engine.TypeTime,
		},
		Deletion: engine.HardDelete(),

		Validate:      validateExpense,
		BeforeCreate:  beforeCreateExpense,
		BeforeUpdate:  beforeUpdateExpense,
		AfterGet:      afterGetExpense,
		CustomFilters: expenseFilters,
	}
}

func validateExpense(_ context.Context, in *engine.Input) []string {
	var v violations
	d := in.Data

	switch {
	case blank(d, "concepto"):
		v.add("El concepto del gasto es requerido")
	case tooLong(d, "concepto", 255):
		v.add("El concepto no puede exceder 255 caracteres")
	}

	switch {
	case blank(d, "categoria"):
		v.add("La categoría es requerida")
	case !oneOf(d.String("categoria"), entity.ExpenseCategories):
		v.add(enumMsg("Categoría inválida", entity.ExpenseCategories))
	}

	monto, present, ok := number(d, "monto")
	switch {
	case !present:
		v.add("El monto es requerido")
	case !ok || !monto.IsPositive():
		v.add("El monto debe ser un número positivo")
	case monto.GreaterThan(maxExpenseAmount):
		v.add("El monto no puede exceder 999,999.99")
	}

	if d.Has("fecha_gasto") && !blank(d, "fecha_gasto") {
		_, valid := expenseDate(d["fecha_gasto"])
		v.addIf(!valid, "La fecha del gasto debe tener formato YYYY-MM-DD")
	}

	switch {
	case blank(d, "responsable"):
		v.add("El responsable es requerido")
	case tooLong(d, "responsable", 255):
		v.add("El responsable no puede exceder 255 caracteres")
	}
	v.addIf(tooLong(d, "comprobante", 100), "El número de comprobante no puede exceder 100 caracteres")
	return v
}

// beforeCreateExpense usa la fecha de hoy si no vino fecha_gasto.
func beforeCreateExpense(ctx context.Context, in *engine.Input) error {
	if blank(in.Data, "fecha_gasto") {
		in.Data["fecha_gasto"] = in.Now.Format(entity.DateLayout)
		return nil
	}
	return beforeUpdateExpense(ctx, in)
}

func beforeUpdateExpense(_ context.Context, in *engine.Input) error {
	if v, ok := in.Data["fecha_gasto"]; ok {
		if s, valid := expenseDate(v); valid {
			in.Data["fecha_gasto"] = s
		}
	}
	return nil
}

// afterGetExpense devuelve fecha_gasto como YYYY-MM-DD.
func afterGetExpense(rec entity.Record) entity.Record {
	if s, ok := expenseDate(rec["fecha_gasto"]); ok {
		rec["fecha_gasto"] = s
	}
	return rec
}

// expenseDate normaliza una fecha de gasto. Las columnas DATE llegan del driver como medianoche UTC.
func expenseDate(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(entity.DateLayout), !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		return s, isDate(s)
	case []byte:
		return expenseDate(string(t))
	}
	return "", false
}

func expenseFilters(f engine.Filters, w *engine.Where) error {
	eqFilter(f, w, "categoria", "categoria")
	if v, ok := f.Get("responsable"); ok {
		w.Like("responsable", v)
	}
	if v, ok := f.Get("fecha_desde"); ok {
		if !isDate(v) {
			return invalidDateFilter("fecha_desde")
		}
		w.Cmp("fecha_gasto", ">=", v)
	}
	if v, ok := f.Get("fecha_hasta"); ok {
		if !isDate(v) {
			return invalidDateFilter("fecha_hasta")
		}
		w.Cmp("fecha_gasto", "<=", v)
	}
	if err := amountRange(f, w, "monto", "monto_min", "monto_max"); err != nil {
		return err
	}
	return monthFilter(f, w)
}

// monthFilter traduce mes+anio (o solo anio) a un rango [desde, hasta) sobre fecha_gasto.
func monthFilter(f engine.Filters, w *engine.Where) error {
	yearKey := "anio"
	if _, ok := f.Get(yearKey); !ok {
		yearKey = "año"
	}
	if _, ok := f.Get(yearKey); !ok {
		return nil
	}
	year := f.Int(yearKey, 0)
	if year < 1 || year > 9999 {
		return domain.NewValidationError("El año debe ser numérico")
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	if _, ok := f.Get("mes"); ok {
		month := f.Int("mes", 0)
		if month < 1 || month > 12 {
			return domain.NewValidationError(fmt.Sprintf("Mes inválido: %s", f["mes"]))
		}
		from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	}
	w.Cmp("fecha_gasto", ">=", from.Format(entity.DateLayout))
	w.Cmp("fecha_gasto", "<", to.Format(entity.DateLayout))
	return nil
}
