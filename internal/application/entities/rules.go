package entities

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
)

// violations acumula mensajes de validación en el orden en que se detectan.
type violations []string

func (v *violations) add(msg string) { *v = append(*v, msg) }

func (v *violations) addIf(cond bool, msg string) {
	if cond {
		v.add(msg)
	}
}

// blank indica si el campo falta o es texto vacío.
func blank(rec entity.Record, key string) bool {
	return strings.TrimSpace(rec.String(key)) == ""
}

func tooLong(rec entity.Record, key string, max int) bool {
	return utf8.RuneCountInString(rec.String(key)) > max
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// number devuelve el campo como decimal; present es false si falta, ok es false si no es numérico.
func number(rec entity.Record, key string) (d decimal.Decimal, present, ok bool) {
	v, exists := rec[key]
	if !exists || v == nil {
		return decimal.Zero, false, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return decimal.Zero, false, false
	}
	d, ok = entity.ToDecimal(v)
	return d, true, ok
}

// nonNegative valida un monto opcional >= 0.
func nonNegative(v *violations, rec entity.Record, key, msg string) {
	if d, present, ok := number(rec, key); present && (!ok || d.IsNegative()) {
		v.add(msg)
	}
}

// validURL acepta vacío; si hay valor debe ser una URL absoluta.
func validURL(rec entity.Record, key string) bool {
	s := strings.TrimSpace(rec.String(key))
	return s == "" || (govalidator.IsURL(s) && strings.Contains(s, "://"))
}

func enumMsg(prefix string, allowed []string) string {
	return prefix + ". Debe ser: " + strings.Join(allowed, ", ")
}

// setDefault asigna value si el campo no vino en el cuerpo.
func setDefault(rec entity.Record, key string, value any) {
	if !rec.Has(key) {
		rec[key] = value
	}
}

// dateRange agrega filtros fecha_desde/fecha_hasta sobre la parte fecha de column.
// Los valores deben venir como YYYY-MM-DD.
func dateRange(f engine.Filters, w *engine.Where, column string) error {
	expr := w.Dialect().DateOf(column)
	if v, ok := f.Get("fecha_desde"); ok {
		if !isDate(v) {
			return invalidDateFilter("fecha_desde")
		}
		w.Cmp(expr, ">=", v)
	}
	if v, ok := f.Get("fecha_hasta"); ok {
		if !isDate(v) {
			return invalidDateFilter("fecha_hasta")
		}
		w.Cmp(expr, "<=", v)
	}
	return nil
}

func invalidDateFilter(key string) error {
	return domain.NewValidationError(key + " debe tener formato YYYY-MM-DD")
}

// amountRange agrega filtros numéricos key_min/key_max sobre column.
func amountRange(f engine.Filters, w *engine.Where, column, minKey, maxKey string) error {
	for _, b := range []struct{ key, op string }{{minKey, ">="}, {maxKey, "<="}} {
		v, ok := f.Get(b.key)
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return domain.NewValidationError(b.key + " debe ser numérico")
		}
		w.Cmp(column, b.op, d)
	}
	return nil
}

// boolFilter agrega column = bool si el filtro vino en la consulta.
func boolFilter(f engine.Filters, w *engine.Where, key, column string) error {
	b, ok, err := f.Bool(key)
	if ok {
		w.Eq(column, b)
	}
	return err
}

// eqFilter agrega column = valor si el filtro vino con contenido.
func eqFilter(f engine.Filters, w *engine.Where, key, column string) {
	if v, ok := f.Get(key); ok {
		w.Eq(column, v)
	}
}

func isDate(s string) bool {
	_, err := time.Parse(entity.DateLayout, s)
	return err == nil
}
