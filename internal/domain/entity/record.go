package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record es una fila genérica del almacén: nombre de columna -> valor.
// Los timestamps created_at/updated_at viajan como campos normales.
type Record map[string]any

// Clone devuelve una copia superficial del registro.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has indica si la clave está presente con un valor no nulo.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// String devuelve el valor como texto ("" si falta).
func (r Record) String(key string) string {
	return ToString(r[key])
}

// Decimal devuelve el valor como decimal (cero si falta o no es numérico).
func (r Record) Decimal(key string) decimal.Decimal {
	d, _ := ToDecimal(r[key])
	return d
}

// Bool devuelve el valor como booleano.
func (r Record) Bool(key string) bool {
	b, _ := ToBool(r[key])
	return b
}

// Int devuelve el valor como entero.
func (r Record) Int(key string) int {
	n, _ := ToInt(r[key])
	return n
}

// Time devuelve el valor como instante; ok es false si no se pudo interpretar.
func (r Record) Time(key string) (time.Time, bool) {
	return ToTime(r[key])
}

// Layouts aceptados para fechas en cuerpos y columnas de texto.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

var timeLayouts = []string{
	DateTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05",
	DateLayout,
}

// ToString convierte valores escalares a texto.
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(DateTimeLayout)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// ToDecimal interpreta números, textos numéricos y valores de driver como decimal.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return t, true
	case *decimal.Decimal:
		if t == nil {
			return decimal.Zero, false
		}
		return *t, true
	case decimal.NullDecimal:
		return t.Decimal, t.Valid
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	case []byte:
		d, err := decimal.NewFromString(strings.TrimSpace(string(t)))
		return d, err == nil
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return decimal.Zero, false
		}
		return ToDecimal(dv)
	default:
		return decimal.Zero, false
	}
}

// ToBool sigue la semántica de FILTER_VALIDATE_BOOLEAN: 1/true/on/yes/si son verdaderos.
func ToBool(v any) (bool, bool) {
	switch t := v.(type) {
	case nil:
		return false, false
	case bool:
		return t, true
	case int:
		return t != 0, true
	case int64:
		return t != 0, true
	case float64:
		return t != 0, true
	case json.Number:
		n, err := t.Int64()
		return err == nil && n != 0, err == nil
	case []byte:
		return ToBool(string(t))
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "on", "yes", "si", "sí":
			return true, true
		case "0", "false", "off", "no", "":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// ToInt interpreta enteros de drivers, JSON y texto.
func ToInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case decimal.Decimal:
		return int(t.IntPart()), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	case []byte:
		n, err := strconv.Atoi(strings.TrimSpace(string(t)))
		return n, err == nil
	default:
		return 0, false
	}
}

// ToTime interpreta time.Time o textos en los layouts conocidos (hora local).
func ToTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case []byte:
		return ToTime(string(t))
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
