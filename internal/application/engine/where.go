package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
)

// Filters parámetros de consulta ya parseados (page, limit, sort, order, search y filtros propios).
type Filters map[string]string

// Get devuelve el valor recortado; ok es false si falta o está vacío.
func (f Filters) Get(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Int devuelve el valor entero o def si falta o no es numérico.
func (f Filters) Int(key string, def int) int {
	v, ok := f.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool interpreta el filtro como booleano (1/true/on/yes/si, 0/false/off/no).
// ok es false si falta o está vacío; un valor no reconocido es un error de validación.
func (f Filters) Bool(key string) (value, ok bool, err error) {
	v, present := f.Get(key)
	if !present {
		return false, false, nil
	}
	b, valid := entity.ToBool(v)
	if !valid {
		return false, false, domain.NewValidationError(fmt.Sprintf("Filtro %s inválido: %s", key, v))
	}
	return b, true, nil
}

// Where acumula predicados AND con parámetros enlazados en orden.
type Where struct {
	d     repository.Dialect
	conds []string
	args  []any
}

// NewWhere crea un builder vacío para el dialecto dado.
func NewWhere(d repository.Dialect) *Where {
	return &Where{d: d}
}

// Dialect del builder (para DateOf).
func (w *Where) Dialect() repository.Dialect { return w.d }

// Raw agrega cond reemplazando cada '?' por el siguiente marcador del dialecto.
// cond solo debe contener identificadores fijos del código.
func (w *Where) Raw(cond string, args ...any) *Where {
	var b strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			w.args = append(w.args, args[i])
			b.WriteString(w.d.Placeholder(len(w.args)))
			i++
			continue
		}
		b.WriteRune(r)
	}
	w.conds = append(w.conds, b.String())
	return w
}

// Eq agrega column = valor.
func (w *Where) Eq(column string, v any) *Where {
	return w.Raw(column+" = ?", v)
}

// Cmp agrega expr op valor (op: =, <, <=, >, >=, <>).
func (w *Where) Cmp(expr, op string, v any) *Where {
	return w.Raw(expr+" "+op+" ?", v)
}

// Like agrega una coincidencia parcial insensible a mayúsculas sobre column.
// '%', '_' y '\' en term se buscan literalmente.
func (w *Where) Like(column, term string) *Where {
	return w.Raw(w.d.ContainsLike(column), repository.ContainsPattern(term))
}

// AnyLike agrega (c1 LIKE t OR c2 LIKE t ...) con la misma coincidencia parcial.
func (w *Where) AnyLike(columns []string, term string) *Where {
	if len(columns) == 0 {
		return w
	}
	parts := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		parts[i] = w.d.ContainsLike(c)
		args[i] = repository.ContainsPattern(term)
	}
	return w.Raw("("+strings.Join(parts, " OR ")+")", args...)
}

// Len número de predicados.
func (w *Where) Len() int { return len(w.conds) }

// SQL devuelve " WHERE a AND b" o "" si no hay predicados.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Args parámetros en el orden de los marcadores.
func (w *Where) Args() []any {
	out := make([]any, len(w.args))
	copy(out, w.args)
	return out
}

// Next devuelve el marcador que tendría el siguiente parámetro tras los del WHERE más offset.
func (w *Where) Next(offset int) string {
	return w.d.Placeholder(len(w.args) + offset)
}
