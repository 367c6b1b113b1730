package repository

import (
	"strconv"
	"strings"
)

// Dialect encapsula las diferencias de SQL entre PostgreSQL y SQLite.
type Dialect interface {
	Name() string
	// Placeholder devuelve el marcador del parámetro n (base 1).
	Placeholder(n int) string
	// ContainsLike devuelve la condición "column contiene ?" insensible a mayúsculas,
	// con '?' como único marcador y '\' como carácter de escape.
	ContainsLike(column string) string
	// DateOf extrae la fecha (sin hora) de una columna.
	DateOf(column string) string
}

// Postgres dialecto de PostgreSQL ($1, ILIKE).
type Postgres struct{}

func (Postgres) Name() string             { return "postgres" }
func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (Postgres) ContainsLike(column string) string {
	return column + ` ILIKE ? ESCAPE '\'`
}
func (Postgres) DateOf(column string) string {
	return "CAST(" + column + " AS DATE)"
}

// SQLite dialecto de SQLite. LIKE solo ignora mayúsculas en ASCII, por eso ambos lados
// pasan por FoldFunc, que el driver registra en cada conexión.
// Los instantes se guardan con offset; las funciones de fecha los llevan a hora local.
type SQLite struct{}

func (SQLite) Name() string           { return "sqlite" }
func (SQLite) Placeholder(int) string { return "?" }
func (SQLite) ContainsLike(column string) string {
	return FoldFunc + "(" + column + ") LIKE " + FoldFunc + `(?) ESCAPE '\'`
}
func (SQLite) DateOf(column string) string { return "DATE(" + column + ", 'localtime')" }

// FoldFunc función SQL de plegado Unicode de mayúsculas que registra el driver SQLite.
const FoldFunc = "fold"

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ContainsPattern arma el patrón "%term%" escapando los comodines de term.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// Placeholders devuelve "p1, p2, ..., pn" empezando en el parámetro first.
func Placeholders(d Dialect, first, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.Placeholder(first + i)
	}
	return strings.Join(parts, ", ")
}
