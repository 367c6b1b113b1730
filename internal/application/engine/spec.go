package engine

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
)

// Op operación de escritura en curso.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpPatch  Op = "patch"
)

// Input contexto que reciben los hooks de escritura.
// Data es el cuerpo de la petición; los hooks pueden modificarlo.
type Input struct {
	Op       Op
	ID       string
	Data     entity.Record
	Existing entity.Record // nil en create
	Store    repository.RecordStore
	Now      time.Time
}

// FieldType tipo declarado de una columna para coercionar valores antes de escribir.
type FieldType int

const (
	TypeString FieldType = iota
	TypeBool
	TypeDecimal
	TypeInt
	TypeTime
	TypeDate
)

// DeleteKind política de eliminación declarada por entidad.
type DeleteKind int

const (
	DeleteHard DeleteKind = iota
	DeleteSoftActive
	DeleteSoftDeleted
)

// Deletion política de eliminación.
type Deletion struct {
	Kind  DeleteKind
	Field string // activo / deleted
	Stamp string // deleted_at (solo DeleteSoftDeleted)
}

// HardDelete borra la fila.
func HardDelete() Deletion { return Deletion{Kind: DeleteHard} }

// SoftActive marca field = false y actualiza el timestamp de modificación.
func SoftActive(field string) Deletion {
	return Deletion{Kind: DeleteSoftActive, Field: field}
}

// SoftDeleted marca field = true y guarda el instante en stamp.
func SoftDeleted(field, stamp string) Deletion {
	return Deletion{Kind: DeleteSoftDeleted, Field: field, Stamp: stamp}
}

// Spec describe una entidad: identidad de tabla, columnas permitidas y hooks.
// Los identificadores de tabla y columna solo salen de aquí, nunca de la petición.
type Spec struct {
	Entity     string
	Table      string
	PrimaryKey string
	CreatedAt  string
	UpdatedAt  string

	// Columns lista blanca de columnas persistibles y ordenables.
	Columns    []string
	Searchable []string
	Types      map[string]FieldType
	// RawFields no pasan por Sanitize (contraseñas, URLs).
	RawFields []string
	// Virtual campos aceptados en el cuerpo que no se persisten en la tabla.
	Virtual  []string
	Deletion Deletion

	Validate      func(ctx context.Context, in *Input) []string
	BeforeCreate  func(ctx context.Context, in *Input) error
	AfterCreate   func(ctx context.Context, in *Input, rec entity.Record) (entity.Record, error)
	BeforeUpdate  func(ctx context.Context, in *Input) error
	AfterUpdate   func(ctx context.Context, in *Input, rec entity.Record) (entity.Record, error)
	BeforeDelete  func(ctx context.Context, in *Input) error
	AfterGet      func(rec entity.Record) entity.Record
	CustomFilters func(f Filters, w *Where) error
}

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Check verifica que los identificadores de la Spec sean seguros para interpolar en SQL.
func (s *Spec) Check() error {
	idents := []string{s.Table, s.PrimaryKey}
	if s.CreatedAt != "" {
		idents = append(idents, s.CreatedAt)
	}
	if s.UpdatedAt != "" {
		idents = append(idents, s.UpdatedAt)
	}
	if s.Deletion.Field != "" {
		idents = append(idents, s.Deletion.Field)
	}
	if s.Deletion.Stamp != "" {
		idents = append(idents, s.Deletion.Stamp)
	}
	idents = append(idents, s.Columns...)
	idents = append(idents, s.Searchable...)
	for _, id := range idents {
		if !identPattern.MatchString(id) {
			return fmt.Errorf("spec %s: identificador inválido %q", s.Entity, id)
		}
	}
	if !s.HasColumn(s.PrimaryKey) {
		return fmt.Errorf("spec %s: la clave primaria %q no está en Columns", s.Entity, s.PrimaryKey)
	}
	if s.Deletion.Kind != DeleteHard && !s.HasColumn(s.Deletion.Field) {
		return fmt.Errorf("spec %s: el campo de borrado %q no está en Columns", s.Entity, s.Deletion.Field)
	}
	return nil
}

// HasColumn indica si name está en la lista blanca.
func (s *Spec) HasColumn(name string) bool {
	return contains(s.Columns, name)
}

func (s *Spec) isVirtual(name string) bool { return contains(s.Virtual, name) }

func (s *Spec) isRaw(name string) bool { return contains(s.RawFields, name) }

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}
