package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("registro no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrStore              = errors.New("error de almacenamiento")
	ErrUnauthorized       = errors.New("credenciales inválidas")
	ErrForbidden          = errors.New("usuario inactivo")
	ErrEmailAlreadyExists = errors.New("ya existe un usuario con este email")
	ErrSaleExists         = errors.New("ya existe una venta registrada para este pedido")
	ErrOrderNotDelivered  = errors.New("el pedido no está entregado")
	ErrPromotionNotActive = errors.New("la promoción no está vigente")
)

// Kind clasifica un error para que la capa de borde elija el código de respuesta.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindPrecondition Kind = "precondition"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindStore        Kind = "store"
)

// ValidationError agrupa todas las violaciones encontradas en una sola respuesta.
type ValidationError struct {
	Errors []string
}

// NewValidationError construye el error con las violaciones dadas.
func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Errors: violations}
}

func (e *ValidationError) Error() string {
	return "errores de validación: " + strings.Join(e.Errors, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NotFoundError indica que no existe un registro con el ID dado.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s (id %s)", ErrNotFound, e.ID)
	}
	return fmt.Sprintf("%s: %s (id %s)", e.Entity, ErrNotFound, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError indica una violación de unicidad o de estado (email duplicado, venta existente).
type ConflictError struct {
	Message string
	Err     error
}

func (e *ConflictError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return ErrConflict.Error()
}

func (e *ConflictError) Unwrap() error { return e.Err }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// StoreError envuelve fallos de conexión, constraints o transacciones del almacén.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// KindOf resuelve la categoría de err recorriendo la cadena de wrapping.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrSaleExists), errors.Is(err, ErrEmailAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrOrderNotDelivered), errors.Is(err, ErrPromotionNotActive):
		return KindPrecondition
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindStore
	}
}

// StatusCode traduce la categoría del error a un código HTTP sugerido.
func StatusCode(err error) int {
	switch KindOf(err) {
	case "":
		return http.StatusOK
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPrecondition:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Violations devuelve las violaciones de validación contenidas en err, si las hay.
func Violations(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}
