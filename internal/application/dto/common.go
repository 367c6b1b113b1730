package dto

import "github.com/jhoicas/jugueria-api/internal/domain/entity"

// Paginación de listados.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampPage normaliza page (>= 1) y limit ([1, MaxLimit]).
// Si limit no vino en la petición el llamador pasa DefaultLimit.
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Pages calcula ceil(total/limit).
func Pages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// ListResult respuesta de listados paginados.
type ListResult struct {
	Data   []entity.Record `json:"data"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
	Pages  int             `json:"pages"`
	Table  string          `json:"table"`
	Schema []string        `json:"schema"`
}

// DeleteResult respuesta de eliminación con el registro previo.
type DeleteResult struct {
	Message       string        `json:"message"`
	DeletedRecord entity.Record `json:"deleted_record"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
