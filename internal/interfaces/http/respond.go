package http

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/jugueria-api/internal/application/dto"
	"github.com/jhoicas/jugueria-api/internal/domain"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
)

var errorCodes = map[domain.Kind]string{
	domain.KindValidation:   "VALIDATION",
	domain.KindNotFound:     "NOT_FOUND",
	domain.KindConflict:     "CONFLICT",
	domain.KindPrecondition: "PRECONDITION_FAILED",
	domain.KindUnauthorized: "UNAUTHORIZED",
	domain.KindForbidden:    "FORBIDDEN",
	domain.KindStore:        "INTERNAL",
}

// respondError traduce un error de dominio a dto.ErrorResponse con el código HTTP de domain.StatusCode.
// Los errores de almacenamiento se registran y se responden sin detalle.
func respondError(c *fiber.Ctx, err error) error {
	status := domain.StatusCode(err)
	resp := dto.ErrorResponse{
		Code:    errorCodes[domain.KindOf(err)],
		Message: err.Error(),
		Details: domain.Violations(err),
	}
	switch {
	case resp.Details != nil:
		resp.Message = "errores de validación"
	case status >= fiber.StatusInternalServerError:
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
		resp.Message = "error interno del servidor"
	}
	return c.Status(status).JSON(resp)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// decodeJSON lee el cuerpo conservando los números como json.Number. Un cuerpo vacío no es error.
func decodeJSON(c *fiber.Ctx, out any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("contenido adicional tras el objeto JSON")
	}
	return nil
}

// decodeRecord lee el cuerpo como registro. Exige un objeto JSON.
func decodeRecord(c *fiber.Ctx) (entity.Record, error) {
	rec := entity.Record{}
	if err := decodeJSON(c, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = entity.Record{}
	}
	return rec, nil
}

// ErrorHandler responde los errores que no maneja un handler (rutas inexistentes, pánicos recuperados).
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "HTTP_ERROR"
		if fe.Code == fiber.StatusNotFound {
			code = "NOT_FOUND"
		}
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
	}
	return respondError(c, err)
}
