package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/jugueria-api/internal/application/engine"
	"github.com/jhoicas/jugueria-api/internal/application/entities"
	"github.com/jhoicas/jugueria-api/internal/domain/entity"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
)

// TableHandler expone el CRUD genérico de cualquier entidad registrada.
type TableHandler struct {
	reg   *entities.Registry
	store repository.RecordStore
}

// NewTableHandler construye el handler.
func NewTableHandler(reg *entities.Registry, store repository.RecordStore) *TableHandler {
	return &TableHandler{reg: reg, store: store}
}

func (h *TableHandler) engine(c *fiber.Ctx) (*engine.Engine, error) {
	return h.reg.Engine(c.Params("entity"), h.store)
}

// List godoc
// @Summary      Listar registros de una entidad
// @Tags         tables
// @Produce      json
// @Param        entity  path   string  true   "productos, pedidos, ventas, gastos, promociones, usuarios"
// @Param        page    query  int     false  "Página"
// @Param        limit   query  int     false  "Tamaño de página (máx. 100)"
// @Param        search  query  string  false  "Búsqueda en campos de texto"
// @Param        sort    query  string  false  "Campo de ordenamiento"
// @Param        order   query  string  false  "asc o desc"
// @Success      200  {object}  dto.ListResult
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tables/{entity} [get]
func (h *TableHandler) List(c *fiber.Ctx) error {
	e, err := h.engine(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := e.List(c.UserContext(), engine.Filters(c.Queries()))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener registro por ID
// @Tags         tables
// @Produce      json
// @Param        entity  path  string  true  "Entidad"
// @Param        id      path  string  true  "ID del registro"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tables/{entity}/{id} [get]
func (h *TableHandler) GetByID(c *fiber.Ctx) error {
	e, err := h.engine(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := e.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear registro
// @Tags         tables
// @Accept       json
// @Produce      json
// @Param        entity  path  string  true  "Entidad"
// @Param        body    body  map[string]interface{}  true  "Campos del registro"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/tables/{entity} [post]
func (h *TableHandler) Create(c *fiber.Ctx) error {
	return h.write(c, fiber.StatusCreated, func(tx *engine.Engine, data entity.Record) (entity.Record, error) {
		return tx.Create(c.UserContext(), data)
	})
}

// Update godoc
// @Summary      Reemplazar registro
// @Tags         tables
// @Accept       json
// @Produce      json
// @Param        entity  path  string  true  "Entidad"
// @Param        id      path  string  true  "ID del registro"
// @Param        body    body  map[string]interface{}  true  "Campos del registro"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tables/{entity}/{id} [put]
func (h *TableHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	return h.write(c, fiber.StatusOK, func(tx *engine.Engine, data entity.Record) (entity.Record, error) {
		return tx.Update(c.UserContext(), id, data)
	})
}

// Patch godoc
// @Summary      Actualizar campos de un registro
// @Tags         tables
// @Accept       json
// @Produce      json
// @Param        entity  path  string  true  "Entidad"
// @Param        id      path  string  true  "ID del registro"
// @Param        body    body  map[string]interface{}  true  "Campos a modificar"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tables/{entity}/{id} [patch]
func (h *TableHandler) Patch(c *fiber.Ctx) error {
	id := c.Params("id")
	return h.write(c, fiber.StatusOK, func(tx *engine.Engine, data entity.Record) (entity.Record, error) {
		return tx.Patch(c.UserContext(), id, data)
	})
}

// Delete godoc
// @Summary      Eliminar registro
// @Tags         tables
// @Produce      json
// @Param        entity  path  string  true  "Entidad"
// @Param        id      path  string  true  "ID del registro"
// @Success      200  {object}  dto.DeleteResult
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tables/{entity}/{id} [delete]
func (h *TableHandler) Delete(c *fiber.Ctx) error {
	e, err := h.engine(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := e.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// write ejecuta la escritura en una transacción: las entidades con asociaciones
// (promociones y sus productos) escriben más de una tabla.
func (h *TableHandler) write(c *fiber.Ctx, status int, fn func(tx *engine.Engine, data entity.Record) (entity.Record, error)) error {
	e, err := h.engine(c)
	if err != nil {
		return respondError(c, err)
	}
	data, err := decodeRecord(c)
	if err != nil {
		return invalidBody(c)
	}
	var out entity.Record
	err = e.Atomic(c.UserContext(), func(tx *engine.Engine) error {
		var err error
		out, err = fn(tx, data)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(out)
}
